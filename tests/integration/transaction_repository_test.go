package integration

import (
	"context"
	"testing"
	"time"

	storage "github.com/voltgrid/voltgrid/internal/adapter/storage/postgres"
	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

const testTenant = "tenant-integration"

// completedTransaction returns a stopped, billed, consistent session.
// Tests overwrite the fields whose predicate they exercise.
func completedTransaction(id int) *domain.Transaction {
	started := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return &domain.Transaction{
		TenantID:    testTenant,
		ID:          id,
		ChargeBoxID: "CB-01",
		ConnectorID: 1,
		UserID:      "user-42",
		TagID:       "tag-42",
		Issuer:      true,
		Timestamp:   started,
		MeterStart:  100,
		Stop: &domain.TransactionStop{
			Timestamp:          started.Add(90 * time.Minute),
			TotalConsumptionWh: 12500,
			TotalDurationSecs:  5400,
			Price:              4.25,
			PriceUnit:          "EUR",
		},
		BillingData: &domain.BillingData{InvoiceID: "inv-001"},
	}
}

func seedTransactions(t *testing.T, repo ports.TransactionRepository, txs ...*domain.Transaction) {
	ctx := context.Background()
	for _, tx := range txs {
		if err := repo.Save(ctx, tx); err != nil {
			t.Fatalf("Failed to seed transaction %d: %v", tx.ID, err)
		}
	}
}

// TestTransactionRepository_SearchToRefund checks the refund-eligibility
// predicate: no refund reference and cancelled refunds qualify, a
// submitted refund does not.
func TestTransactionRepository_SearchToRefund(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	CleanDatabase(t, env.SQL)

	ctx := context.Background()
	repo := storage.NewTransactionRepository(env.DB, env.Logger)

	never := completedTransaction(1)

	cancelled := completedTransaction(2)
	cancelled.RefundData = &domain.RefundData{
		RefundID: "re_cancelled",
		Status:   domain.RefundStatusCancelled,
	}

	submitted := completedTransaction(3)
	submitted.RefundData = &domain.RefundData{
		RefundID: "re_submitted",
		Status:   domain.RefundStatusSubmitted,
	}

	seedTransactions(t, repo, never, cancelled, submitted)

	page, err := repo.Search(ctx, testTenant, ports.TransactionFilter{ToRefund: true}, ports.Pagination{})
	if err != nil {
		t.Fatalf("Failed to search refundable transactions: %v", err)
	}

	if page.Total != 2 {
		t.Fatalf("Expected 2 refundable transactions, got %d", page.Total)
	}

	for _, tx := range page.Items {
		if tx.ID == submitted.ID {
			t.Errorf("Transaction %d has a submitted refund and must not be refundable", submitted.ID)
		}
	}
}

// TestTransactionRepository_SearchErrorTypes checks the pricing and
// billing inconsistency classes individually and OR-combined.
func TestTransactionRepository_SearchErrorTypes(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	CleanDatabase(t, env.SQL)

	ctx := context.Background()
	repo := storage.NewTransactionRepository(env.DB, env.Logger)

	unpriced := completedTransaction(10)
	unpriced.Stop.Price = 0

	unbilled := completedTransaction(11)
	unbilled.BillingData = nil

	clean := completedTransaction(12)

	seedTransactions(t, repo, unpriced, unbilled, clean)

	t.Run("MissingPrice", func(t *testing.T) {
		page, err := repo.Search(ctx, testTenant, ports.TransactionFilter{
			ErrorTypes: []domain.TransactionErrorType{domain.ErrorTypeMissingPrice},
		}, ports.Pagination{})
		if err != nil {
			t.Fatalf("Failed to search transactions: %v", err)
		}

		if page.Total != 1 {
			t.Fatalf("Expected 1 transaction with a missing price, got %d", page.Total)
		}
		if page.Items[0].ID != unpriced.ID {
			t.Errorf("Expected transaction %d, got %d", unpriced.ID, page.Items[0].ID)
		}
	})

	t.Run("NoBillingData", func(t *testing.T) {
		page, err := repo.Search(ctx, testTenant, ports.TransactionFilter{
			ErrorTypes: []domain.TransactionErrorType{domain.ErrorTypeNoBillingData},
		}, ports.Pagination{})
		if err != nil {
			t.Fatalf("Failed to search transactions: %v", err)
		}

		if page.Total != 1 {
			t.Fatalf("Expected 1 transaction without billing data, got %d", page.Total)
		}
		if page.Items[0].ID != unbilled.ID {
			t.Errorf("Expected transaction %d, got %d", unbilled.ID, page.Items[0].ID)
		}
	})

	t.Run("CombinedClasses", func(t *testing.T) {
		page, err := repo.Search(ctx, testTenant, ports.TransactionFilter{
			ErrorTypes: []domain.TransactionErrorType{
				domain.ErrorTypeMissingPrice,
				domain.ErrorTypeNoBillingData,
			},
		}, ports.Pagination{})
		if err != nil {
			t.Fatalf("Failed to search transactions: %v", err)
		}

		if page.Total != 2 {
			t.Fatalf("Expected 2 inconsistent transactions, got %d", page.Total)
		}
		for _, tx := range page.Items {
			if tx.ID == clean.ID {
				t.Errorf("Transaction %d is consistent and must not match any class", clean.ID)
			}
		}
	})
}

// TestTransactionRepository_DeleteByIDs checks that the bulk delete
// reports the rows actually removed, not the ids requested.
func TestTransactionRepository_DeleteByIDs(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	CleanDatabase(t, env.SQL)

	ctx := context.Background()
	repo := storage.NewTransactionRepository(env.DB, env.Logger)

	seedTransactions(t, repo,
		completedTransaction(21),
		completedTransaction(22),
		completedTransaction(23),
	)

	t.Run("MissingIDRemovesNothing", func(t *testing.T) {
		deleted, err := repo.DeleteByIDs(ctx, testTenant, []int{21, 22, 99})
		if err != nil {
			t.Fatalf("Failed to delete transactions: %v", err)
		}

		if deleted != 2 {
			t.Errorf("Expected 2 deleted rows, got %d", deleted)
		}
	})

	t.Run("DoubleDeleteRemovesZero", func(t *testing.T) {
		deleted, err := repo.DeleteByIDs(ctx, testTenant, []int{21, 22})
		if err != nil {
			t.Fatalf("Failed to delete transactions: %v", err)
		}

		if deleted != 0 {
			t.Errorf("Expected 0 deleted rows, got %d", deleted)
		}
	})

	t.Run("OtherTenantRowsUntouched", func(t *testing.T) {
		deleted, err := repo.DeleteByIDs(ctx, "tenant-other", []int{23})
		if err != nil {
			t.Fatalf("Failed to delete transactions: %v", err)
		}

		if deleted != 0 {
			t.Errorf("Expected 0 deleted rows for another tenant, got %d", deleted)
		}

		remaining, err := repo.FindByID(ctx, testTenant, 23)
		if err != nil {
			t.Fatalf("Failed to read transaction 23: %v", err)
		}
		if remaining == nil {
			t.Error("Transaction 23 was deleted across the tenant boundary")
		}
	})
}
