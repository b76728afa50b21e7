package ports

import (
	"context"
	"time"

	"github.com/voltgrid/voltgrid/internal/domain"
)

// Pagination bounds a repository search. Limit <= 0 means the
// repository default.
type Pagination struct {
	Limit int
	Skip  int
}

// TransactionFilter is the canonical internal filter for transaction
// searches. External pipe-delimited parameters are translated into this
// shape before reaching a repository.
type TransactionFilter struct {
	ChargeBoxIDs []string
	ConnectorIDs []int
	UserIDs      []string
	TagIDs       []string
	SiteIDs      []string
	Issuer       *bool
	// WithStop selects completed (true) or active (false) sessions.
	// Nil selects both.
	WithStop  *bool
	StartedAt *time.Time
	EndedAt   *time.Time
	// ToRefund selects transactions with no live refund reference.
	ToRefund bool
	// ErrorTypes selects completed sessions matching any of the given
	// inconsistency classes.
	ErrorTypes []domain.TransactionErrorType
	Search     string
}

// TransactionPage is one page of a transaction search plus the total
// number of matches.
type TransactionPage struct {
	Items []domain.Transaction
	Total int64
}

type TransactionRepository interface {
	FindByID(ctx context.Context, tenantID string, id int) (*domain.Transaction, error)
	Search(ctx context.Context, tenantID string, filter TransactionFilter, page Pagination) (*TransactionPage, error)
	Save(ctx context.Context, tx *domain.Transaction) error
	// DeleteByIDs removes the given transactions in one call and returns
	// the number of rows actually removed. Deleting an already-deleted id
	// removes zero additional rows and is not an error.
	DeleteByIDs(ctx context.Context, tenantID string, ids []int) (int64, error)
	// ReassignToUser attaches unassigned transactions matching the user's
	// tags to the user and returns the number of rows updated.
	ReassignToUser(ctx context.Context, tenantID string, user *domain.User) (int64, error)
	YearsWithData(ctx context.Context, tenantID string) ([]int, error)
	CountUnassigned(ctx context.Context, tenantID string, user *domain.User) (int64, error)
}

type ChargingStationRepository interface {
	FindByID(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error)
	Save(ctx context.Context, station *domain.ChargingStation) error
}

type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id string) (*domain.User, error)
}

type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	FindAll(ctx context.Context) ([]domain.Tenant, error)
}

// MeterValueRepository stores raw station readings and the consumption
// samples derived from them.
type MeterValueRepository interface {
	ListByTransaction(ctx context.Context, tenantID string, transactionID int) ([]domain.MeterValue, error)
	// ReplaceSamples swaps the derived samples of a transaction in one
	// database transaction.
	ReplaceSamples(ctx context.Context, tenantID string, transactionID int, samples []domain.ConsumptionSample) error
}

// PaymentRepository backs the refund integration: it links transactions
// to their settled provider payments and records submitted refunds.
type PaymentRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Payment, error)
	GetCompletedByTransaction(ctx context.Context, tenantID string, transactionID int) (*domain.Payment, error)
	SaveRefund(ctx context.Context, refund *domain.Refund) error
	GetRefundByProviderID(ctx context.Context, tenantID, providerID string) (*domain.Refund, error)
	// ListPendingRefunds returns the refunds the provider has not yet
	// settled or rejected.
	ListPendingRefunds(ctx context.Context, tenantID string) ([]domain.Refund, error)
}
