package ports

import (
	"context"
	"time"

	"github.com/voltgrid/voltgrid/internal/domain"
)

// Action names a capability the authorizer can grant.
type Action string

const (
	ActionRead              Action = "read"
	ActionList              Action = "list"
	ActionUpdate            Action = "update"
	ActionDelete            Action = "delete"
	ActionRefundTransaction Action = "refund_transaction"
	ActionExport            Action = "export"
	ActionSynchronize       Action = "synchronize"
)

// Entity names the resource class a capability applies to.
type Entity string

const (
	EntityTransaction  Entity = "transaction"
	EntityTransactions Entity = "transactions"
	EntityUser         Entity = "user"
)

// Actor is the authenticated caller of an engine operation, resolved by
// the transport layer.
type Actor struct {
	UserID   string
	TenantID string
	Role     domain.UserRole
	// SiteIDs are the sites a site admin administers. Empty for roles
	// that are not site-scoped.
	SiteIDs []string
}

// Authorizer is the capability check collaborator. A false result is
// always fatal for the whole request.
type Authorizer interface {
	Can(ctx context.Context, actor Actor, action Action, entity Entity, instance string) bool
}

// BatchResult is the aggregate outcome of a partial-failure batch
// operation. Individual item failures are logged and counted, never
// propagated. InError is omitted from the envelope when zero.
type BatchResult struct {
	InSuccess int `json:"inSuccess"`
	InError   int `json:"inError,omitempty"`
}

// TransactionQuery carries the externally-facing filter parameters of a
// transaction listing. Multi-value fields are pipe-delimited, as
// received from the transport layer.
type TransactionQuery struct {
	ChargeBoxID   string
	ConnectorID   string
	UserID        string
	SiteID        string
	TagID         string
	ErrorType     string
	Issuer        *bool
	StartDateTime *time.Time
	EndDateTime   *time.Time
	Search        string
	Limit         int
	Skip          int
}

// TransactionService is the transaction lifecycle engine.
type TransactionService interface {
	SubmitRefunds(ctx context.Context, actor Actor, ids []int) (*BatchResult, error)
	PushCDR(ctx context.Context, actor Actor, id int) error
	DeleteTransactions(ctx context.Context, actor Actor, ids []int) (*BatchResult, error)
	ReassignTransactions(ctx context.Context, actor Actor, userID string) (int64, error)
	CountUnassigned(ctx context.Context, actor Actor, userID string) (int64, error)
	RebuildConsumption(ctx context.Context, actor Actor, id int) (int, error)
	GetTransaction(ctx context.Context, actor Actor, id int) (*domain.Transaction, error)
	GetActiveTransactions(ctx context.Context, actor Actor, query TransactionQuery) (*TransactionPage, error)
	GetCompletedTransactions(ctx context.Context, actor Actor, query TransactionQuery) (*TransactionPage, error)
	GetTransactionsToRefund(ctx context.Context, actor Actor, query TransactionQuery) (*TransactionPage, error)
	GetTransactionsInError(ctx context.Context, actor Actor, query TransactionQuery) (*TransactionPage, error)
	GetTransactionsByStation(ctx context.Context, actor Actor, stationID string, query TransactionQuery) (*TransactionPage, error)
	GetYearsWithData(ctx context.Context, actor Actor) ([]int, error)
}

// RoamingService builds and sends a Charge Detail Record to the
// external clearing party and returns the CDR id it was assigned.
type RoamingService interface {
	BuildAndSendCDR(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error)
}

// ConsumptionService recomputes derived consumption samples from raw
// meter values and reports how many samples resulted. Rebuilding twice
// over unchanged raw data yields the same count.
type ConsumptionService interface {
	Rebuild(ctx context.Context, tenantID string, transactionID int) (int, error)
}
