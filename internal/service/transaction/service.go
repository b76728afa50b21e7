package transaction

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/voltgrid/voltgrid/internal/adapter/queue"
	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// Subjects of the lifecycle events the engine publishes.
const (
	SubjectTransactionsDeleted  = "transaction.deleted"
	SubjectRefundsSubmitted     = "transaction.refunds_submitted"
	SubjectCDRPushed            = "transaction.cdr_pushed"
	SubjectTransactionsAssigned = "transaction.assigned"
)

// Service is the transaction lifecycle engine. It orchestrates refund
// eligibility, CDR pushes, bulk deletion and queries across the
// transaction store, the station store and the optional financial
// integrations. It holds no state of its own between requests.
type Service struct {
	txRepo       ports.TransactionRepository
	stationRepo  ports.ChargingStationRepository
	userRepo     ports.UserRepository
	integrations ports.IntegrationFactory
	roaming      ports.RoamingService
	consumption  ports.ConsumptionService
	authz        ports.Authorizer
	mq           queue.MessageQueue
	log          *zap.Logger
}

func NewService(
	txRepo ports.TransactionRepository,
	stationRepo ports.ChargingStationRepository,
	userRepo ports.UserRepository,
	integrations ports.IntegrationFactory,
	roaming ports.RoamingService,
	consumption ports.ConsumptionService,
	authz ports.Authorizer,
	mq queue.MessageQueue,
	log *zap.Logger,
) ports.TransactionService {
	return &Service{
		txRepo:       txRepo,
		stationRepo:  stationRepo,
		userRepo:     userRepo,
		integrations: integrations,
		roaming:      roaming,
		consumption:  consumption,
		authz:        authz,
		mq:           mq,
		log:          log,
	}
}

// GetTransaction returns a single transaction, or a NotFoundError when
// it does not exist.
func (s *Service) GetTransaction(ctx context.Context, actor ports.Actor, id int) (*domain.Transaction, error) {
	if !s.authz.Can(ctx, actor, ports.ActionRead, ports.EntityTransaction, strconv.Itoa(id)) {
		return nil, &domain.AuthorizationError{
			Actor:    actor.UserID,
			Action:   string(ports.ActionRead),
			Entity:   string(ports.EntityTransaction),
			Instance: strconv.Itoa(id),
		}
	}
	tx, err := s.txRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NewNotFoundError("transaction", strconv.Itoa(id))
	}
	s.redact(ctx, actor, tx)
	return tx, nil
}

// RebuildConsumption delegates the recomputation of derived consumption
// samples from raw meter values. Idempotent given unchanged raw data.
func (s *Service) RebuildConsumption(ctx context.Context, actor ports.Actor, id int) (int, error) {
	if !s.authz.Can(ctx, actor, ports.ActionUpdate, ports.EntityTransaction, strconv.Itoa(id)) {
		return 0, &domain.AuthorizationError{
			Actor:    actor.UserID,
			Action:   string(ports.ActionUpdate),
			Entity:   string(ports.EntityTransaction),
			Instance: strconv.Itoa(id),
		}
	}
	tx, err := s.txRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return 0, err
	}
	if tx == nil {
		return 0, domain.NewNotFoundError("transaction", strconv.Itoa(id))
	}
	samples, err := s.consumption.Rebuild(ctx, actor.TenantID, id)
	if err != nil {
		return 0, err
	}
	s.log.Info("rebuilt transaction consumption",
		zap.String("tenant_id", actor.TenantID),
		zap.Int("transaction_id", id),
		zap.Int("samples", samples),
	)
	return samples, nil
}

type lifecycleEvent struct {
	EventID   string    `json:"event_id"`
	TenantID  string    `json:"tenant_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	IDs       []int     `json:"transaction_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// publish emits a lifecycle event. Event delivery is best-effort: a
// broker failure is logged, never surfaced to the caller.
func (s *Service) publish(subject, tenantID, actorID string, ids []int) {
	if s.mq == nil {
		return
	}
	payload, err := json.Marshal(lifecycleEvent{
		EventID:   uuid.New().String(),
		TenantID:  tenantID,
		ActorID:   actorID,
		IDs:       ids,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.mq.Publish(subject, payload); err != nil {
		s.log.Warn("failed to publish lifecycle event",
			zap.String("subject", subject),
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
}

// redact strips personal data the actor is not allowed to see.
func (s *Service) redact(ctx context.Context, actor ports.Actor, txs ...*domain.Transaction) {
	if s.authz.Can(ctx, actor, ports.ActionList, ports.EntityUser, "") {
		return
	}
	for _, tx := range txs {
		if tx.UserID != actor.UserID {
			tx.UserID = ""
			tx.TagID = ""
		}
	}
}
