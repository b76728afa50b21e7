package transaction

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// PushCDR builds and sends the roaming Charge Detail Record of one
// transaction. Preconditions, each terminal: the transaction exists,
// its charging station exists, the session was issued by this
// organization, it carries a roaming context, it has stopped, and no
// CDR was pushed before. Already-pushed is a conflict, not a silent
// success.
func (s *Service) PushCDR(ctx context.Context, actor ports.Actor, id int) error {
	if !s.authz.Can(ctx, actor, ports.ActionUpdate, ports.EntityTransaction, strconv.Itoa(id)) {
		return &domain.AuthorizationError{
			Actor:    actor.UserID,
			Action:   string(ports.ActionUpdate),
			Entity:   string(ports.EntityTransaction),
			Instance: strconv.Itoa(id),
		}
	}

	tx, err := s.txRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return domain.NewNotFoundError("transaction", strconv.Itoa(id))
	}

	station, err := s.stationRepo.FindByID(ctx, actor.TenantID, tx.ChargeBoxID)
	if err != nil {
		return err
	}
	if station == nil {
		return domain.NewNotFoundError("charging station", tx.ChargeBoxID)
	}

	if !tx.Issuer {
		return domain.NewConflictError("transaction", strconv.Itoa(id),
			"belongs to an external organization, its CDR cannot be pushed from here")
	}
	if tx.OCPIData == nil {
		return domain.NewConflictError("transaction", strconv.Itoa(id),
			"has no roaming context, nothing to push")
	}
	// A CDR settles a finished session; without a stop record there are
	// no totals to report yet.
	if tx.IsActive() {
		return domain.NewConflictError("transaction", strconv.Itoa(id),
			"is still active, its CDR can only be pushed once the session has stopped")
	}
	if tx.HasPushedCDR() {
		return domain.NewConflictError("transaction", strconv.Itoa(id),
			"CDR was already pushed")
	}

	cdrID, err := s.roaming.BuildAndSendCDR(ctx, actor.TenantID, tx, station)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	tx.OCPIData.CDR = &domain.CDR{ID: cdrID, LastPatched: &now}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return err
	}

	telemetry.CDRsPushed.Inc()
	s.publish(SubjectCDRPushed, actor.TenantID, actor.UserID, []int{id})
	s.log.Info("pushed transaction CDR",
		zap.String("tenant_id", actor.TenantID),
		zap.Int("transaction_id", id),
		zap.String("cdr_id", cdrID),
	)
	return nil
}
