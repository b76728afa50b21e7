package transaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// ReassignTransactions attaches unassigned transactions matching the
// target user's tags to that user. Ownership can only be given to a
// locally issued identity: handing sessions to a federated user is a
// conflict, the partner organization owns that identity.
func (s *Service) ReassignTransactions(ctx context.Context, actor ports.Actor, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.NewValidationError("userId", "must not be empty")
	}
	if !s.authz.Can(ctx, actor, ports.ActionUpdate, ports.EntityTransactions, "") {
		return 0, &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionUpdate),
			Entity: string(ports.EntityTransactions),
		}
	}
	user, err := s.userRepo.FindByID(ctx, actor.TenantID, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, domain.NewNotFoundError("user", userID)
	}
	if !user.Issuer {
		return 0, domain.NewConflictError("user", userID,
			"belongs to an external organization, transactions cannot be assigned to it")
	}

	assigned, err := s.txRepo.ReassignToUser(ctx, actor.TenantID, user)
	if err != nil {
		return 0, err
	}
	if assigned > 0 {
		s.publish(SubjectTransactionsAssigned, actor.TenantID, actor.UserID, nil)
	}
	s.log.Info("reassigned unassigned transactions",
		zap.String("tenant_id", actor.TenantID),
		zap.String("user_id", userID),
		zap.Int64("assigned", assigned),
	)
	return assigned, nil
}

// CountUnassigned reports how many stopped sessions match the user's
// tags without being assigned to any user yet.
func (s *Service) CountUnassigned(ctx context.Context, actor ports.Actor, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.NewValidationError("userId", "must not be empty")
	}
	if !s.authz.Can(ctx, actor, ports.ActionList, ports.EntityTransactions, "") {
		return 0, &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionList),
			Entity: string(ports.EntityTransactions),
		}
	}
	user, err := s.userRepo.FindByID(ctx, actor.TenantID, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, domain.NewNotFoundError("user", userID)
	}
	return s.txRepo.CountUnassigned(ctx, actor.TenantID, user)
}
