package authorization

import (
	"context"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// capability is a single entity-action pair a role may exercise.
type capability struct {
	Entity ports.Entity
	Action ports.Action
}

// Service is the capability checker. It maps roles to their allowed
// entity-action pairs; the transaction engine treats a false answer as
// fatal for the whole request.
//
// Roles:
//   - admin      : every action on transactions and users
//   - site_admin : full transaction management, scoped by the engine to
//     the actor's administered sites
//   - basic      : read/list own transactions only
//   - demo       : read-only, no exports
type Service struct {
	capabilities map[domain.UserRole][]capability
	log          *zap.Logger
}

func NewService(log *zap.Logger) *Service {
	capabilities := map[domain.UserRole][]capability{
		domain.UserRoleAdmin: {
			{ports.EntityTransaction, ports.ActionRead},
			{ports.EntityTransaction, ports.ActionUpdate},
			{ports.EntityTransaction, ports.ActionRefundTransaction},
			{ports.EntityTransactions, ports.ActionList},
			{ports.EntityTransactions, ports.ActionUpdate},
			{ports.EntityTransactions, ports.ActionDelete},
			{ports.EntityTransactions, ports.ActionExport},
			{ports.EntityTransactions, ports.ActionSynchronize},
			{ports.EntityUser, ports.ActionRead},
			{ports.EntityUser, ports.ActionList},
		},
		domain.UserRoleSiteAdmin: {
			{ports.EntityTransaction, ports.ActionRead},
			{ports.EntityTransaction, ports.ActionUpdate},
			{ports.EntityTransaction, ports.ActionRefundTransaction},
			{ports.EntityTransactions, ports.ActionList},
			{ports.EntityTransactions, ports.ActionUpdate},
			{ports.EntityTransactions, ports.ActionDelete},
			{ports.EntityTransactions, ports.ActionExport},
			{ports.EntityUser, ports.ActionRead},
			{ports.EntityUser, ports.ActionList},
		},
		domain.UserRoleBasic: {
			{ports.EntityTransaction, ports.ActionRead},
			{ports.EntityTransactions, ports.ActionList},
			{ports.EntityTransactions, ports.ActionExport},
		},
		domain.UserRoleDemo: {
			{ports.EntityTransaction, ports.ActionRead},
			{ports.EntityTransactions, ports.ActionList},
		},
	}

	log.Info("authorization service initialized",
		zap.Int("roles", len(capabilities)),
	)
	return &Service{
		capabilities: capabilities,
		log:          log,
	}
}

// Can reports whether the actor may perform the action on the entity.
// The instance value is carried for diagnostics only; instance-level
// policy stays with the engine (site scoping, ownership redaction).
func (s *Service) Can(ctx context.Context, actor ports.Actor, action ports.Action, entity ports.Entity, instance string) bool {
	caps, ok := s.capabilities[actor.Role]
	if !ok {
		s.log.Warn("unknown role attempted access",
			zap.String("role", string(actor.Role)),
			zap.String("entity", string(entity)),
			zap.String("action", string(action)),
		)
		return false
	}
	for _, c := range caps {
		if c.Entity == entity && c.Action == action {
			return true
		}
	}
	s.log.Debug("capability denied",
		zap.String("user_id", actor.UserID),
		zap.String("role", string(actor.Role)),
		zap.String("entity", string(entity)),
		zap.String("action", string(action)),
		zap.String("instance", instance),
	)
	return false
}
