package domain

import (
	"fmt"
)

// ValidationError signals a caller-fixable bad request: a missing or
// malformed identifier or field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthorizationError signals a failed capability check. It is always
// fatal for the whole request, never folded into batch counters.
type AuthorizationError struct {
	Actor    string
	Action   string
	Entity   string
	Instance string
}

func (e *AuthorizationError) Error() string {
	if e.Instance != "" {
		return fmt.Sprintf("user %s is not authorized to %s %s %s", e.Actor, e.Action, e.Entity, e.Instance)
	}
	return fmt.Sprintf("user %s is not authorized to %s %s", e.Actor, e.Action, e.Entity)
}

// NotFoundError signals an absent referenced entity. Single-item reads
// propagate it; batch operations downgrade it to a logged skip.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError for an entity instance.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError signals a state that makes the requested operation
// invalid for one specific item: already refunded, already invoiced,
// CDR already pushed, external-organization ownership.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// NewConflictError builds a ConflictError for an entity instance.
func NewConflictError(entity, id, reason string) *ConflictError {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

// IntegrationUnavailableError signals that a required integration
// implementation is not configured for the tenant. The operation cannot
// proceed, so this is fatal for the request.
type IntegrationUnavailableError struct {
	TenantID    string
	Integration string
}

func (e *IntegrationUnavailableError) Error() string {
	return fmt.Sprintf("no %s integration configured for tenant %s", e.Integration, e.TenantID)
}
