package transaction

import (
	"context"
	"strconv"
	"strings"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// maxInErrorResults caps the in-error listing independently of the
// requested page size. The listing feeds a dashboard widget; anything
// past this is noise.
const maxInErrorResults = 100

// GetActiveTransactions lists sessions that have not stopped yet.
func (s *Service) GetActiveTransactions(ctx context.Context, actor ports.Actor, query ports.TransactionQuery) (*ports.TransactionPage, error) {
	withStop := false
	filter, page, err := s.buildFilter(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	filter.WithStop = &withStop
	return s.search(ctx, actor, filter, page)
}

// GetCompletedTransactions lists stopped sessions.
func (s *Service) GetCompletedTransactions(ctx context.Context, actor ports.Actor, query ports.TransactionQuery) (*ports.TransactionPage, error) {
	withStop := true
	filter, page, err := s.buildFilter(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	filter.WithStop = &withStop
	return s.search(ctx, actor, filter, page)
}

// GetTransactionsToRefund lists stopped sessions with no live refund
// reference: never submitted, or submitted and later cancelled.
func (s *Service) GetTransactionsToRefund(ctx context.Context, actor ports.Actor, query ports.TransactionQuery) (*ports.TransactionPage, error) {
	withStop := true
	filter, page, err := s.buildFilter(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	filter.WithStop = &withStop
	filter.ToRefund = true
	return s.search(ctx, actor, filter, page)
}

// GetTransactionsInError lists stopped sessions matching one of the
// inconsistency classes. When the caller names no classes, the default
// set depends on which optional components the tenant has enabled. The
// result is truncated to maxInErrorResults entries regardless of the
// requested page size.
func (s *Service) GetTransactionsInError(ctx context.Context, actor ports.Actor, query ports.TransactionQuery) (*ports.TransactionPage, error) {
	withStop := true
	filter, page, err := s.buildFilter(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	filter.WithStop = &withStop
	if len(filter.ErrorTypes) == 0 {
		filter.ErrorTypes, err = s.defaultErrorTypes(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}
	}
	result, err := s.search(ctx, actor, filter, page)
	if err != nil {
		return nil, err
	}
	if len(result.Items) > maxInErrorResults {
		result.Items = result.Items[:maxInErrorResults]
	}
	return result, nil
}

// GetTransactionsByStation lists the sessions of one charging station,
// active and stopped alike.
func (s *Service) GetTransactionsByStation(ctx context.Context, actor ports.Actor, stationID string, query ports.TransactionQuery) (*ports.TransactionPage, error) {
	if stationID == "" {
		return nil, domain.NewValidationError("chargeBoxId", "must not be empty")
	}
	query.ChargeBoxID = stationID
	filter, page, err := s.buildFilter(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, actor, filter, page)
}

// GetYearsWithData returns the years for which the tenant holds any
// transaction, for date-picker initialization.
func (s *Service) GetYearsWithData(ctx context.Context, actor ports.Actor) ([]int, error) {
	if !s.authz.Can(ctx, actor, ports.ActionList, ports.EntityTransactions, "") {
		return nil, &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionList),
			Entity: string(ports.EntityTransactions),
		}
	}
	return s.txRepo.YearsWithData(ctx, actor.TenantID)
}

// buildFilter enforces the listing capability and translates the
// externally-facing query into the canonical internal filter:
// pipe-delimited multi-value fields are split, and site admins are
// scoped down to the sites they administer.
func (s *Service) buildFilter(ctx context.Context, actor ports.Actor, query ports.TransactionQuery) (ports.TransactionFilter, ports.Pagination, error) {
	if !s.authz.Can(ctx, actor, ports.ActionList, ports.EntityTransactions, "") {
		return ports.TransactionFilter{}, ports.Pagination{}, &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionList),
			Entity: string(ports.EntityTransactions),
		}
	}

	filter := ports.TransactionFilter{
		ChargeBoxIDs: splitMulti(query.ChargeBoxID),
		UserIDs:      splitMulti(query.UserID),
		TagIDs:       splitMulti(query.TagID),
		SiteIDs:      splitMulti(query.SiteID),
		Issuer:       query.Issuer,
		StartedAt:    query.StartDateTime,
		EndedAt:      query.EndDateTime,
		Search:       query.Search,
	}
	for _, raw := range splitMulti(query.ConnectorID) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ports.TransactionFilter{}, ports.Pagination{}, domain.NewValidationError("connectorId", "must be a pipe-delimited list of integers")
		}
		filter.ConnectorIDs = append(filter.ConnectorIDs, id)
	}
	for _, raw := range splitMulti(query.ErrorType) {
		filter.ErrorTypes = append(filter.ErrorTypes, domain.TransactionErrorType(raw))
	}

	// Site admins only ever see the sites they administer, whatever the
	// query asked for.
	if actor.Role == domain.UserRoleSiteAdmin {
		if len(filter.SiteIDs) == 0 {
			filter.SiteIDs = actor.SiteIDs
		} else {
			filter.SiteIDs = intersect(filter.SiteIDs, actor.SiteIDs)
		}
	}

	return filter, ports.Pagination{Limit: query.Limit, Skip: query.Skip}, nil
}

// defaultErrorTypes derives the inconsistency classes worth reporting
// from the tenant's enabled components: pricing issues are only errors
// when pricing is on, billing issues only when billing is on.
func (s *Service) defaultErrorTypes(ctx context.Context, tenantID string) ([]domain.TransactionErrorType, error) {
	tenant, err := s.integrations.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	types := []domain.TransactionErrorType{
		domain.ErrorTypeNegativeActivity,
		domain.ErrorTypeNegativeDuration,
		domain.ErrorTypeOverConsumption,
		domain.ErrorTypeInvalidStartDate,
		domain.ErrorTypeNoConsumption,
		domain.ErrorTypeLowConsumption,
		domain.ErrorTypeLowDuration,
		domain.ErrorTypeMissingUser,
	}
	if tenant.Components.Pricing.Enabled {
		types = append(types, domain.ErrorTypeMissingPrice)
	}
	if tenant.Components.Billing.Enabled {
		types = append(types, domain.ErrorTypeNoBillingData)
	}
	return types, nil
}

func (s *Service) search(ctx context.Context, actor ports.Actor, filter ports.TransactionFilter, page ports.Pagination) (*ports.TransactionPage, error) {
	result, err := s.txRepo.Search(ctx, actor.TenantID, filter, page)
	if err != nil {
		return nil, err
	}
	for i := range result.Items {
		s.redact(ctx, actor, &result.Items[i])
	}
	return result, nil
}

// splitMulti splits a pipe-delimited multi-value parameter, dropping
// empty segments.
func splitMulti(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
