package handlers

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/adapter/export"
	"github.com/voltgrid/voltgrid/internal/adapter/http/fiber/middleware"
	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

type TransactionHandler struct {
	service    ports.TransactionService
	authorizer ports.Authorizer
	users      ports.UserRepository
	log        *zap.Logger
}

func NewTransactionHandler(service ports.TransactionService, authorizer ports.Authorizer, users ports.UserRepository, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service:    service,
		authorizer: authorizer,
		users:      users,
		log:        log,
	}
}

// RegisterRoutes mounts the transaction API under the given router.
func (h *TransactionHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/transactions")
	g.Get("/active", h.GetActive)
	g.Get("/completed", h.GetCompleted)
	g.Get("/to-refund", h.GetToRefund)
	g.Get("/in-error", h.GetInError)
	g.Get("/years", h.GetYears)
	g.Get("/export", h.Export)
	g.Get("/unassigned/count", h.CountUnassigned)
	g.Put("/unassigned/assign", h.Reassign)
	g.Post("/refund", h.SubmitRefunds)
	g.Delete("/", h.Delete)
	g.Get("/station/:stationID", h.GetByStation)
	g.Get("/:id", h.Get)
	g.Put("/:id/cdr", h.PushCDR)
	g.Put("/:id/consumption", h.RebuildConsumption)
}

type batchRequest struct {
	TransactionIDs []int `json:"transactionsIDs"`
}

func (h *TransactionHandler) SubmitRefunds(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("transactionsIDs", "invalid request body")
	}

	result, err := h.service.SubmitRefunds(c.Context(), middleware.ActorFromContext(c), req.TransactionIDs)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("transactionsIDs", "invalid request body")
	}

	result, err := h.service.DeleteTransactions(c.Context(), middleware.ActorFromContext(c), req.TransactionIDs)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *TransactionHandler) PushCDR(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return domain.NewValidationError("id", "must be an integer")
	}

	if err := h.service.PushCDR(c.Context(), middleware.ActorFromContext(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "Success"})
}

func (h *TransactionHandler) RebuildConsumption(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return domain.NewValidationError("id", "must be an integer")
	}

	samples, err := h.service.RebuildConsumption(c.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "Success", "samples": samples})
}

type reassignRequest struct {
	UserID string `json:"userID"`
}

func (h *TransactionHandler) Reassign(c *fiber.Ctx) error {
	var req reassignRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("userID", "invalid request body")
	}

	assigned, err := h.service.ReassignTransactions(c.Context(), middleware.ActorFromContext(c), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "Success", "count": assigned})
}

func (h *TransactionHandler) CountUnassigned(c *fiber.Ctx) error {
	count, err := h.service.CountUnassigned(c.Context(), middleware.ActorFromContext(c), c.Query("userID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return domain.NewValidationError("id", "must be an integer")
	}

	tx, err := h.service.GetTransaction(c.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(tx)
}

func (h *TransactionHandler) GetActive(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.GetActiveTransactions(c.Context(), middleware.ActorFromContext(c), query)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

func (h *TransactionHandler) GetCompleted(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.GetCompletedTransactions(c.Context(), middleware.ActorFromContext(c), query)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

func (h *TransactionHandler) GetToRefund(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.GetTransactionsToRefund(c.Context(), middleware.ActorFromContext(c), query)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

func (h *TransactionHandler) GetInError(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.GetTransactionsInError(c.Context(), middleware.ActorFromContext(c), query)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

func (h *TransactionHandler) GetByStation(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.GetTransactionsByStation(c.Context(), middleware.ActorFromContext(c), c.Params("stationID"), query)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

func (h *TransactionHandler) GetYears(c *fiber.Ctx) error {
	years, err := h.service.GetYearsWithData(c.Context(), middleware.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"years": years})
}

const exportPageSize = 500

// Export streams the completed transactions matching the query as CSV.
// It pages through the full result set server-side, the query limit is
// ignored.
func (h *TransactionHandler) Export(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	if !h.authorizer.Can(c.Context(), actor, ports.ActionExport, ports.EntityTransactions, "") {
		return &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionExport),
			Entity: string(ports.EntityTransactions),
		}
	}

	query, err := parseQuery(c)
	if err != nil {
		return err
	}
	query.Limit = exportPageSize
	query.Skip = 0

	names := map[string]string{}
	resolver := func(userID string) string {
		if name, ok := names[userID]; ok {
			return name
		}
		name := ""
		if user, err := h.users.FindByID(c.Context(), actor.TenantID, userID); err == nil && user != nil {
			name = user.FullName()
		}
		names[userID] = name
		return name
	}

	var txs []domain.Transaction
	for {
		page, err := h.service.GetCompletedTransactions(c.Context(), actor, query)
		if err != nil {
			return err
		}
		txs = append(txs, page.Items...)
		if len(page.Items) < exportPageSize {
			break
		}
		query.Skip += exportPageSize
	}

	var buf bytes.Buffer
	if err := export.NewCSVWriter(&buf, resolver).Write(txs); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="transactions.csv"`)
	return c.Send(buf.Bytes())
}

func pageEnvelope(page *ports.TransactionPage) fiber.Map {
	return fiber.Map{
		"result": page.Items,
		"count":  page.Total,
	}
}

func parseQuery(c *fiber.Ctx) (ports.TransactionQuery, error) {
	query := ports.TransactionQuery{
		ChargeBoxID: c.Query("chargeBoxID"),
		ConnectorID: c.Query("connectorID"),
		UserID:      c.Query("userID"),
		SiteID:      c.Query("siteID"),
		TagID:       c.Query("tagID"),
		ErrorType:   c.Query("errorType"),
		Search:      c.Query("search"),
		Limit:       c.QueryInt("limit"),
		Skip:        c.QueryInt("skip"),
	}

	if raw := c.Query("issuer"); raw != "" {
		issuer, err := strconv.ParseBool(raw)
		if err != nil {
			return query, domain.NewValidationError("issuer", "must be a boolean")
		}
		query.Issuer = &issuer
	}
	if raw := c.Query("startDateTime"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, domain.NewValidationError("startDateTime", "must be RFC 3339")
		}
		query.StartDateTime = &start
	}
	if raw := c.Query("endDateTime"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, domain.NewValidationError("endDateTime", "must be RFC 3339")
		}
		query.EndDateTime = &end
	}

	return query, nil
}
