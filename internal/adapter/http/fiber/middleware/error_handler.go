package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
)

// ErrorHandler maps the domain error taxonomy onto HTTP statuses:
// validation 400, authorization 403, not found 404, conflict 409,
// integration unavailable 503. Everything else is a 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var (
			validationErr  *domain.ValidationError
			authzErr       *domain.AuthorizationError
			notFoundErr    *domain.NotFoundError
			conflictErr    *domain.ConflictError
			integrationErr *domain.IntegrationUnavailableError
			fiberErr       *fiber.Error
		)
		switch {
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
		case errors.As(err, &authzErr):
			code = fiber.StatusForbidden
		case errors.As(err, &notFoundErr):
			code = fiber.StatusNotFound
		case errors.As(err, &conflictErr):
			code = fiber.StatusConflict
		case errors.As(err, &integrationErr):
			code = fiber.StatusServiceUnavailable
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
