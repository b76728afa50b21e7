package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
	"github.com/voltgrid/voltgrid/pkg/config"
)

const actorKey = "actor"

// claims is the token payload issued by the identity service. The
// subject carries the user id.
type claims struct {
	TenantID string   `json:"tenant_id"`
	Role     string   `json:"role"`
	SiteIDs  []string `json:"site_ids,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and resolves the acting
// user into a ports.Actor for the handlers.
func AuthRequired(cfg config.JWTConfig) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		token, err := jwt.ParseWithClaims(parts[1], &claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		cl := token.Claims.(*claims)
		if cl.Subject == "" || cl.TenantID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token misses subject or tenant"})
		}

		c.Locals(actorKey, ports.Actor{
			UserID:   cl.Subject,
			TenantID: cl.TenantID,
			Role:     domain.UserRole(cl.Role),
			SiteIDs:  cl.SiteIDs,
		})

		return c.Next()
	}
}

// ActorFromContext returns the actor resolved by AuthRequired. The
// zero Actor is returned on routes that skipped authentication.
func ActorFromContext(c *fiber.Ctx) ports.Actor {
	actor, _ := c.Locals(actorKey).(ports.Actor)
	return actor
}
