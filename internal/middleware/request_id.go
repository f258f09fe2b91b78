package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestIDKey struct{}

var requestKey = requestIDKey{}

// RequestID middleware ensures every request carries an identifier that is
// echoed back to the client and forwarded to the sandbox runner.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get("X-Request-ID"))
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals("request_id", incoming)
		c.Set("X-Request-ID", incoming)

		ctx := context.WithValue(c.Context(), requestKey, incoming)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequestIDFromContext extracts the request identifier from context, if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value := ctx.Value(requestKey); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestID returns the request identifier bound to the active request.
func GetRequestID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if value := c.Locals("request_id"); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return RequestIDFromContext(c.Context())
}
