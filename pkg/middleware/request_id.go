package middleware

import (
	"context"

	"github.com/NeuralTrust/AdmissionGate/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestIDMiddleware struct {
	uuidProvider func() uuid.UUID
}

// NewRequestIDMiddleware keeps a caller supplied X-Request-Id or mints one,
// and echoes it on the response.
func NewRequestIDMiddleware() Middleware {
	return &requestIDMiddleware{uuidProvider: uuid.New}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(common.RequestIDHeader)
		if id == "" {
			id = m.uuidProvider().String()
		}
		c.Set(common.RequestIDHeader, id)
		c.Locals(common.RequestIDKey, id)
		c.SetUserContext(context.WithValue(c.UserContext(), common.RequestIDKey, id))
		return c.Next()
	}
}

// RequestID returns the id assigned by the request id middleware, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(common.RequestIDKey).(string)
	return id
}
