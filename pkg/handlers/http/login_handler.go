package http

import (
	"sync/atomic"

	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginHandler struct {
	logger   *logrus.Logger
	attempts atomic.Int64
}

func NewLoginHandler(logger *logrus.Logger) *LoginHandler {
	return &LoginHandler{logger: logger}
}

// Attempts is the number of login attempts that reached the handler.
func (h *LoginHandler) Attempts() int64 {
	return h.attempts.Load()
}

func (h *LoginHandler) Handle(c *fiber.Ctx) error {
	h.attempts.Add(1)

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(response.NewErrorResponse("VALIDATION_ERROR", "username and password are required"))
	}

	h.logger.WithField("username", req.Username).Debug("login attempt")
	return c.Status(fiber.StatusOK).JSON(response.NewSuccessResponse(fiber.Map{
		"authenticated": true,
		"username":      req.Username,
	}))
}
