package http

import (
	"strings"
	"time"

	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
)

type getMarketDataHandler struct{}

func NewGetMarketDataHandler() Handler {
	return &getMarketDataHandler{}
}

func (h *getMarketDataHandler) Handle(c *fiber.Ctx) error {
	resource := strings.Trim(c.Params("*"), "/")
	if resource == "" {
		resource = "summary"
	}
	return c.Status(fiber.StatusOK).JSON(response.NewSuccessResponse(fiber.Map{
		"resource": resource,
		"as_of":    time.Now().UTC().Format(time.RFC3339),
	}))
}
