package http

import (
	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
)

type apiHandler struct{}

// NewAPIHandler answers every general API route with the method and path it
// received.
func NewAPIHandler() Handler {
	return &apiHandler{}
}

func (h *apiHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(response.NewSuccessResponse(fiber.Map{
		"method": c.Method(),
		"path":   c.Path(),
	}))
}
