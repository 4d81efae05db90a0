package http

import (
	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type createAnalysisHandler struct {
	logger *logrus.Logger
}

func NewCreateAnalysisHandler(logger *logrus.Logger) Handler {
	return &createAnalysisHandler{logger: logger}
}

func (h *createAnalysisHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(response.NewErrorResponse("VALIDATION_ERROR", "analysis input is required"))
	}
	h.logger.WithField("input_bytes", len(body)).Debug("analysis requested")
	return c.Status(fiber.StatusOK).JSON(response.NewSuccessResponse(fiber.Map{
		"input_bytes": len(body),
		"status":      "completed",
	}))
}
