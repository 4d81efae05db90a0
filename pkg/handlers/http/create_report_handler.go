package http

import (
	"time"

	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type createReportHandler struct {
	logger       *logrus.Logger
	uuidProvider func() uuid.UUID
}

func NewCreateReportHandler(logger *logrus.Logger) Handler {
	return &createReportHandler{
		logger:       logger,
		uuidProvider: uuid.New,
	}
}

func (h *createReportHandler) Handle(c *fiber.Ctx) error {
	id := h.uuidProvider().String()
	h.logger.WithField("report_id", id).Info("report generation queued")
	return c.Status(fiber.StatusAccepted).JSON(response.NewSuccessResponse(fiber.Map{
		"report_id": id,
		"status":    "queued",
		"queued_at": time.Now().UTC().Format(time.RFC3339),
	}))
}
