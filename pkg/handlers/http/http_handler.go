package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

// HandlerTransport groups the business handlers that sit behind admission
// control. They are stand-ins for the real collaborators.
type HandlerTransport struct {
	LoginHandler          Handler
	CreateReportHandler   Handler
	GetMarketDataHandler  Handler
	CreateAnalysisHandler Handler
	APIHandler            Handler
}
