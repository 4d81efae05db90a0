package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var ErrMissingHandler = errors.New("router is missing a handler")

type ServerRouter interface {
	BuildRoutes(router *fiber.App) error
}
