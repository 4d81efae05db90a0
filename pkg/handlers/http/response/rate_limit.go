package response

import (
	"strconv"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = fiber.HeaderRetryAfter

	CodeRateLimitError       = "RATE_LIMIT_ERROR"
	CodeRateLimitUnavailable = "RATE_LIMIT_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"

	UnavailableMessage = "Service temporarily unavailable"
	InternalMessage    = "Internal server error"
)

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
	}
}

// WriteBudgetHeaders annotates a response with the caller's remaining budget.
// Reset is the epoch millisecond at which the oldest counted request expires.
func WriteBudgetHeaders(c *fiber.Ctx, d domain.Decision) {
	c.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	c.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	c.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.UnixMilli(), 10))
}

func RateLimited(c *fiber.Ctx, d domain.Decision) error {
	WriteBudgetHeaders(c, d)
	c.Set(HeaderRateLimitRemaining, "0")
	c.Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfterSeconds()))
	return c.Status(fiber.StatusTooManyRequests).
		JSON(NewErrorResponse(CodeRateLimitError, d.Policy.DenyMessage))
}

func Unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).
		JSON(NewErrorResponse(CodeRateLimitUnavailable, UnavailableMessage))
}

func InternalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).
		JSON(NewErrorResponse(CodeInternalError, InternalMessage))
}
