package common

const (
	RequestIDHeader = "X-Request-Id"
)
