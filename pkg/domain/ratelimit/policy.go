package ratelimit

import "time"

type Category string

const (
	CategoryGeneralAPI         Category = "general-api"
	CategoryAuthentication     Category = "authentication"
	CategoryRealtimeConnection Category = "realtime-connection"
	CategoryReportGeneration   Category = "report-generation"
	CategoryMarketData         Category = "market-data"
	CategoryAnalysis           Category = "analysis"
)

func (c Category) String() string {
	return string(c)
}

// FailureMode decides what happens to a request when the counter store
// cannot be reached.
type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// Policy is a named admission budget. Policies are built once at boot and
// never mutated afterwards.
type Policy struct {
	Category    Category
	Window      time.Duration
	MaxRequests int
	DenyMessage string
	FailureMode FailureMode
}

func (p Policy) FailsOpen() bool {
	return p.FailureMode == FailOpen
}

// LimitKey partitions counting. Two distinct keys never share state.
type LimitKey string

func (k LimitKey) String() string {
	return string(k)
}
