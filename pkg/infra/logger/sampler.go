package logger

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Sampler caps how often a noisy log line is written. Suppressed lines are
// counted and reported with the next line that gets through.
type Sampler struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

func NewSampler(every time.Duration, burst int) *Sampler {
	if burst < 1 {
		burst = 1
	}
	return &Sampler{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Allow reports whether the caller should log, and if so how many lines were
// suppressed since the last one.
func (s *Sampler) Allow() (bool, int64) {
	if s == nil {
		return true, 0
	}
	if !s.limiter.Allow() {
		s.suppressed.Add(1)
		return false, 0
	}
	return true, s.suppressed.Swap(0)
}
