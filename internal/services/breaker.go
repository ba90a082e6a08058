package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"

	"github.com/desertthunder/tunedash/internal/shared"
)

func newBreaker(cfg shared.BreakerConfig, logger func() *log.Logger) *gobreaker.CircuitBreaker[*APIResponse] {
	threshold := max(cfg.FailureThreshold, 1)

	return gobreaker.NewCircuitBreaker[*APIResponse](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: max(cfg.MaxRequests, 1),
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(max(cfg.TimeoutSeconds, 1)) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger().Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		// A cancelled request says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}
