package analytics

import (
	"context"
	"log"
)

// NoopTracker logs purchases instead of publishing them. Used when no broker
// is configured.
type NoopTracker struct {
	logger *log.Logger
}

func NewNoopTracker(logger *log.Logger) *NoopTracker {
	return &NoopTracker{logger: logger}
}

func (t *NoopTracker) TrackPurchase(_ context.Context, p Purchase) error {
	t.logger.Printf("purchase tracked (noop): tx=%s amount=%s items=%d", p.TransactionID, p.Amount.StringFixed(2), p.TotalItems)
	return nil
}
