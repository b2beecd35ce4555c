package analytics

import (
	"context"

	"github.com/shopspring/decimal"
)

// PurchaseItem is a line of a confirmed purchase, already priced per unit.
type PurchaseItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// Purchase describes a confirmed PIX payment used for conversion tracking.
type Purchase struct {
	TransactionID string
	Amount        decimal.Decimal
	Items         []PurchaseItem
	TotalItems    int
}

// Tracker reports a completed purchase to the analytics backend.
type Tracker interface {
	TrackPurchase(ctx context.Context, p Purchase) error
}
