package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemSummary is a decoupled name/qty/price snapshot of one cart line at
// the time the payment was created. It never references live cart state.
type ItemSummary struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PendingOrder is a payment attempt awaiting user confirmation.
type PendingOrder struct {
	TransactionID  string          `json:"transactionId"`
	PixCode        string          `json:"pixCode"`
	PixQRCodeImage string          `json:"pixQrCodeImage,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Items          []ItemSummary   `json:"items"`
	CustomerName   string          `json:"customerName"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Remaining is the time left inside the validity window, clamped at zero.
// Display only: expiry correctness comes from the lazy sweep on reads.
func (o PendingOrder) Remaining(now time.Time) time.Duration {
	left := Expiry - now.Sub(o.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}
