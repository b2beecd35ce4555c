package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseCompletedEventName    = "PurchaseCompleted"
	PurchaseCompletedEventVersion = 1

	AdsConversionEventName    = "AdsConversion"
	AdsConversionEventVersion = 1

	StorefrontProducer = "storefront"
)

// EventEnvelope wraps a tracking payload with delivery metadata.
type EventEnvelope struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload"`
}

type PurchaseItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PurchaseCompletedPayload is the generic "purchase completed" signal.
type PurchaseCompletedPayload struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Items         []PurchaseItem  `json:"items"`
	TotalItems    int             `json:"totalItems"`
}

// AdsConversionPayload is the platform-specific conversion signal.
type AdsConversionPayload struct {
	SendTo        string          `json:"sendTo"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

type EnvelopeOptions struct {
	EventID       string
	CorrelationID string
	Producer      string
	OccurredAt    time.Time
}

func newEnvelope(name string, version int, partitionKey string, payload any, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	producer := opts.Producer
	if producer == "" {
		producer = StorefrontProducer
	}
	return EventEnvelope{
		EventName:     name,
		EventVersion:  version,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		Producer:      producer,
		PartitionKey:  partitionKey,
		OccurredAt:    occurredAt,
		Payload:       payload,
	}
}

// BuildPurchaseCompletedEvent envelopes a purchase signal, partitioned by
// transaction id so duplicate-sensitive consumers can dedupe.
func BuildPurchaseCompletedEvent(p PurchaseCompletedPayload, opts EnvelopeOptions) EventEnvelope {
	return newEnvelope(PurchaseCompletedEventName, PurchaseCompletedEventVersion, p.TransactionID, p, opts)
}

// BuildAdsConversionEvent envelopes a conversion signal.
func BuildAdsConversionEvent(p AdsConversionPayload, opts EnvelopeOptions) EventEnvelope {
	return newEnvelope(AdsConversionEventName, AdsConversionEventVersion, p.TransactionID, p, opts)
}
