package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/foliadelivery/storefront/internal/contracts"
	"github.com/foliadelivery/storefront/internal/middleware"
)

const (
	EventsExchange = "storefront.events"

	PurchaseCompletedRoutingKey = "purchase.completed.v1"
	AdsConversionRoutingKey     = "ads.conversion.v1"

	currencyBRL = "BRL"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// RabbitTracker publishes one PurchaseCompleted and one AdsConversion event
// per confirmed payment.
type RabbitTracker struct {
	ch     *amqp.Channel
	sendTo string
}

func NewRabbitTracker(conn *amqp.Connection, sendTo string) (*RabbitTracker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &RabbitTracker{ch: ch, sendTo: sendTo}, nil
}

func (t *RabbitTracker) Close() error {
	return t.ch.Close()
}

func (t *RabbitTracker) TrackPurchase(ctx context.Context, p Purchase) error {
	opts := contracts.EnvelopeOptions{CorrelationID: middleware.CorrelationIDFromContext(ctx)}

	purchase := contracts.PurchaseCompletedPayload{
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      currencyBRL,
		TotalItems:    p.TotalItems,
	}
	for _, it := range p.Items {
		purchase.Items = append(purchase.Items, contracts.PurchaseItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	env := contracts.BuildPurchaseCompletedEvent(purchase, opts)
	if err := t.publishJSON(ctx, PurchaseCompletedRoutingKey, env); err != nil {
		return fmt.Errorf("publish PurchaseCompleted: %w", err)
	}

	conversion := contracts.AdsConversionPayload{
		SendTo:        t.sendTo,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      currencyBRL,
	}

	env = contracts.BuildAdsConversionEvent(conversion, opts)
	if err := t.publishJSON(ctx, AdsConversionRoutingKey, env); err != nil {
		return fmt.Errorf("publish AdsConversion: %w", err)
	}
	return nil
}

func (t *RabbitTracker) publishJSON(ctx context.Context, routingKey string, env contracts.EventEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.EventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return t.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
