package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// StorageKey is the single well-known key holding the serialized orders.
	StorageKey = "pending_pix_orders"

	// Expiry is the fixed validity window of a payment attempt.
	Expiry = 60 * time.Minute

	// pollInterval drives the watch-side poll that catches passive expiry.
	pollInterval = 5 * time.Second
)

// Ledger is the client-local record of payment attempts awaiting
// confirmation. It is deliberately decoupled from the cart: clearing the
// cart never touches it, and removing an order never touches the cart.
type Ledger struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Pending returns all non-expired orders, lazily purging (and persisting
// the purge of) any order older than the validity window. A corrupted or
// absent blob yields an empty list, never an error.
func (l *Ledger) Pending(ctx context.Context) []PendingOrder {
	raw, err := l.store.Get(ctx, StorageKey)
	if err != nil {
		return nil
	}

	var orders []PendingOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil
	}

	now := l.now()
	valid := orders[:0]
	for _, o := range orders {
		if now.Sub(o.CreatedAt) < Expiry {
			valid = append(valid, o)
		}
	}
	if len(valid) != len(orders) {
		// Persist the sweep; if the write fails the next read sweeps again.
		_ = l.persist(ctx, valid)
	}
	return valid
}

// Save appends an order unless one with the same transaction id already
// exists (idempotent insert).
func (l *Ledger) Save(ctx context.Context, order PendingOrder) error {
	orders := l.Pending(ctx)
	for _, o := range orders {
		if o.TransactionID == order.TransactionID {
			return nil
		}
	}
	orders = append(orders, order)
	return l.persist(ctx, orders)
}

// Remove filters an order out; no-op if absent.
func (l *Ledger) Remove(ctx context.Context, transactionID string) error {
	orders := l.Pending(ctx)
	kept := orders[:0]
	for _, o := range orders {
		if o.TransactionID != transactionID {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(orders) {
		return nil
	}
	return l.persist(ctx, kept)
}

func (l *Ledger) persist(ctx context.Context, orders []PendingOrder) error {
	if orders == nil {
		orders = []PendingOrder{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal pending orders: %w", err)
	}
	return l.store.Set(ctx, StorageKey, raw)
}

// Watch emits the pending-order count whenever another handle writes the
// ledger, and on a short poll so passive expiry is eventually observed.
// The channel is closed when ctx is done.
func (l *Ledger) Watch(ctx context.Context) (<-chan int, error) {
	changes, err := l.store.Watch(ctx, StorageKey)
	if err != nil {
		return nil, err
	}

	out := make(chan int, 1)
	emit := func() {
		count := len(l.Pending(ctx))
		select {
		case out <- count:
		default:
			// Drop stale counts; the next tick re-emits.
			select {
			case <-out:
			default:
			}
			select {
			case out <- count:
			default:
			}
		}
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			case _, ok := <-changes:
				if !ok {
					return
				}
				emit()
			}
		}
	}()
	return out, nil
}
