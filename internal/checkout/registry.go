package checkout

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/analytics"
	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/ledger"
)

var ErrNoCheckout = errors.New("checkout session not found")

// Deps are the collaborators a checkout session needs.
type Deps struct {
	Payments PaymentCreator
	Orders   *ledger.Ledger
	Flags    ledger.Store
	Tracker  analytics.Tracker
	Logger   *log.Logger
	MinOrder decimal.Decimal

	now func() time.Time
}

// Registry holds the in-memory checkout sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Checkout
	deps     Deps
}

func NewRegistry(deps Deps) *Registry {
	if deps.now == nil {
		deps.now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Checkout),
		deps:     deps,
	}
}

// Start opens a checkout session for the cart, rejecting carts below the
// minimum order value. The cart contents are snapshotted on entry.
func (r *Registry) Start(c *cart.Cart) (*Checkout, error) {
	total := c.TotalPrice()
	if total.LessThan(r.deps.MinOrder) {
		return nil, &BelowMinimumError{
			Minimum:   r.deps.MinOrder,
			Remaining: r.deps.MinOrder.Sub(total),
		}
	}

	var items []ledger.ItemSummary
	for _, li := range c.Items() {
		items = append(items, ledger.ItemSummary{
			Name:     li.Product.Name,
			Quantity: li.Quantity,
			Price:    li.UnitPrice(),
		})
	}

	session := &Checkout{
		id:     uuid.NewString(),
		step:   StepForm,
		cart:   c,
		amount: total,
		items:  items,
		deps:   r.deps,
	}

	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()

	return session, nil
}

func (r *Registry) Get(id string) (*Checkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNoCheckout
	}
	return session, nil
}

// Drop removes a finished session from the registry.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
