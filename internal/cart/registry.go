package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoCart is returned when an operation references a cart scope that was
// never created (or was already dropped). This is a caller configuration
// error, not a recoverable condition.
var ErrNoCart = errors.New("no cart registered for this scope")

// Registry tracks live cart scopes by id.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		carts: make(map[string]*Cart),
		now:   time.Now,
	}
}

// Create registers a new empty cart scope.
func (r *Registry) Create() *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := newCart(uuid.NewString(), r.now)
	r.carts[c.id] = c
	return c
}

// Get fails fast with ErrNoCart for unknown scopes.
func (r *Registry) Get(id string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, ErrNoCart
	}
	return c, nil
}

// Drop forgets a cart scope.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id)
}
