package cart

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/catalog"
)

const (
	maxObservationLen = 140

	comboName        = "Combo 30% OFF"
	comboCategory    = "combo"
	placeholderImage = "/placeholder.svg"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrObservationTooLong = fmt.Errorf("observation exceeds %d characters", maxObservationLen)
)

// Cart owns the mutable list of line items for one storefront session.
// Totals are recomputed on every read; nothing is cached.
type Cart struct {
	mu             sync.Mutex
	id             string
	items          []LineItem
	freeAdditional *catalog.Additional
	now            func() time.Time
}

func newCart(id string, now func() time.Time) *Cart {
	return &Cart{id: id, now: now}
}

func (c *Cart) ID() string {
	return c.id
}

// AddItem appends a regular line, or merges into an existing line for the
// same product id by summing quantities. On merge the pre-existing line's
// additionals and observation are kept untouched (first-write wins).
func (c *Cart) AddItem(p catalog.Product, quantity int, additionals []AdditionalSelection, observation string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if len([]rune(observation)) > maxObservationLen {
		return ErrObservationTooLong
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity += quantity
			return nil
		}
	}

	c.items = append(c.items, LineItem{
		Product:     p,
		Quantity:    quantity,
		Additionals: additionals,
		Observation: observation,
	})
	return nil
}

// AddCombo synthesizes a combo pseudo-product and appends it as a new line
// with quantity fixed at 1. The engine itself allows multiple combo lines;
// the caller is responsible for surfacing only one upsell slot at a time.
func (c *Cart) AddCombo(items ComboItems, comboPrice decimal.Decimal) LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := items.All()
	parts := make([]string, 0, len(all))
	for _, s := range all {
		parts = append(parts, fmt.Sprintf("%dx %s", s.Qty, s.Product.Name))
	}

	image := placeholderImage
	if len(items.Spirits) > 0 && items.Spirits[0].Product.Image != "" {
		image = items.Spirits[0].Product.Image
	}

	comboItems := items
	line := LineItem{
		Product: catalog.Product{
			ID:          fmt.Sprintf("combo-%d", c.now().UnixMilli()),
			Name:        comboName,
			Description: strings.Join(parts, " + "),
			Price:       comboPrice,
			Image:       image,
			Category:    comboCategory,
		},
		Quantity:   1,
		IsCombo:    true,
		ComboPrice: comboPrice,
		ComboItems: &comboItems,
	}
	c.items = append(c.items, line)
	return line
}

// RemoveItem deletes the line with the given product id; no-op if absent.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID string) {
	kept := c.items[:0]
	for _, li := range c.items {
		if li.Product.ID != productID {
			kept = append(kept, li)
		}
	}
	c.items = kept
}

// UpdateQuantity sets a line's quantity; a requested quantity of zero or
// less removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(productID)
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties all lines and resets the free-additional marker. This is
// the only path that releases a consumed free-additional entitlement.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.freeAdditional = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Line looks up a single line by product id.
func (c *Cart) Line(productID string) (LineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, li := range c.items {
		if li.Product.ID == productID {
			return li, true
		}
	}
	return LineItem{}, false
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, li := range c.items {
		total += li.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, li := range c.items {
		total = total.Add(li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total
}

// ComboLine returns the first combo line, if any.
func (c *Cart) ComboLine() (LineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, li := range c.items {
		if li.IsCombo {
			return li, true
		}
	}
	return LineItem{}, false
}

func (c *Cart) HasCombo() bool {
	_, ok := c.ComboLine()
	return ok
}

// FreeAdditional reports which additional, if any, was granted for free in
// this cart session.
func (c *Cart) FreeAdditional() *catalog.Additional {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.freeAdditional == nil {
		return nil
	}
	a := *c.freeAdditional
	return &a
}

// SetFreeAdditional records the one-time free-additional entitlement for
// the whole cart session. Removing the line that earned it does not
// release the slot; only Clear does.
func (c *Cart) SetFreeAdditional(a *catalog.Additional) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a == nil {
		c.freeAdditional = nil
		return
	}
	cp := *a
	c.freeAdditional = &cp
}
