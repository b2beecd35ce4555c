package combo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/catalog"
)

// Step identifies the wizard position.
type Step string

const (
	StepPreview      Step = "preview"
	StepSpirits      Step = "spirits"
	StepFlavoredIce  Step = "flavored-ice"
	StepEnergyDrinks Step = "energy-drinks"
	StepConfirm      Step = "confirm"
)

func (s Step) String() string {
	return string(s)
}

// Category returns the combo category picked at this step, if any.
func (s Step) Category() (catalog.ComboCategory, bool) {
	switch s {
	case StepSpirits:
		return catalog.ComboSpirits, true
	case StepFlavoredIce:
		return catalog.ComboFlavoredIce, true
	case StepEnergyDrinks:
		return catalog.ComboEnergyDrinks, true
	default:
		return "", false
	}
}

func stepFor(category catalog.ComboCategory) (Step, bool) {
	switch category {
	case catalog.ComboSpirits:
		return StepSpirits, true
	case catalog.ComboFlavoredIce:
		return StepFlavoredIce, true
	case catalog.ComboEnergyDrinks:
		return StepEnergyDrinks, true
	default:
		return "", false
	}
}

// discountRate is the flat bundle discount: the combo always costs 70% of
// the summed catalog prices.
var discountRate = decimal.RequireFromString("0.7")

// Quote is the pricing of the current selection. Pure function of the
// selection; recomputed on every call.
type Quote struct {
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	ComboPrice    decimal.Decimal `json:"comboPrice"`
	Savings       decimal.Decimal `json:"savings"`
}

// QuoteSelections prices an arbitrary set of combo selections.
func QuoteSelections(selections []cart.Selection) Quote {
	original := decimal.Zero
	for _, s := range selections {
		original = original.Add(s.Product.Price.Mul(decimal.NewFromInt(int64(s.Qty))))
	}
	price := original.Mul(discountRate)
	return Quote{
		OriginalTotal: original,
		ComboPrice:    price,
		Savings:       original.Sub(price),
	}
}

var (
	ErrNotCombo        = errors.New("line item is not a combo")
	ErrEmptyCategory   = errors.New("select at least one item to continue")
	ErrIncompleteCombo = errors.New("all three combo categories must be non-empty")
)

// TransitionError reports an operation invoked at the wrong wizard step.
type TransitionError struct {
	Step Step
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from step %q", e.Op, e.Step)
}

// Builder is the guided combo wizard for a single cart scope. Not safe for
// concurrent use; callers serialize access per scope.
type Builder struct {
	store      catalog.Store
	step       Step
	quantities map[string]int

	// editingLineID holds the cart line being replaced in edit mode.
	editingLineID string
}

// NewBuilder starts a wizard at the preview slot.
func NewBuilder(store catalog.Store) *Builder {
	return &Builder{
		store:      store,
		step:       StepPreview,
		quantities: make(map[string]int),
	}
}

// NewEditBuilder re-enters the wizard at the confirm step, pre-seeded with
// an existing combo line's quantities. Committing replaces that line.
func NewEditBuilder(store catalog.Store, line cart.LineItem) (*Builder, error) {
	if !line.IsCombo || line.ComboItems == nil {
		return nil, ErrNotCombo
	}
	b := &Builder{
		store:         store,
		step:          StepConfirm,
		quantities:    make(map[string]int),
		editingLineID: line.Product.ID,
	}
	for _, s := range line.ComboItems.All() {
		b.quantities[s.Product.ID] = s.Qty
	}
	return b, nil
}

func (b *Builder) Step() Step {
	return b.step
}

func (b *Builder) Editing() bool {
	return b.editingLineID != ""
}

func (b *Builder) Quantity(productID string) int {
	return b.quantities[productID]
}

// SetQuantity floors at zero; there is no declared maximum per item.
func (b *Builder) SetQuantity(productID string, qty int) {
	if qty < 0 {
		qty = 0
	}
	if qty == 0 {
		delete(b.quantities, productID)
		return
	}
	b.quantities[productID] = qty
}

// Start moves from the preview slot into the first category step.
func (b *Builder) Start() error {
	if b.step != StepPreview {
		return &TransitionError{Step: b.step, Op: "start"}
	}
	b.step = StepSpirits
	return nil
}

// Selections returns the (product, qty>0) picks for one category, in
// catalog order.
func (b *Builder) Selections(category catalog.ComboCategory) []cart.Selection {
	var out []cart.Selection
	for _, p := range b.store.ComboProducts(category) {
		if qty := b.quantities[p.ID]; qty > 0 {
			out = append(out, cart.Selection{Product: p, Qty: qty})
		}
	}
	return out
}

// AllSelections flattens every category's picks in wizard order.
func (b *Builder) AllSelections() []cart.Selection {
	var out []cart.Selection
	for _, cat := range catalog.ComboCategories {
		out = append(out, b.Selections(cat)...)
	}
	return out
}

// CanAdvance reports whether the current category step has at least one
// selected item.
func (b *Builder) CanAdvance() bool {
	cat, ok := b.step.Category()
	if !ok {
		return false
	}
	return len(b.Selections(cat)) > 0
}

// Next advances one category step, or into confirm after the last one.
func (b *Builder) Next() error {
	if _, ok := b.step.Category(); !ok {
		return &TransitionError{Step: b.step, Op: "advance"}
	}
	if !b.CanAdvance() {
		return ErrEmptyCategory
	}
	switch b.step {
	case StepSpirits:
		b.step = StepFlavoredIce
	case StepFlavoredIce:
		b.step = StepEnergyDrinks
	case StepEnergyDrinks:
		b.step = StepConfirm
	}
	return nil
}

// Edit jumps from confirm back into a category step.
func (b *Builder) Edit(category catalog.ComboCategory) error {
	if b.step != StepConfirm {
		return &TransitionError{Step: b.step, Op: "edit"}
	}
	step, ok := stepFor(category)
	if !ok {
		return fmt.Errorf("unknown combo category %q", category)
	}
	b.step = step
	return nil
}

// CanConfirm requires all three categories to be non-empty.
func (b *Builder) CanConfirm() bool {
	for _, cat := range catalog.ComboCategories {
		if len(b.Selections(cat)) == 0 {
			return false
		}
	}
	return true
}

// Quote prices the full current selection.
func (b *Builder) Quote() Quote {
	return QuoteSelections(b.AllSelections())
}

// Commit hands the selection to the cart engine and resets the wizard. In
// edit mode the old combo line is removed first, then the new one added;
// there is no in-place update.
func (b *Builder) Commit(c *cart.Cart) (cart.LineItem, error) {
	if b.step != StepConfirm {
		return cart.LineItem{}, &TransitionError{Step: b.step, Op: "confirm"}
	}
	if !b.CanConfirm() {
		return cart.LineItem{}, ErrIncompleteCombo
	}

	items := cart.ComboItems{
		Spirits:      b.Selections(catalog.ComboSpirits),
		FlavoredIce:  b.Selections(catalog.ComboFlavoredIce),
		EnergyDrinks: b.Selections(catalog.ComboEnergyDrinks),
	}
	quote := b.Quote()

	if b.editingLineID != "" {
		c.RemoveItem(b.editingLineID)
	}
	line := c.AddCombo(items, quote.ComboPrice)

	b.step = StepPreview
	b.quantities = make(map[string]int)
	b.editingLineID = ""
	return line, nil
}
