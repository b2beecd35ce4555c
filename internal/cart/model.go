package cart

import (
	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/catalog"
)

// AdditionalSelection attaches an additional and a quantity to a line item.
type AdditionalSelection struct {
	Additional catalog.Additional `json:"additional"`
	Quantity   int                `json:"quantity"`
}

// Selection is one (product, qty) pick inside a combo group.
type Selection struct {
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
}

// ComboItems groups the combo picks by their fixed categories.
type ComboItems struct {
	Spirits      []Selection `json:"spirits"`
	FlavoredIce  []Selection `json:"flavoredIce"`
	EnergyDrinks []Selection `json:"energyDrinks"`
}

// All flattens the three groups in category order.
func (ci ComboItems) All() []Selection {
	out := make([]Selection, 0, len(ci.Spirits)+len(ci.FlavoredIce)+len(ci.EnergyDrinks))
	out = append(out, ci.Spirits...)
	out = append(out, ci.FlavoredIce...)
	out = append(out, ci.EnergyDrinks...)
	return out
}

// LineItem is either a regular product line or a synthesized combo line.
type LineItem struct {
	Product     catalog.Product       `json:"product"`
	Quantity    int                   `json:"quantity"`
	Additionals []AdditionalSelection `json:"additionals,omitempty"`
	Observation string                `json:"observation,omitempty"`
	IsCombo     bool                  `json:"isCombo,omitempty"`
	ComboPrice  decimal.Decimal       `json:"comboPrice,omitempty"`
	ComboItems  *ComboItems           `json:"comboItems,omitempty"`
}

// UnitPrice is the price used for totals: the bundled price for combo
// lines, the catalog price otherwise.
func (li LineItem) UnitPrice() decimal.Decimal {
	if li.IsCombo {
		return li.ComboPrice
	}
	return li.Product.Price
}
