package catalog

import "github.com/shopspring/decimal"

// Product is an immutable catalog entry supplied by the static store.
type Product struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	OriginalPrice  *decimal.Decimal `json:"originalPrice,omitempty"`
	Image          string           `json:"image"`
	Category       string           `json:"category"`
	Badge          string           `json:"badge,omitempty"`
	Stock          int              `json:"stock,omitempty"`
	MinQuantity    int              `json:"minQuantity,omitempty"`
	Includes       []string         `json:"includes,omitempty"`
	Accompaniments []string         `json:"accompaniments,omitempty"`
	ComboCategory  ComboCategory    `json:"comboCategory,omitempty"`
}

// Additional is an extra that can be attached to a regular cart line.
type Additional struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Quantity         string          `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	FreeOnFirstOrder bool            `json:"freeOnFirstOrder,omitempty"`
}
