package catalog

// ComboCategory is the explicit group a product belongs to inside the
// build-your-combo flow. Catalog entries opt in via their comboCategory
// field instead of the wizard matching display-category strings.
type ComboCategory string

const (
	ComboSpirits      ComboCategory = "spirits"
	ComboFlavoredIce  ComboCategory = "flavored-ice"
	ComboEnergyDrinks ComboCategory = "energy-drinks"
)

// ComboCategories lists the categories in wizard order.
var ComboCategories = []ComboCategory{ComboSpirits, ComboFlavoredIce, ComboEnergyDrinks}

func (c ComboCategory) Valid() bool {
	switch c {
	case ComboSpirits, ComboFlavoredIce, ComboEnergyDrinks:
		return true
	default:
		return false
	}
}

func (c ComboCategory) String() string {
	return string(c)
}
