package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Store supplies product and additional definitions. Implementations are
// read-only; the storefront never mutates catalog data.
type Store interface {
	Products() []Product
	Product(id string) (Product, bool)
	Additionals() []Additional
	Additional(id string) (Additional, bool)
	ComboProducts(category ComboCategory) []Product
}

// catalogData holds the bundled catalog used by the storefront.
//
//go:embed data/catalog.json
var catalogData []byte

type staticStore struct {
	products      []Product
	additionals   []Additional
	productsByID  map[string]Product
	additionalsBy map[string]Additional
}

type catalogFile struct {
	Products    []Product    `json:"products"`
	Additionals []Additional `json:"additionals"`
}

// NewStaticStore parses the embedded catalog.
func NewStaticStore() (Store, error) {
	return NewStoreFromJSON(catalogData)
}

// NewStoreFromJSON builds a Store from a serialized catalog. Used by tests
// to supply small fixture catalogs.
func NewStoreFromJSON(data []byte) (Store, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	s := &staticStore{
		products:      file.Products,
		additionals:   file.Additionals,
		productsByID:  make(map[string]Product, len(file.Products)),
		additionalsBy: make(map[string]Additional, len(file.Additionals)),
	}
	for _, p := range file.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product without id: %q", p.Name)
		}
		if _, exists := s.productsByID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog product id %q", p.ID)
		}
		s.productsByID[p.ID] = p
	}
	for _, a := range file.Additionals {
		if a.ID == "" {
			return nil, fmt.Errorf("catalog additional without id: %q", a.Name)
		}
		if _, exists := s.additionalsBy[a.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog additional id %q", a.ID)
		}
		s.additionalsBy[a.ID] = a
	}
	return s, nil
}

func (s *staticStore) Products() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *staticStore) Product(id string) (Product, bool) {
	p, ok := s.productsByID[id]
	return p, ok
}

func (s *staticStore) Additionals() []Additional {
	out := make([]Additional, len(s.additionals))
	copy(out, s.additionals)
	return out
}

func (s *staticStore) Additional(id string) (Additional, bool) {
	a, ok := s.additionalsBy[id]
	return a, ok
}

func (s *staticStore) ComboProducts(category ComboCategory) []Product {
	var out []Product
	for _, p := range s.products {
		if p.ComboCategory == category {
			out = append(out, p)
		}
	}
	return out
}
