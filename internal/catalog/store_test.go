package catalog_test

import (
	"testing"

	"github.com/foliadelivery/storefront/internal/catalog"
)

func TestNewStaticStore(t *testing.T) {
	store, err := catalog.NewStaticStore()
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}

	if len(store.Products()) == 0 {
		t.Fatalf("expected embedded catalog to contain products")
	}
	if len(store.Additionals()) == 0 {
		t.Fatalf("expected embedded catalog to contain additionals")
	}

	t.Run("every combo category has products", func(t *testing.T) {
		for _, cat := range catalog.ComboCategories {
			if len(store.ComboProducts(cat)) == 0 {
				t.Fatalf("combo category %q has no products", cat)
			}
		}
	})

	t.Run("lookup by id", func(t *testing.T) {
		p, ok := store.Product("vodka-smirnoff")
		if !ok {
			t.Fatalf("expected vodka-smirnoff in catalog")
		}
		if p.ComboCategory != catalog.ComboSpirits {
			t.Fatalf("expected spirits combo category, got %q", p.ComboCategory)
		}

		if _, ok := store.Product("nope"); ok {
			t.Fatalf("did not expect product for unknown id")
		}
	})
}

func TestNewStoreFromJSON(t *testing.T) {
	t.Run("rejects duplicate product ids", func(t *testing.T) {
		_, err := catalog.NewStoreFromJSON([]byte(`{"products":[{"id":"a","name":"A"},{"id":"a","name":"B"}]}`))
		if err == nil {
			t.Fatalf("expected duplicate id error")
		}
	})

	t.Run("rejects product without id", func(t *testing.T) {
		_, err := catalog.NewStoreFromJSON([]byte(`{"products":[{"name":"A"}]}`))
		if err == nil {
			t.Fatalf("expected missing id error")
		}
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := catalog.NewStoreFromJSON([]byte(`{`))
		if err == nil {
			t.Fatalf("expected parse error")
		}
	})

	t.Run("combo products preserve catalog order", func(t *testing.T) {
		store, err := catalog.NewStoreFromJSON([]byte(`{"products":[
			{"id":"b","name":"B","comboCategory":"spirits"},
			{"id":"x","name":"X"},
			{"id":"a","name":"A","comboCategory":"spirits"}
		]}`))
		if err != nil {
			t.Fatalf("build store: %v", err)
		}

		got := store.ComboProducts(catalog.ComboSpirits)
		if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
			t.Fatalf("unexpected combo products %+v", got)
		}
	})
}

func TestComboCategoryValid(t *testing.T) {
	for _, cat := range catalog.ComboCategories {
		if !cat.Valid() {
			t.Fatalf("expected %q to be valid", cat)
		}
	}
	if catalog.ComboCategory("beers").Valid() {
		t.Fatalf("did not expect beers to be a combo category")
	}
}
