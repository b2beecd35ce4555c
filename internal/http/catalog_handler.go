package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliadelivery/storefront/internal/catalog"
)

type CatalogHandler struct {
	catalog catalog.Store
}

func NewCatalogHandler(store catalog.Store) *CatalogHandler {
	return &CatalogHandler{catalog: store}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Products())
}

func (h *CatalogHandler) ListAdditionals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Additionals())
}

func (h *CatalogHandler) ListComboProducts(w http.ResponseWriter, r *http.Request) {
	category := catalog.ComboCategory(chi.URLParam(r, "category"))
	if !category.Valid() {
		writeError(w, http.StatusNotFound, "unknown combo category")
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.ComboProducts(category))
}
