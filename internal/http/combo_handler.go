package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/catalog"
	"github.com/foliadelivery/storefront/internal/combo"
)

// ComboHandler drives the build-your-combo flow. One builder lives per cart
// and is discarded on confirm or cancel. Builders are not safe for
// concurrent use, so the handler mutex is held across every builder call.
type ComboHandler struct {
	mu       sync.Mutex
	builders map[string]*combo.Builder

	carts   *cart.Registry
	catalog catalog.Store
}

func NewComboHandler(carts *cart.Registry, store catalog.Store) *ComboHandler {
	return &ComboHandler{
		builders: make(map[string]*combo.Builder),
		carts:    carts,
		catalog:  store,
	}
}

type comboStateView struct {
	Step          combo.Step                                 `json:"step"`
	Editing       bool                                       `json:"editing"`
	Quote         combo.Quote                                `json:"quote"`
	CanAdvance    bool                                       `json:"canAdvance"`
	CanConfirm    bool                                       `json:"canConfirm"`
	Selections    map[catalog.ComboCategory][]cart.Selection `json:"selections"`
	CategoryItems []catalog.Product                          `json:"categoryItems"`
}

func (h *ComboHandler) stateOf(b *combo.Builder) comboStateView {
	selections := make(map[catalog.ComboCategory][]cart.Selection, len(catalog.ComboCategories))
	for _, cat := range catalog.ComboCategories {
		selections[cat] = b.Selections(cat)
	}

	var categoryItems []catalog.Product
	if cat, ok := b.Step().Category(); ok {
		categoryItems = h.catalog.ComboProducts(cat)
	}

	return comboStateView{
		Step:          b.Step(),
		Editing:       b.Editing(),
		Quote:         b.Quote(),
		CanAdvance:    b.CanAdvance(),
		CanConfirm:    b.CanConfirm(),
		Selections:    selections,
		CategoryItems: categoryItems,
	}
}

type startComboRequest struct {
	EditLineID string `json:"editLineId"`
}

func (h *ComboHandler) StartCombo(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	var req startComboRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var b *combo.Builder
	if req.EditLineID != "" {
		line, found := c.Line(req.EditLineID)
		if !found {
			writeError(w, http.StatusNotFound, "combo line not found")
			return
		}
		var err error
		b, err = combo.NewEditBuilder(h.catalog, line)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if c.HasCombo() {
			writeError(w, http.StatusConflict, "cart already has a combo")
			return
		}
		b = combo.NewBuilder(h.catalog)
	}

	h.builders[c.ID()] = b
	writeJSON(w, http.StatusCreated, h.stateOf(b))
}

func (h *ComboHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.loadBuilder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.stateOf(b))
}

type comboQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *ComboHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.loadBuilder(w, r)
	if !ok {
		return
	}

	var req comboQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	b.SetQuantity(chi.URLParam(r, "productId"), req.Quantity)
	writeJSON(w, http.StatusOK, h.stateOf(b))
}

func (h *ComboHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.loadBuilder(w, r)
	if !ok {
		return
	}

	var err error
	if b.Step() == combo.StepPreview {
		err = b.Start()
	} else {
		err = b.Next()
	}
	if err != nil {
		writeComboError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateOf(b))
}

type comboEditRequest struct {
	Category catalog.ComboCategory `json:"category"`
}

func (h *ComboHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.loadBuilder(w, r)
	if !ok {
		return
	}

	var req comboEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Category.Valid() {
		writeError(w, http.StatusBadRequest, "unknown combo category")
		return
	}

	if err := b.Edit(req.Category); err != nil {
		writeComboError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateOf(b))
}

func (h *ComboHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.loadBuilder(w, r)
	if !ok {
		return
	}

	line, err := b.Commit(c)
	if err != nil {
		writeComboError(w, err)
		return
	}

	delete(h.builders, c.ID())
	writeJSON(w, http.StatusOK, map[string]any{
		"line": line,
		"cart": viewOf(c),
	})
}

func (h *ComboHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")

	h.mu.Lock()
	delete(h.builders, cartID)
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (h *ComboHandler) loadCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	c, err := h.carts.Get(chi.URLParam(r, "cartId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return nil, false
	}
	return c, true
}

// loadBuilder requires h.mu to be held by the caller.
func (h *ComboHandler) loadBuilder(w http.ResponseWriter, r *http.Request) (*combo.Builder, bool) {
	b, ok := h.builders[chi.URLParam(r, "cartId")]
	if !ok {
		writeError(w, http.StatusNotFound, "no combo in progress")
		return nil, false
	}
	return b, true
}

func writeComboError(w http.ResponseWriter, err error) {
	var trErr *combo.TransitionError
	switch {
	case errors.As(err, &trErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, combo.ErrEmptyCategory), errors.Is(err, combo.ErrIncompleteCombo):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
