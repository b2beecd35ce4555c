package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/catalog"
)

type CartHandler struct {
	carts   *cart.Registry
	catalog catalog.Store
}

func NewCartHandler(carts *cart.Registry, store catalog.Store) *CartHandler {
	return &CartHandler{carts: carts, catalog: store}
}

type cartView struct {
	ID             string              `json:"id"`
	Items          []cart.LineItem     `json:"items"`
	TotalItems     int                 `json:"totalItems"`
	TotalPrice     decimal.Decimal     `json:"totalPrice"`
	FreeAdditional *catalog.Additional `json:"freeAdditional,omitempty"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{
		ID:             c.ID(),
		Items:          c.Items(),
		TotalItems:     c.TotalItems(),
		TotalPrice:     c.TotalPrice(),
		FreeAdditional: c.FreeAdditional(),
	}
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c := h.carts.Create()
	writeJSON(w, http.StatusCreated, viewOf(c))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

type addItemRequest struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	Additionals []struct {
		AdditionalID string `json:"additionalId"`
		Quantity     int    `json:"quantity"`
	} `json:"additionals"`
	Observation string `json:"observation"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	// The cart session grants exactly one additional, free of charge.
	// Once the slot is taken no further selection is accepted, and a
	// single request may never claim more than one unit.
	var selections []cart.AdditionalSelection
	var granted *catalog.Additional
	if len(req.Additionals) > 0 {
		if len(req.Additionals) > 1 {
			writeError(w, http.StatusBadRequest, "only one additional may be selected")
			return
		}
		if c.FreeAdditional() != nil {
			writeError(w, http.StatusConflict, "free additional already chosen")
			return
		}
		add, ok := h.catalog.Additional(req.Additionals[0].AdditionalID)
		if !ok {
			writeError(w, http.StatusNotFound, "additional not found")
			return
		}
		granted = &add

		selection := cart.AdditionalSelection{Additional: add, Quantity: 1}
		selection.Additional.Price = decimal.Zero
		selections = append(selections, selection)
	}

	if err := c.AddItem(product, req.Quantity, selections, req.Observation); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// The slot is consumed only once the add went through, so a rejected
	// request does not burn the entitlement.
	if granted != nil {
		c.SetFreeAdditional(granted)
	}

	writeJSON(w, http.StatusOK, viewOf(c))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.UpdateQuantity(chi.URLParam(r, "productId"), req.Quantity)
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	c.RemoveItem(chi.URLParam(r, "productId"))
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCart(w, r)
	if !ok {
		return
	}

	c.Clear()
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (h *CartHandler) loadCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	c, err := h.carts.Get(chi.URLParam(r, "cartId"))
	if err != nil {
		if errors.Is(err, cart.ErrNoCart) {
			writeError(w, http.StatusNotFound, "cart not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return nil, false
	}
	return c, true
}
