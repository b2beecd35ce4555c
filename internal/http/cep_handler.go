package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliadelivery/storefront/internal/cep"
)

type CEPHandler struct {
	cep *cep.Client
}

func NewCEPHandler(client *cep.Client) *CEPHandler {
	return &CEPHandler{cep: client}
}

func (h *CEPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := h.cep.Lookup(ctx, chi.URLParam(r, "cep"))
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrInvalidCEP):
			writeError(w, http.StatusBadRequest, "cep must have 8 digits")
		case errors.Is(err, cep.ErrNotFound):
			writeError(w, http.StatusNotFound, "cep not found")
		default:
			writeError(w, http.StatusBadGateway, "cep lookup failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, addr)
}
