package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/ledger"
)

type OrdersHandler struct {
	orders *ledger.Ledger
	now    func() time.Time
}

func NewOrdersHandler(orders *ledger.Ledger) *OrdersHandler {
	return &OrdersHandler{orders: orders, now: time.Now}
}

type pendingOrderView struct {
	TransactionID    string               `json:"transactionId"`
	PixCode          string               `json:"pixCode"`
	PixQRCodeImage   string               `json:"pixQrCodeImage"`
	Amount           decimal.Decimal      `json:"amount"`
	Items            []ledger.ItemSummary `json:"items"`
	CustomerName     string               `json:"customerName"`
	CreatedAt        time.Time            `json:"createdAt"`
	RemainingMinutes int                  `json:"remainingMinutes"`
}

func (h *OrdersHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	now := h.now()
	pending := h.orders.Pending(ctx)

	views := make([]pendingOrderView, 0, len(pending))
	for _, o := range pending {
		views = append(views, pendingOrderView{
			TransactionID:    o.TransactionID,
			PixCode:          o.PixCode,
			PixQRCodeImage:   o.PixQRCodeImage,
			Amount:           o.Amount,
			Items:            o.Items,
			CustomerName:     o.CustomerName,
			CreatedAt:        o.CreatedAt,
			RemainingMinutes: int(o.Remaining(now).Minutes()),
		})
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) CountPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, map[string]int{
		"count": len(h.orders.Pending(ctx)),
	})
}

// WatchPending streams the pending-order count as server-sent events. The
// stream re-emits on every store change and on the periodic expiry sweep.
func (h *OrdersHandler) WatchPending(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	counts, err := h.orders.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to watch pending orders")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for count := range counts {
		fmt.Fprintf(w, "data: {\"count\":%d}\n\n", count)
		flusher.Flush()
	}
}

func (h *OrdersHandler) RemovePending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.orders.Remove(ctx, chi.URLParam(r, "transactionId")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove pending order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
