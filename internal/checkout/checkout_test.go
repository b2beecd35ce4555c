package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/analytics"
	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/catalog"
	"github.com/foliadelivery/storefront/internal/gateway"
	"github.com/foliadelivery/storefront/internal/ledger"
)

type fakePayments struct {
	charge *gateway.Charge
	err    error
	calls  int
}

func (f *fakePayments) CreateCharge(_ context.Context, _ gateway.ChargeRequest) (*gateway.Charge, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.charge, nil
}

type fakeTracker struct {
	purchases []analytics.Purchase
	err       error
}

func (f *fakeTracker) TrackPurchase(_ context.Context, p analytics.Purchase) error {
	f.purchases = append(f.purchases, p)
	return f.err
}

type testEnv struct {
	registry *Registry
	payments *fakePayments
	tracker  *fakeTracker
	orders   *ledger.Ledger
	flags    ledger.Store
}

func newTestEnv(payments *fakePayments) *testEnv {
	store := ledger.NewMemoryStore().Handle()
	orders := ledger.New(store)
	tracker := &fakeTracker{}

	registry := NewRegistry(Deps{
		Payments: payments,
		Orders:   orders,
		Flags:    store,
		Tracker:  tracker,
		Logger:   log.New(io.Discard, "", 0),
		MinOrder: decimal.NewFromInt(50),
	})

	return &testEnv{
		registry: registry,
		payments: payments,
		tracker:  tracker,
		orders:   orders,
		flags:    store,
	}
}

func cartWorth(t *testing.T, price float64) *cart.Cart {
	t.Helper()
	c := cart.NewRegistry().Create()
	p := catalog.Product{ID: "vodka", Name: "Vodka", Price: decimal.NewFromFloat(price)}
	if err := c.AddItem(p, 1, nil, ""); err != nil {
		t.Fatalf("add item: %v", err)
	}
	return c
}

func successfulCharge() *gateway.Charge {
	return &gateway.Charge{
		TransactionID:  "tx-123",
		PixCode:        "00020126pixcopiaecola",
		PixQRCodeImage: "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=x",
		Amount:         decimal.NewFromInt(60),
	}
}

func validCustomer() CustomerData {
	return CustomerData{
		Name:     "Ana Silva",
		Phone:    "11987654321",
		Email:    "ana@example.com",
		Document: "12345678901",
	}
}

func validAddress() AddressData {
	return AddressData{
		CEP:          "01415001",
		Street:       "Rua Augusta",
		Number:       "100",
		Neighborhood: "Consolacao",
		City:         "Sao Paulo",
	}
}

func advanceToQRCode(t *testing.T, env *testEnv, c *cart.Cart) *Checkout {
	t.Helper()
	session, err := env.registry.Start(c)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.SubmitCustomer(validCustomer()); err != nil {
		t.Fatalf("submit customer: %v", err)
	}
	if err := session.SubmitAddress(context.Background(), validAddress()); err != nil {
		t.Fatalf("submit address: %v", err)
	}
	if session.Step() != StepQRCode {
		t.Fatalf("expected qrcode step, got %q", session.Step())
	}
	return session
}

func TestStartMinimumOrder(t *testing.T) {
	t.Run("below minimum is rejected with remaining amount", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})

		_, err := env.registry.Start(cartWorth(t, 49.99))
		var belowMin *BelowMinimumError
		if !errors.As(err, &belowMin) {
			t.Fatalf("expected BelowMinimumError, got %v", err)
		}
		if !belowMin.Remaining.Equal(decimal.RequireFromString("0.01")) {
			t.Fatalf("expected remaining 0.01, got %s", belowMin.Remaining)
		}
	})

	t.Run("exactly the minimum is accepted", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})

		session, err := env.registry.Start(cartWorth(t, 50))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if session.Step() != StepForm {
			t.Fatalf("expected form step, got %q", session.Step())
		}
	})

	t.Run("snapshot survives later cart edits", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		c := cartWorth(t, 60)

		session, err := env.registry.Start(c)
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		c.UpdateQuantity("vodka", 10)

		state := session.State()
		if !state.Amount.Equal(decimal.NewFromInt(60)) {
			t.Fatalf("expected snapshotted amount 60, got %s", state.Amount)
		}
		if len(state.Items) != 1 || state.Items[0].Quantity != 1 {
			t.Fatalf("expected snapshotted items, got %+v", state.Items)
		}
	})
}

func TestSubmitCustomer(t *testing.T) {
	env := newTestEnv(&fakePayments{charge: successfulCharge()})

	t.Run("missing field fails validation", func(t *testing.T) {
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		data := validCustomer()
		data.Email = "   "
		if err := session.SubmitCustomer(data); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if session.Step() != StepForm {
			t.Fatalf("expected to stay on form, got %q", session.Step())
		}
	})

	t.Run("valid data advances and formats contact fields", func(t *testing.T) {
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		if err := session.SubmitCustomer(validCustomer()); err != nil {
			t.Fatalf("submit: %v", err)
		}

		state := session.State()
		if state.Step != StepAddress {
			t.Fatalf("expected address step, got %q", state.Step)
		}
		if state.Customer.Phone != "(11) 98765-4321" {
			t.Fatalf("expected formatted phone, got %q", state.Customer.Phone)
		}
		if state.Customer.Document != "123.456.789-01" {
			t.Fatalf("expected formatted document, got %q", state.Customer.Document)
		}
	})

	t.Run("wrong step is rejected", func(t *testing.T) {
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := session.SubmitCustomer(validCustomer()); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if err := session.SubmitCustomer(validCustomer()); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestBack(t *testing.T) {
	env := newTestEnv(&fakePayments{charge: successfulCharge()})
	session, err := env.registry.Start(cartWorth(t, 60))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := session.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from form, got %v", err)
	}

	if err := session.SubmitCustomer(validCustomer()); err != nil {
		t.Fatalf("submit customer: %v", err)
	}
	if err := session.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}

	state := session.State()
	if state.Step != StepForm {
		t.Fatalf("expected form step, got %q", state.Step)
	}
	if state.Customer.Name == "" {
		t.Fatalf("expected customer data to be kept")
	}
}

func TestSubmitAddress(t *testing.T) {
	t.Run("missing field fails validation", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := session.SubmitCustomer(validCustomer()); err != nil {
			t.Fatalf("submit customer: %v", err)
		}

		data := validAddress()
		data.City = ""
		if err := session.SubmitAddress(context.Background(), data); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if session.Step() != StepAddress {
			t.Fatalf("expected to stay on address, got %q", session.Step())
		}
	})

	t.Run("complement is optional", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		session := advanceToQRCode(t, env, cartWorth(t, 60))

		state := session.State()
		if state.Pix.TransactionID != "tx-123" {
			t.Fatalf("expected charge data, got %+v", state.Pix)
		}
	})

	t.Run("success saves a pending order", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		advanceToQRCode(t, env, cartWorth(t, 60))

		pending := env.orders.Pending(context.Background())
		if len(pending) != 1 {
			t.Fatalf("expected one pending order, got %d", len(pending))
		}
		if pending[0].TransactionID != "tx-123" {
			t.Fatalf("unexpected pending order %+v", pending[0])
		}
		if pending[0].CustomerName != "Ana Silva" {
			t.Fatalf("expected customer name on the order, got %q", pending[0].CustomerName)
		}
	})

	t.Run("gateway error message surfaces on the error step", func(t *testing.T) {
		env := newTestEnv(&fakePayments{err: &gateway.Error{Status: 400, Message: "cartao recusado"}})
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := session.SubmitCustomer(validCustomer()); err != nil {
			t.Fatalf("submit customer: %v", err)
		}
		if err := session.SubmitAddress(context.Background(), validAddress()); err != nil {
			t.Fatalf("submit address: %v", err)
		}

		state := session.State()
		if state.Step != StepError {
			t.Fatalf("expected error step, got %q", state.Step)
		}
		if state.LastError != "cartao recusado" {
			t.Fatalf("unexpected error message %q", state.LastError)
		}
	})

	t.Run("opaque gateway failures get the generic message", func(t *testing.T) {
		env := newTestEnv(&fakePayments{err: errors.New("dial tcp: timeout")})
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := session.SubmitCustomer(validCustomer()); err != nil {
			t.Fatalf("submit customer: %v", err)
		}
		if err := session.SubmitAddress(context.Background(), validAddress()); err != nil {
			t.Fatalf("submit address: %v", err)
		}

		if got := session.State().LastError; got != "erro ao criar cobranca PIX" {
			t.Fatalf("unexpected error message %q", got)
		}
	})
}

func TestRetry(t *testing.T) {
	env := newTestEnv(&fakePayments{err: errors.New("boom")})
	session, err := env.registry.Start(cartWorth(t, 60))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.SubmitCustomer(validCustomer()); err != nil {
		t.Fatalf("submit customer: %v", err)
	}
	if err := session.SubmitAddress(context.Background(), validAddress()); err != nil {
		t.Fatalf("submit address: %v", err)
	}
	if session.Step() != StepError {
		t.Fatalf("expected error step, got %q", session.Step())
	}

	if err := session.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}

	state := session.State()
	if state.Step != StepForm {
		t.Fatalf("expected form step after retry, got %q", state.Step)
	}
	if state.Address != (AddressData{}) {
		t.Fatalf("expected address to be discarded, got %+v", state.Address)
	}
	if state.LastError != "" {
		t.Fatalf("expected error message cleared, got %q", state.LastError)
	}
	if state.Customer.Name == "" {
		t.Fatalf("expected customer data to be kept")
	}
}

func TestConfirmPaid(t *testing.T) {
	t.Run("removes the pending order and tracks once", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		session := advanceToQRCode(t, env, cartWorth(t, 60))

		if err := session.ConfirmPaid(context.Background()); err != nil {
			t.Fatalf("confirm: %v", err)
		}

		if session.Step() != StepSuccess {
			t.Fatalf("expected success step, got %q", session.Step())
		}
		if got := env.orders.Pending(context.Background()); len(got) != 0 {
			t.Fatalf("expected pending order removed, got %d", len(got))
		}
		if len(env.tracker.purchases) != 1 {
			t.Fatalf("expected one tracked purchase, got %d", len(env.tracker.purchases))
		}
		p := env.tracker.purchases[0]
		if p.TransactionID != "tx-123" || !p.Amount.Equal(decimal.NewFromInt(60)) {
			t.Fatalf("unexpected purchase %+v", p)
		}
	})

	t.Run("flag prevents duplicate tracking across sessions", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})

		first := advanceToQRCode(t, env, cartWorth(t, 60))
		if err := first.ConfirmPaid(context.Background()); err != nil {
			t.Fatalf("first confirm: %v", err)
		}

		second := advanceToQRCode(t, env, cartWorth(t, 60))
		if err := second.ConfirmPaid(context.Background()); err != nil {
			t.Fatalf("second confirm: %v", err)
		}

		if len(env.tracker.purchases) != 1 {
			t.Fatalf("expected a single tracked purchase for the same transaction, got %d", len(env.tracker.purchases))
		}
	})

	t.Run("tracker failure does not fail the confirmation", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		env.tracker.err = errors.New("broker down")
		session := advanceToQRCode(t, env, cartWorth(t, 60))

		if err := session.ConfirmPaid(context.Background()); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if session.Step() != StepSuccess {
			t.Fatalf("expected success step, got %q", session.Step())
		}
	})

	t.Run("only allowed from the qrcode step", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		session, err := env.registry.Start(cartWorth(t, 60))
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := session.ConfirmPaid(context.Background()); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("clears the cart only after success", func(t *testing.T) {
		env := newTestEnv(&fakePayments{charge: successfulCharge()})
		c := cartWorth(t, 60)
		session := advanceToQRCode(t, env, c)

		// closing from qrcode keeps the cart: the user may still pay
		session.Close()
		if len(c.Items()) != 1 {
			t.Fatalf("expected cart to survive an unpaid close")
		}

		if err := session.ConfirmPaid(context.Background()); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		session.Close()
		if len(c.Items()) != 0 {
			t.Fatalf("expected cart cleared after a paid close")
		}
	})
}

func TestRegistrySessions(t *testing.T) {
	env := newTestEnv(&fakePayments{charge: successfulCharge()})

	session, err := env.registry.Start(cartWorth(t, 60))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := env.registry.Get(session.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != session {
		t.Fatalf("expected the same session back")
	}

	if _, err := env.registry.Get("missing"); !errors.Is(err, ErrNoCheckout) {
		t.Fatalf("expected ErrNoCheckout, got %v", err)
	}

	env.registry.Drop(session.ID())
	if _, err := env.registry.Get(session.ID()); !errors.Is(err, ErrNoCheckout) {
		t.Fatalf("expected ErrNoCheckout after drop, got %v", err)
	}
}
