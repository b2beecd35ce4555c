package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/foliadelivery/storefront/internal/analytics"
	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/gateway"
	"github.com/foliadelivery/storefront/internal/ledger"
)

// Step identifies the screen of the checkout flow the session sits on.
type Step string

const (
	StepForm    Step = "form"
	StepAddress Step = "address"
	StepLoading Step = "loading"
	StepQRCode  Step = "qrcode"
	StepSuccess Step = "success"
	StepError   Step = "error"
)

const genericChargeError = "erro ao criar cobranca PIX"

var (
	ErrInvalidTransition = errors.New("operation not allowed on current step")
	ErrValidation        = errors.New("validation failed")
)

// BelowMinimumError carries how much is still missing to reach the minimum
// order value.
type BelowMinimumError struct {
	Minimum   decimal.Decimal
	Remaining decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order below minimum value: %s missing", e.Remaining.StringFixed(2))
}

type CustomerData struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

type AddressData struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
}

type PixData struct {
	PixCode        string `json:"pixCode"`
	PixQRCodeImage string `json:"pixQrCodeImage"`
	TransactionID  string `json:"transactionId"`
}

// PaymentCreator is the slice of the gateway client checkout needs.
type PaymentCreator interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
}

// Checkout is one buyer's progress through the PIX payment flow. The cart
// snapshot is taken at Start so later cart edits do not shift the charge.
type Checkout struct {
	mu sync.Mutex

	id   string
	step Step
	cart *cart.Cart

	amount decimal.Decimal
	items  []ledger.ItemSummary

	customer  CustomerData
	address   AddressData
	pix       PixData
	lastError string

	deps Deps
}

func (c *Checkout) ID() string { return c.id }

func (c *Checkout) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// State is a point-in-time copy safe to serve to clients.
type State struct {
	ID        string               `json:"id"`
	Step      Step                 `json:"step"`
	Amount    decimal.Decimal      `json:"amount"`
	Items     []ledger.ItemSummary `json:"items"`
	Customer  CustomerData         `json:"customer"`
	Address   AddressData          `json:"address"`
	Pix       PixData              `json:"pix"`
	LastError string               `json:"lastError,omitempty"`
}

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]ledger.ItemSummary, len(c.items))
	copy(items, c.items)

	return State{
		ID:        c.id,
		Step:      c.step,
		Amount:    c.amount,
		Items:     items,
		Customer:  c.customer,
		Address:   c.address,
		Pix:       c.pix,
		LastError: c.lastError,
	}
}

// SubmitCustomer validates the identification form and moves to the address
// step.
func (c *Checkout) SubmitCustomer(data CustomerData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepForm {
		return ErrInvalidTransition
	}

	data.Name = strings.TrimSpace(data.Name)
	data.Phone = strings.TrimSpace(data.Phone)
	data.Email = strings.TrimSpace(data.Email)
	data.Document = strings.TrimSpace(data.Document)

	if data.Name == "" || data.Phone == "" || data.Email == "" || data.Document == "" {
		return fmt.Errorf("%w: all customer fields are required", ErrValidation)
	}

	c.customer = data
	c.customer.Phone = FormatPhone(data.Phone)
	c.customer.Document = FormatDocument(data.Document)
	c.step = StepAddress
	return nil
}

// Back returns from the address step to the identification form, keeping
// everything typed so far.
func (c *Checkout) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAddress {
		return ErrInvalidTransition
	}
	c.step = StepForm
	return nil
}

// SubmitAddress validates the delivery address and creates the PIX charge.
// The session shows the loading step while the gateway call is in flight;
// the lock is released for the call so readers keep seeing it.
func (c *Checkout) SubmitAddress(ctx context.Context, data AddressData) error {
	c.mu.Lock()

	if c.step != StepAddress {
		c.mu.Unlock()
		return ErrInvalidTransition
	}

	data.CEP = strings.TrimSpace(data.CEP)
	data.Street = strings.TrimSpace(data.Street)
	data.Number = strings.TrimSpace(data.Number)
	data.Complement = strings.TrimSpace(data.Complement)
	data.Neighborhood = strings.TrimSpace(data.Neighborhood)
	data.City = strings.TrimSpace(data.City)

	if data.CEP == "" || data.Street == "" || data.Number == "" || data.Neighborhood == "" || data.City == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: address requires cep, street, number, neighborhood and city", ErrValidation)
	}

	c.address = data
	c.address.CEP = FormatCEP(data.CEP)
	c.step = StepLoading

	req := gateway.ChargeRequest{
		Amount:           c.amount,
		CustomerName:     c.customer.Name,
		CustomerEmail:    c.customer.Email,
		CustomerPhone:    Digits(c.customer.Phone),
		CustomerDocument: Digits(c.customer.Document),
	}
	for _, it := range c.items {
		price := it.Price
		req.Items = append(req.Items, gateway.Item{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    &price,
		})
	}
	c.mu.Unlock()

	charge, err := c.deps.Payments.CreateCharge(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepLoading {
		// session moved on while the call was in flight
		return nil
	}

	if err != nil {
		c.lastError = chargeErrorMessage(err)
		c.step = StepError
		c.deps.Logger.Printf("checkout %s: create charge failed: %v", c.id, err)
		return nil
	}

	c.pix = PixData{
		PixCode:        charge.PixCode,
		PixQRCodeImage: charge.PixQRCodeImage,
		TransactionID:  charge.TransactionID,
	}
	c.step = StepQRCode

	order := ledger.PendingOrder{
		TransactionID:  charge.TransactionID,
		PixCode:        charge.PixCode,
		PixQRCodeImage: charge.PixQRCodeImage,
		Amount:         c.amount,
		Items:          c.items,
		CustomerName:   c.customer.Name,
		CreatedAt:      c.deps.now(),
	}
	if err := c.deps.Orders.Save(ctx, order); err != nil {
		// charge exists either way; losing the reminder entry is acceptable
		c.deps.Logger.Printf("checkout %s: save pending order: %v", c.id, err)
	}
	return nil
}

// ConfirmPaid marks the charge as settled: the pending entry is removed and
// the conversion is reported exactly once per transaction.
func (c *Checkout) ConfirmPaid(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepQRCode {
		return ErrInvalidTransition
	}
	c.step = StepSuccess

	if err := c.deps.Orders.Remove(ctx, c.pix.TransactionID); err != nil {
		c.deps.Logger.Printf("checkout %s: remove pending order: %v", c.id, err)
	}

	c.trackOnce(ctx)
	return nil
}

// trackOnce fires the purchase events unless a prior confirmation of the
// same transaction already did. The guard flag is written before publishing
// so a crash can at worst drop the signal, never duplicate it.
func (c *Checkout) trackOnce(ctx context.Context) {
	flagKey := "tracked_" + c.pix.TransactionID

	if _, err := c.deps.Flags.Get(ctx, flagKey); err == nil {
		return
	} else if !errors.Is(err, ledger.ErrKeyNotFound) {
		c.deps.Logger.Printf("checkout %s: read tracking flag: %v", c.id, err)
		return
	}

	if err := c.deps.Flags.Set(ctx, flagKey, []byte("true")); err != nil {
		c.deps.Logger.Printf("checkout %s: set tracking flag: %v", c.id, err)
		return
	}

	purchase := analytics.Purchase{
		TransactionID: c.pix.TransactionID,
		Amount:        c.amount,
	}
	for _, it := range c.items {
		purchase.Items = append(purchase.Items, analytics.PurchaseItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
		purchase.TotalItems += it.Quantity
	}

	if err := c.deps.Tracker.TrackPurchase(ctx, purchase); err != nil {
		c.deps.Logger.Printf("checkout %s: track purchase: %v", c.id, err)
	}
}

// Retry returns a failed session to the identification form. The typed
// address is discarded; customer data is kept.
func (c *Checkout) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepError {
		return ErrInvalidTransition
	}
	c.address = AddressData{}
	c.lastError = ""
	c.step = StepForm
	return nil
}

// Close finishes the session. Only a paid session empties the cart.
func (c *Checkout) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == StepSuccess {
		c.cart.Clear()
	}
}

func chargeErrorMessage(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return genericChargeError
}
