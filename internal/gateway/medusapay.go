package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultBaseURL        = "https://api.v2.medusapay.com.br"
	DefaultQRImageBaseURL = "https://api.qrserver.com/v1/create-qr-code/"

	transactionsPath = "/v1/transactions"
	paymentMethodPix = "pix"
	pixExpiresInDays = 1

	maxItems    = 5
	maxTitleLen = 50

	orderRefPrefix = "FOLIA"
	genericTitle   = "Pedido Folia Delivery"
)

// ErrMissingCredential means the gateway secret key was never configured.
// This is a server-side configuration failure; retrying cannot fix it.
var ErrMissingCredential = errors.New("payment gateway secret key not configured")

// Error carries the gateway's own failure message for user display.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway error (status %d): %s", e.Status, e.Message)
}

// Item is one cart line forwarded to the gateway. Price is optional: items
// without one are apportioned an equal share of the total.
type Item struct {
	Name     string
	Quantity int
	Price    *decimal.Decimal
}

// ChargeRequest is the checkout data needed to create a PIX transaction.
type ChargeRequest struct {
	Amount           decimal.Decimal
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerDocument string
	Items            []Item
}

// Charge is the payable artifact produced by a successful creation call.
type Charge struct {
	TransactionID  string
	OrderRef       string
	PixCode        string
	PixQRCodeImage string
	Amount         decimal.Decimal
	ExpiresAt      string
}

// Config configures the MedusaPay client.
type Config struct {
	BaseURL        string
	QRImageBaseURL string
	SecretKey      string
	Timeout        time.Duration
}

// Client is the adapter between checkout data and the MedusaPay API.
type Client struct {
	baseURL        string
	qrImageBaseURL string
	secretKey      string
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker[*Charge]
	logger         *log.Logger
	now            func() time.Time
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	qrImageBaseURL := cfg.QRImageBaseURL
	if qrImageBaseURL == "" {
		qrImageBaseURL = DefaultQRImageBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		qrImageBaseURL: qrImageBaseURL,
		secretKey:      cfg.SecretKey,
		http:           &http.Client{Timeout: timeout},
		breaker:        gobreaker.NewCircuitBreaker[*Charge](gobreaker.Settings{Name: "medusapay"}),
		logger:         logger,
		now:            time.Now,
	}
}

type transactionItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Tangible  bool   `json:"tangible"`
}

type transactionDocument struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type transactionCustomer struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Phone    string              `json:"phone,omitempty"`
	Document transactionDocument `json:"document"`
}

type transactionPix struct {
	ExpiresInDays int `json:"expiresInDays"`
}

type transactionMetadata struct {
	OrderID     string `json:"order_id"`
	Description string `json:"description"`
}

type createTransactionRequest struct {
	Amount        int64               `json:"amount"`
	PaymentMethod string              `json:"paymentMethod"`
	Items         []transactionItem   `json:"items"`
	Customer      transactionCustomer `json:"customer"`
	Pix           transactionPix      `json:"pix"`
	Metadata      transactionMetadata `json:"metadata"`
}

type createTransactionResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
	ExpiresAt     string `json:"expiresAt"`
	Pix           struct {
		QRCode       string `json:"qrcode"`
		ExpiresAt    string `json:"expiresAt"`
		ExpiresAtAlt string `json:"expires_at"`
	} `json:"pix"`
}

// CreateCharge creates a PIX transaction and maps the gateway response
// into a payable artifact. The call runs behind a circuit breaker.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if c.secretKey == "" {
		return nil, ErrMissingCredential
	}
	return c.breaker.Execute(func() (*Charge, error) {
		return c.createCharge(ctx, req)
	})
}

func (c *Client) createCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	orderRef := newOrderRef(c.now())
	payload := c.buildPayload(req, orderRef)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build transaction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":x")))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create pix transaction: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read transaction response: %w", err)
	}

	var data createTransactionResponse
	if err := json.Unmarshal(raw, &data); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("decode transaction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := data.Message
		if msg == "" {
			msg = "erro ao criar cobranca PIX"
		}
		c.logger.Printf("medusapay rejected transaction %s: status=%d message=%q", orderRef, resp.StatusCode, msg)
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	pixCode := data.Pix.QRCode

	// The gateway does not supply a scannable image; render one through
	// the public QR service with the payable code as the data parameter.
	image := ""
	if pixCode != "" {
		image = c.qrImageBaseURL + "?size=300x300&data=" + url.QueryEscape(pixCode)
	}

	transactionID := data.ID
	if transactionID == "" {
		transactionID = data.TransactionID
	}
	if transactionID == "" {
		transactionID = orderRef
	}

	expiresAt := data.Pix.ExpiresAt
	if expiresAt == "" {
		expiresAt = data.Pix.ExpiresAtAlt
	}
	if expiresAt == "" {
		expiresAt = data.ExpiresAt
	}

	return &Charge{
		TransactionID:  transactionID,
		OrderRef:       orderRef,
		PixCode:        pixCode,
		PixQRCodeImage: image,
		Amount:         req.Amount,
		ExpiresAt:      expiresAt,
	}, nil
}

func (c *Client) buildPayload(req ChargeRequest, orderRef string) createTransactionRequest {
	items := make([]transactionItem, 0, maxItems)
	forwarded := req.Items
	if len(forwarded) > maxItems {
		forwarded = forwarded[:maxItems]
	}
	for i, it := range forwarded {
		items = append(items, transactionItem{
			ID:        fmt.Sprintf("item-%d", i+1),
			Title:     truncate(it.Name, maxTitleLen),
			UnitPrice: unitPriceCents(req.Amount, it, len(req.Items)),
			Quantity:  it.Quantity,
			Tangible:  true,
		})
	}
	if len(items) == 0 {
		items = append(items, transactionItem{
			ID:        "item-1",
			Title:     genericTitle,
			UnitPrice: cents(req.Amount),
			Quantity:  1,
			Tangible:  true,
		})
	}

	description := genericTitle
	if len(req.Items) > 0 {
		parts := make([]string, 0, len(req.Items))
		for _, it := range req.Items {
			parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
		}
		description = strings.Join(parts, ", ")
	}

	digits := digitsOnly(req.CustomerDocument)
	return createTransactionRequest{
		Amount:        cents(req.Amount),
		PaymentMethod: paymentMethodPix,
		Items:         items,
		Customer: transactionCustomer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: digitsOnly(req.CustomerPhone),
			Document: transactionDocument{
				Number: digits,
				Type:   documentType(digits),
			},
		},
		Pix:      transactionPix{ExpiresInDays: pixExpiresInDays},
		Metadata: transactionMetadata{OrderID: orderRef, Description: description},
	}
}

// unitPriceCents uses the explicit item price when present; otherwise the
// item is apportioned an equal share of the total across all items.
func unitPriceCents(amount decimal.Decimal, it Item, itemCount int) int64 {
	if it.Price != nil {
		return cents(*it.Price)
	}
	if itemCount < 1 {
		itemCount = 1
	}
	return cents(amount.Div(decimal.NewFromInt(int64(itemCount))))
}

// cents converts a major-unit amount into minor units, rounded half up.
func cents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func documentType(digits string) string {
	if len(digits) > 11 {
		return "cnpj"
	}
	return "cpf"
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// newOrderRef builds the locally generated transaction reference, used as
// the metadata order id and as the fallback transaction id when the
// gateway returns none.
func newOrderRef(now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", orderRefPrefix, now.UnixMilli(), randSuffix())
}

func randSuffix() string {
	return strconv.FormatInt(rand.Int63n(1<<31), 36)
}
