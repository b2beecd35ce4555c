// Package cep looks up Brazilian postal codes through ViaCEP. Lookups are
// best-effort collaborators of the checkout flow: callers degrade to
// manual entry on any failure.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://viacep.com.br"

var (
	ErrInvalidCEP = errors.New("cep must have exactly 8 digits")
	ErrNotFound   = errors.New("cep not found")
)

// Address is the subset of the lookup used to pre-fill the address step.
type Address struct {
	CEP          string `json:"cep"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}

type Client struct {
	baseURL string
	http    *http.Client
	sfg     singleflight.Group // collapses concurrent lookups of one code
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Localidade string `json:"localidade"`
	Bairro     string `json:"bairro"`
	Logradouro string `json:"logradouro"`
	// ViaCEP signals a miss with an "erro" member; older deployments send
	// a boolean, newer ones a string.
	Erro json.RawMessage `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	if len(r.Erro) == 0 {
		return false
	}
	s := strings.Trim(string(r.Erro), `"`)
	return s != "" && s != "false"
}

// Lookup resolves an 8-digit code into an address, or ErrNotFound.
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	clean := digitsOnly(code)
	if len(clean) != 8 {
		return nil, ErrInvalidCEP
	}

	v, err, _ := c.sfg.Do(clean, func() (interface{}, error) {
		return c.fetch(ctx, clean)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Address), nil
}

func (c *Client) fetch(ctx context.Context, clean string) (*Address, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep status %d", resp.StatusCode)
	}

	var data viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("viacep decode: %w", err)
	}
	if data.notFound() {
		return nil, ErrNotFound
	}

	return &Address{
		CEP:          clean,
		City:         data.Localidade,
		Neighborhood: data.Bairro,
		Street:       data.Logradouro,
	}, nil
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
