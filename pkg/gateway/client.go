package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGatewayUnavailable ağ geçidine canlı istek atılamadığında döner.
// Çağıran taraf için retryable bir hatadır.
var ErrGatewayUnavailable = errors.New("ödeme ağ geçidine ulaşılamıyor")

// CheckoutRequest ağ geçidinde ödeme oturumu açma isteği.
type CheckoutRequest struct {
	Reference   string `json:"reference"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

// CheckoutResponse ağ geçidinin döndürdüğü yönlendirme bilgisi.
type CheckoutResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
}

// Client ödeme ağ geçidi HTTP istemcisi. Protokol sözleşmesi dardır:
// oturum aç, yönlendirme URL'i al; sonuç webhook ile gelir.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient yeni bir ağ geçidi istemcisi oluşturur.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateCheckout ağ geçidinde ödeme oturumu açar. Ağ hatalarında
// ErrGatewayUnavailable ile sarmalanmış hata döner; çağıran hızlı
// başarısız olur, sunucu tarafında retry yapılmaz.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: ağ geçidi %d döndürdü", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ağ geçidi isteği reddetti: %d", resp.StatusCode)
	}

	var out CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ağ geçidi yanıtı çözümlenemedi: %w", err)
	}
	return &out, nil
}
