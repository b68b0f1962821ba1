package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/skinstore/internal/domain"
)

const DefaultBaseURL = "https://api.paystack.co"

type Gateway struct {
	secret     string
	baseURL    string
	httpClient *http.Client
}

func NewGateway(secret, baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{
		secret:     secret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyResp struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string     `json:"status"`
		Reference       string     `json:"reference"`
		Amount          float64    `json:"amount"`
		Currency        string     `json:"currency"`
		Channel         string     `json:"channel"`
		GatewayResponse string     `json:"gateway_response"`
		PaidAt          *time.Time `json:"paid_at"`
	} `json:"data"`
}

// Verify asks Paystack for the state of the transaction behind reference.
// The returned amount is in the smallest currency unit, as Paystack reports it.
func (g *Gateway) Verify(ctx context.Context, reference string) (*domain.PaymentVerification, error) {
	if g.secret == "" {
		return nil, errors.New("paystack secret key missing (PAYSTACK_SECRET_KEY)")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("empty payment reference")
	}
	endpoint := g.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secret)
	req.Header.Set("Accept", "application/json")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var pe struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &pe) == nil && pe.Message != "" {
			return nil, fmt.Errorf("paystack verify status %d: %s", res.StatusCode, pe.Message)
		}
		return nil, fmt.Errorf("paystack verify status %d: %s", res.StatusCode, string(b))
	}
	var vr verifyResp
	if err := json.NewDecoder(res.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("paystack verify decode: %w", err)
	}
	if !vr.Status {
		return nil, fmt.Errorf("paystack verify: %s", vr.Message)
	}
	ref := vr.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &domain.PaymentVerification{
		Reference:       ref,
		Status:          vr.Data.Status,
		Amount:          vr.Data.Amount,
		Currency:        vr.Data.Currency,
		Channel:         vr.Data.Channel,
		GatewayResponse: vr.Data.GatewayResponse,
		PaidAt:          vr.Data.PaidAt,
	}, nil
}
