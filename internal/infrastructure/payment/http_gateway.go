package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/payment"
	"github.com/openmarket/backend/internal/infrastructure/config"
)

const chargePath = "/v1/charges"

// HTTPGateway implements payment.Gateway against an external charge API.
// Charges are synchronous: the provider answers approved or declined in the
// same call, so a charge can sit inside the checkout transaction.
type HTTPGateway struct {
	cfg        *config.PaymentConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPGateway creates a new HTTP-backed payment gateway
func NewHTTPGateway(cfg *config.PaymentConfig, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("payment"),
	}
}

type chargeRequestBody struct {
	Reference string `json:"reference"`
	PayerID   string `json:"payer_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
}

type chargeResponseBody struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // approved, declined
	Reason        string `json:"reason,omitempty"`
}

// Charge submits a charge to the provider and reports the outcome. Transport
// and provider errors come back as errors; a declined charge is a successful
// call with Succeeded=false.
func (g *HTTPGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	body := chargeRequestBody{
		Reference: req.Reference,
		PayerID:   req.PayerID.String(),
		Amount:    req.Amount.StringFixed(2),
		Currency:  "USD",
		Method:    string(req.Method),
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("payment: failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+chargePath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	// the reference doubles as an idempotency key: retrying a charge for
	// the same order must not charge twice
	httpReq.Header.Set("Idempotency-Key", req.Reference)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: charge request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Error("charge rejected by provider",
			zap.String("reference", req.Reference),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("payment: provider returned status %d", resp.StatusCode)
	}

	var parsed chargeResponseBody
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("payment: failed to parse response: %w", err)
	}

	result := &payment.ChargeResult{
		TransactionID: parsed.TransactionID,
		Succeeded:     parsed.Status == "approved",
		FailureReason: parsed.Reason,
	}

	g.logger.Info("charge processed",
		zap.String("reference", req.Reference),
		zap.String("transaction_id", parsed.TransactionID),
		zap.Bool("succeeded", result.Succeeded),
	)

	return result, nil
}

var _ payment.Gateway = (*HTTPGateway)(nil)
