package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRefundGateway calls the payment collaborator's refund endpoint.
// Client errors from the collaborator are wrapped in ErrRefundRejected so
// the dispute resolver escalates instead of retrying; server errors and
// transport failures are returned as-is for retry.
type HTTPRefundGateway struct {
	URL    string
	Secret string // sent as X-Escrow-Webhook-Secret on outbound calls
	Client *http.Client
}

type refundRequest struct {
	PurchaseID  string `json:"purchase_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (g *HTTPRefundGateway) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (g *HTTPRefundGateway) Refund(ctx context.Context, purchaseID string, amountCents int64) error {
	body, err := json.Marshal(refundRequest{PurchaseID: purchaseID, AmountCents: amountCents})
	if err != nil {
		return fmt.Errorf("encode refund request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build refund request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Secret != "" {
		req.Header.Set("X-Escrow-Webhook-Secret", g.Secret)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return fmt.Errorf("refund call failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: gateway returned %d", ErrRefundRejected, resp.StatusCode)
	default:
		return fmt.Errorf("refund gateway returned %d", resp.StatusCode)
	}
}
