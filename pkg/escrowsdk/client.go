package escrowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a client for the escrow service. Authenticated endpoints use the
// bearer token set on the client; the payment webhook uses the shared
// webhook secret. The service never issues tokens itself, so both are
// supplied by the caller.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is the marketplace-issued JWT sent as a bearer credential on
	// authenticated endpoints. Empty means unauthenticated calls only.
	Token string

	// WebhookSecret authenticates PaymentCompleted calls. Only the payment
	// collaborator integration needs it.
	WebhookSecret string
}

// NewClient creates a new escrow service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithToken returns a shallow copy of the client using the given bearer
// token. Handy when one process acts as several users.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.Token = token
	return &clone
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	payload any,
	headers map[string]string,
	target any,
	expectedStatus int,
) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// RegisterSubscription mirrors a marketplace listing into escrow. Redelivery
// of a known id returns the stored record unchanged. Authenticated by the
// shared webhook secret.
func (c *Client) RegisterSubscription(
	ctx context.Context,
	listing RegisterSubscriptionRequest,
) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/subscriptions",
		listing,
		map[string]string{"X-Escrow-Webhook-Secret": c.WebhookSecret},
		&out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveInstructions authors or replaces the seller's access instructions for
// one subscription. Requires the escrow:write scope.
func (c *Client) SaveInstructions(
	ctx context.Context,
	subscriptionID, instructions string,
) (*SaveInstructionsResponse, error) {
	var out SaveInstructionsResponse
	err := c.doJSON(ctx,
		http.MethodPut, "/v1/subscriptions/"+url.PathEscape(subscriptionID)+"/instructions",
		SaveInstructionsRequest{Instructions: instructions},
		nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentCompleted delivers a completed-payment signal. The returned token
// appears exactly once; the caller must forward it to the buyer immediately.
func (c *Client) PaymentCompleted(
	ctx context.Context,
	signal PaymentCompletedRequest,
) (*PaymentCompletedResponse, error) {
	var out PaymentCompletedResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/payments/completed",
		signal,
		map[string]string{"X-Escrow-Webhook-Secret": c.WebhookSecret},
		&out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Disclose redeems a one-time token for the purchase's access instructions.
// The token is burned whether or not the call succeeds downstream, so the
// caller must be ready to display the result.
func (c *Client) Disclose(
	ctx context.Context,
	purchaseID, token string,
) (*DisclosureResponse, error) {
	var out DisclosureResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/disclosures/"+url.PathEscape(purchaseID),
		map[string]string{"token": token},
		nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPurchase returns the fulfillment status of one purchase. Only the buyer
// or seller on the purchase may read it.
func (c *Client) GetPurchase(ctx context.Context, purchaseID string) (*PurchaseResponse, error) {
	var out PurchaseResponse
	err := c.doJSON(ctx,
		http.MethodGet, "/v1/purchases/"+url.PathEscape(purchaseID),
		nil, nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmOutcome records the buyer's verdict on disclosed credentials.
// Working finalizes the purchase; not working opens a dispute.
func (c *Client) ConfirmOutcome(
	ctx context.Context,
	purchaseID string,
	working bool,
) (*PurchaseResponse, error) {
	var out PurchaseResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/purchases/"+url.PathEscape(purchaseID)+"/confirm",
		ConfirmOutcomeRequest{Working: working},
		nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPurchaseDispute returns the open dispute attached to one purchase.
// Only the buyer or seller on the purchase may look it up.
func (c *Client) GetPurchaseDispute(ctx context.Context, purchaseID string) (*DisputeResponse, error) {
	var out DisputeResponse
	err := c.doJSON(ctx,
		http.MethodGet, "/v1/purchases/"+url.PathEscape(purchaseID)+"/dispute",
		nil, nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDispute returns one dispute record.
func (c *Client) GetDispute(ctx context.Context, disputeID string) (*DisputeResponse, error) {
	var out DisputeResponse
	err := c.doJSON(ctx,
		http.MethodGet, "/v1/disputes/"+url.PathEscape(disputeID),
		nil, nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveDispute closes an open dispute by reviewer decision. Requires the
// escrow:admin scope.
func (c *Client) ResolveDispute(
	ctx context.Context,
	disputeID, note string,
) (*DisputeResponse, error) {
	var out DisputeResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/disputes/"+url.PathEscape(disputeID)+"/resolve",
		ResolveDisputeRequest{Note: note},
		nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RotateKey retires the active key for a scope and installs a fresh pair.
// Requires the escrow:admin scope.
func (c *Client) RotateKey(ctx context.Context, req RotateKeyRequest) (*KeyResponse, error) {
	var out KeyResponse
	err := c.doJSON(ctx,
		http.MethodPost, "/v1/keys/rotate",
		req,
		nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RotationDue lists keys whose expiry falls inside the rotation lead window.
// Requires the escrow:admin scope.
func (c *Client) RotationDue(ctx context.Context) (*RotationDueResponse, error) {
	var out RotationDueResponse
	err := c.doJSON(ctx,
		http.MethodGet, "/v1/keys/rotation-due",
		nil, nil, &out, http.StatusOK,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AuditHistory returns recent audit events for one resource, newest first.
// Requires the escrow:admin scope. Limit zero means the server default.
func (c *Client) AuditHistory(
	ctx context.Context,
	resourceType, resourceID string,
	limit int,
) ([]AuditEventResponse, error) {
	path := "/v1/audit/" + url.PathEscape(resourceType) + "/" + url.PathEscape(resourceID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out []AuditEventResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// Livez reports process liveness.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz reports dependency readiness. A degraded service answers 503 with
// the same body shape, which surfaces here as an APIError.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
