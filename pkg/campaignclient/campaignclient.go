// Package campaignclient talks to the donation backend: campaign reads,
// donation lists, and the idempotent donation record write.
package campaignclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/types"
)

// Client provides access to the campaign backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// accessToken, when set, is attached as a bearer token to every call.
	accessToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithAccessToken attaches a bearer token to backend calls.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// New creates a backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: constants.BackendTimeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   constants.TLSHandshakeTimeout,
				ResponseHeaderTimeout: constants.ResponseHeaderTimeout,
				ExpectContinueTimeout: constants.ExpectContinueTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) headers() map[string]string {
	if c.accessToken == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.accessToken}
}

// GetCampaign fetches a campaign record.
// GET /campaigns/{id}
func (c *Client) GetCampaign(ctx context.Context, campaignID int64) (*types.Campaign, error) {
	var campaign types.Campaign
	url := fmt.Sprintf("%s/campaigns/%d", c.baseURL, campaignID)
	if err := httpRequest(ctx, c.httpClient, http.MethodGet, url, nil, c.headers(), &campaign); err != nil {
		return nil, fmt.Errorf("failed to fetch campaign %d: %w", campaignID, err)
	}
	return &campaign, nil
}

// ListDonations fetches the ordered donation list for a campaign.
// GET /campaigns/{id}/donations
func (c *Client) ListDonations(ctx context.Context, campaignID int64) ([]types.Donation, error) {
	var donations []types.Donation
	url := fmt.Sprintf("%s/campaigns/%d/donations", c.baseURL, campaignID)
	if err := httpRequest(ctx, c.httpClient, http.MethodGet, url, nil, c.headers(), &donations); err != nil {
		return nil, fmt.Errorf("failed to fetch donations for campaign %d: %w", campaignID, err)
	}
	return donations, nil
}

// RecordingError is a failed donation record write. The on-chain transfer
// already happened by the time this is returned, so callers must surface it
// as a recording problem, never as a failed payment.
type RecordingError struct {
	Retryable bool
	Err       error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("recording failed (retryable=%t): %v", e.Retryable, e.Err)
}

func (e *RecordingError) Unwrap() error {
	return e.Err
}

// RecordDonation persists a completed transfer as a donation.
// POST /campaigns/{id}/donate
//
// The backend deduplicates on correlation id; a 409 response means the
// record already exists and is treated as success.
func (c *Client) RecordDonation(ctx context.Context, campaignID int64, req *types.DonateRequest) error {
	if req.CorrelationID == "" {
		return &RecordingError{Retryable: false, Err: fmt.Errorf("correlation id is required")}
	}
	if req.TxHash == "" {
		return &RecordingError{Retryable: false, Err: fmt.Errorf("transaction hash is required")}
	}

	url := fmt.Sprintf("%s/campaigns/%d/donate", c.baseURL, campaignID)
	err := httpRequest(ctx, c.httpClient, http.MethodPost, url, req, c.headers(), nil)
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsConflict() {
			// Already recorded under this correlation id: idempotent no-op.
			return nil
		}
		return &RecordingError{Retryable: httpErr.IsRetryable(), Err: err}
	}
	// Network-level failures are worth retrying.
	return &RecordingError{Retryable: true, Err: err}
}
