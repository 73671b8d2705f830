// Package intent holds the unit of work of a donation attempt and its
// durable storage. An intent survives the process being torn down by an
// external wallet hand-off; the correlation id is the only key tying the
// pre-redirect attempt to its post-redirect callback.
package intent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/currency"
)

// Status is the lifecycle state of a donation intent.
type Status string

const (
	StatusDraft                  Status = "draft"
	StatusAwaitingSignature      Status = "awaiting_signature"
	StatusSubmitted              Status = "submitted"
	StatusAwaitingRedirectReturn Status = "awaiting_redirect_return"
	StatusRecorded               Status = "recorded"
	StatusFailed                 Status = "failed"
)

// Route is how the transfer reaches a wallet.
type Route string

const (
	RouteInjected Route = "injected"
	RouteDeepLink Route = "deeplink"
)

var allowedTransitions = map[Status][]Status{
	StatusDraft:                  {StatusAwaitingSignature},
	StatusAwaitingSignature:      {StatusSubmitted, StatusAwaitingRedirectReturn, StatusFailed},
	StatusAwaitingRedirectReturn: {StatusSubmitted, StatusFailed},
	StatusSubmitted:              {StatusRecorded},
}

// DonationIntent is one donation attempt. CampaignID, Amount, Currency and
// the donor fields are immutable once created; only Status and TxHash change.
type DonationIntent struct {
	CorrelationID string            `json:"correlation_id"`
	CampaignID    int64             `json:"campaign_id"`
	Amount        string            `json:"amount"`
	Currency      currency.Currency `json:"currency"`
	DonorName     string            `json:"donor_name"`
	DonorMessage  string            `json:"donor_message"`
	Route         Route             `json:"route"`
	WalletApp     string            `json:"wallet_app,omitempty"`
	Status        Status            `json:"status"`
	TxHash        string            `json:"tx_hash,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// New creates a draft intent with a fresh correlation id and the default
// ambiguity window.
func New(campaignID int64, amount string, c currency.Currency, donorName, donorMessage string) *DonationIntent {
	now := time.Now().UTC()
	return &DonationIntent{
		CorrelationID: uuid.NewString(),
		CampaignID:    campaignID,
		Amount:        amount,
		Currency:      c,
		DonorName:     donorName,
		DonorMessage:  donorMessage,
		Status:        StatusDraft,
		CreatedAt:     now,
		ExpiresAt:     now.Add(constants.DefaultIntentExpiry),
	}
}

// TransitionTo moves the intent to the next status, enforcing the lifecycle
// and the rule that a transaction hash is set before an intent is recorded.
func (i *DonationIntent) TransitionTo(next Status) error {
	if next == StatusRecorded && i.TxHash == "" {
		return fmt.Errorf("intent %s cannot be recorded without a transaction hash", i.CorrelationID)
	}
	for _, allowed := range allowedTransitions[i.Status] {
		if allowed == next {
			i.Status = next
			return nil
		}
	}
	return fmt.Errorf("intent %s: illegal transition %s -> %s", i.CorrelationID, i.Status, next)
}

// Active reports whether the intent is mid-flight: a second donation attempt
// must not start while one of these exists. A submitted transfer stays active
// until its record lands.
func (i *DonationIntent) Active() bool {
	return i.Status == StatusAwaitingSignature ||
		i.Status == StatusAwaitingRedirectReturn ||
		i.Status == StatusSubmitted
}

// Terminal reports whether the intent reached a final state.
func (i *DonationIntent) Terminal() bool {
	return i.Status == StatusRecorded || i.Status == StatusFailed
}

// Expired reports whether the ambiguity window has elapsed.
func (i *DonationIntent) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
