package types

import (
	"time"

	"github.com/streamfund/donorpay/pkg/currency"
)

// Campaign is a fundraising campaign record as served by the backend.
type Campaign struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Goal          string `json:"goal"`
	Collected     string `json:"collected"`
	WalletAddress string `json:"wallet_address"`
	CreatedAt     string `json:"created_at"`
}

// Donation is a recorded donation as served by the backend.
type Donation struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Message   string            `json:"message"`
	Amount    string            `json:"amount"`
	Currency  currency.Currency `json:"currency"`
	TxHash    string            `json:"tx_hash,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// DonateRequest is the body of POST /campaigns/{id}/donate.
// CorrelationID lets the backend deduplicate a resent record for the same
// on-chain transfer.
type DonateRequest struct {
	Name          string            `json:"name"`
	Message       string            `json:"message"`
	Amount        string            `json:"amount"`
	Currency      currency.Currency `json:"currency"`
	TxHash        string            `json:"tx_hash"`
	CorrelationID string            `json:"correlation_id"`
}
