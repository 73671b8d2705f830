// Package chainclient defines the capability surface the orchestrator needs
// from a wallet-connected chain client: broadcast a built transfer and read
// recent transfer history for an account. Signing internals belong to the
// wallet provider, not to this module.
package chainclient

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/streamfund/donorpay/pkg/transfer"
)

// ErrUserRejected means the wallet asked for a signature and the user
// declined. No funds moved.
var ErrUserRejected = errors.New("user rejected signature")

// ErrBroadcastFailed means the signed transaction could not be broadcast.
// No funds moved.
var ErrBroadcastFailed = errors.New("chain broadcast failed")

// Transfer is an observed on-chain transfer involving the connected account.
type Transfer struct {
	Hash  string
	From  string
	To    string
	Value *big.Int
	Asset string // token contract address, empty for a native transfer
}

// Client is an injected wallet provider bound to a connected account.
type Client interface {
	// Account returns the connected account's address.
	Account(ctx context.Context) (string, error)

	// Send signs and broadcasts the instruction, returning the transaction
	// hash. Errors wrap ErrUserRejected or ErrBroadcastFailed.
	Send(ctx context.Context, instruction *transfer.Instruction) (string, error)

	// RecentTransfers returns the most recent outbound transfers for the
	// account, newest first.
	RecentTransfers(ctx context.Context, account string, limit int) ([]Transfer, error)
}

// IsUserRejection classifies provider errors that mean the user declined to
// sign. Providers phrase this differently, so match on the usual wordings.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "rejected by user")
}
