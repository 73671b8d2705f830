package processor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/streamfund/donorpay/pkg/chainclient"
	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/currency"
	"github.com/streamfund/donorpay/pkg/intent"
	"github.com/streamfund/donorpay/pkg/transfer"
)

// ReconcileOutcome says what became of a stored intent on (re)load.
type ReconcileOutcome string

const (
	// ReconcileNone: nothing was pending.
	ReconcileNone ReconcileOutcome = "none"

	// ReconcileRecorded: the intent resolved and was durably recorded.
	ReconcileRecorded ReconcileOutcome = "recorded"

	// ReconcileRecordingPending: the transfer resolved but the backend
	// write failed; surface as "payment succeeded, recording pending".
	ReconcileRecordingPending ReconcileOutcome = "recording_pending"

	// ReconcileFailed: the wallet reported an explicit error; no funds
	// moved.
	ReconcileFailed ReconcileOutcome = "failed"

	// ReconcileExpired: the ambiguity window elapsed without a result; the
	// intent was abandoned.
	ReconcileExpired ReconcileOutcome = "expired"

	// ReconcileCheckWallet: no explicit result and no recovered transfer
	// yet, but the window is still open. The user should check their
	// wallet; reconciliation will run again on the next load.
	ReconcileCheckWallet ReconcileOutcome = "check_wallet"
)

// ReconcileResult reports how a pending intent was driven forward.
type ReconcileResult struct {
	Outcome      ReconcileOutcome
	Intent       *intent.DonationIntent
	RecordingErr error
}

// Reconcile runs once per host start, before any new donation is accepted.
// It inspects the store and the inbound callback parameters and drives any
// pending intent to a terminal or still-awaiting state.
func (p *DonationProcessor) Reconcile(ctx context.Context, inbound url.Values) (*ReconcileResult, error) {
	pending, err := p.loadPending(ctx, inbound.Get(constants.CorrelationIDQueryParam))
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return &ReconcileResult{Outcome: ReconcileNone}, nil
	}

	// A transfer already submitted just needs its record resent; the
	// recorder is idempotent under the correlation id.
	if pending.Status == intent.StatusSubmitted {
		return p.reconcileResolved(ctx, pending)
	}

	if txHash := inbound.Get(constants.TxHashQueryParam); txHash != "" {
		// Explicit result: no recovery needed.
		pending.TxHash = txHash
		if err := pending.TransitionTo(intent.StatusSubmitted); err != nil {
			return nil, err
		}
		return p.reconcileResolved(ctx, pending)
	}

	if walletErr := inbound.Get(constants.WalletErrorQueryParam); walletErr != "" {
		p.logger.Info("wallet returned explicit error",
			"correlationId", pending.CorrelationID, "walletError", walletErr)
		return p.reconcileFailed(ctx, pending, ReconcileFailed)
	}

	// Some wallet apps return control without any payload. Ask the chain
	// for the account's latest transfers and accept one only if it matches
	// the stored intent.
	recovered, err := p.recoverFromHistory(ctx, pending)
	if err != nil {
		p.logger.Warn("history recovery unavailable",
			"correlationId", pending.CorrelationID, "error", err)
	}
	if recovered != "" {
		pending.TxHash = recovered
		if err := pending.TransitionTo(intent.StatusSubmitted); err != nil {
			return nil, err
		}
		p.logger.Info("recovered transfer from account history",
			"correlationId", pending.CorrelationID, "txHash", recovered)
		return p.reconcileResolved(ctx, pending)
	}

	if pending.Expired(p.now()) {
		p.logger.Warn("abandoning expired intent without result",
			"correlationId", pending.CorrelationID)
		return p.reconcileFailed(ctx, pending, ReconcileExpired)
	}

	// Outcome still ambiguous and the window is open: keep the intent and
	// re-prompt rather than silently failing.
	return &ReconcileResult{Outcome: ReconcileCheckWallet, Intent: pending}, nil
}

// loadPending finds the intent to reconcile: by inbound correlation id when
// present, otherwise whatever was left awaiting a redirect return.
func (p *DonationProcessor) loadPending(ctx context.Context, correlationID string) (*intent.DonationIntent, error) {
	if correlationID != "" {
		pending, err := p.store.Load(ctx, correlationID)
		if errors.Is(err, intent.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load intent %s: %w", correlationID, err)
		}
		return pending, nil
	}

	pending, err := p.store.LoadAwaitingReturn(ctx)
	if errors.Is(err, intent.ErrNotFound) {
		// Also pick up intents stranded mid-flight by a crash, e.g. a
		// broadcast whose record never went out.
		pending, err = p.store.LoadActive(ctx)
	}
	if errors.Is(err, intent.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending intent: %w", err)
	}
	return pending, nil
}

// reconcileResolved hands a submitted intent to the recorder exactly once
// and clears it from the store regardless of the recorder outcome.
func (p *DonationProcessor) reconcileResolved(ctx context.Context, pending *intent.DonationIntent) (*ReconcileResult, error) {
	result, err := p.finishRecording(ctx, pending)
	if err != nil {
		return nil, err
	}
	out := &ReconcileResult{Intent: result.Intent, RecordingErr: result.RecordingErr}
	switch result.Outcome {
	case OutcomeRecordingPending:
		out.Outcome = ReconcileRecordingPending
	default:
		out.Outcome = ReconcileRecorded
	}
	return out, nil
}

func (p *DonationProcessor) reconcileFailed(ctx context.Context, pending *intent.DonationIntent, outcome ReconcileOutcome) (*ReconcileResult, error) {
	if err := pending.TransitionTo(intent.StatusFailed); err != nil {
		return nil, err
	}
	if err := p.store.Delete(ctx, pending.CorrelationID); err != nil {
		p.logger.Warn("failed to clear failed intent", "error", err)
	}
	return &ReconcileResult{Outcome: outcome, Intent: pending}, nil
}

// recoverFromHistory looks for the connected account's most recent transfer
// matching the stored intent. The destination and amount checks keep an
// unrelated transaction from being claimed as this donation.
func (p *DonationProcessor) recoverFromHistory(ctx context.Context, pending *intent.DonationIntent) (string, error) {
	if p.chain == nil {
		return "", fmt.Errorf("no chain client configured")
	}

	campaign, err := p.backend.GetCampaign(ctx, pending.CampaignID)
	if err != nil {
		return "", fmt.Errorf("load campaign %d: %w", pending.CampaignID, err)
	}

	// Re-run the builder to learn the expected destination, asset and
	// base-unit value for the stored amount.
	expected, err := transfer.Build(pending.Currency, pending.Amount, campaign.WalletAddress)
	if err != nil {
		return "", fmt.Errorf("rebuild expected transfer: %w", err)
	}

	account, err := p.chain.Account(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve connected account: %w", err)
	}

	transfers, err := p.chain.RecentTransfers(ctx, account, constants.DefaultRecoveryLookback)
	if err != nil {
		return "", fmt.Errorf("fetch recent transfers: %w", err)
	}

	for _, observed := range transfers {
		if matchesIntent(expected, observed) {
			return observed.Hash, nil
		}
	}
	return "", nil
}

// matchesIntent accepts an observed transfer as the intent's result only if
// destination, asset and rough amount all line up.
func matchesIntent(expected *transfer.Instruction, observed chainclient.Transfer) bool {
	if !addressesEqual(expected.Family, expected.To, observed.To) {
		return false
	}

	expectedAsset := expected.Contract
	if expected.Kind == currency.KindNative {
		expectedAsset = ""
	}
	if (expectedAsset == "") != (observed.Asset == "") {
		return false
	}
	if expectedAsset != "" && !addressesEqual(expected.Family, expectedAsset, observed.Asset) {
		return false
	}

	return amountRoughlyEqual(expected.Value, observed.Value)
}

// addressesEqual compares addresses under chain-family rules: EVM addresses
// are case-insensitive (EIP-55 checksumming), base58 addresses are not.
func addressesEqual(family, a, b string) bool {
	if family == constants.FamilyEVM {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// amountRoughlyEqual allows a small tolerance around the expected value:
// some wallets shave dust or round the entered amount.
func amountRoughlyEqual(expected, observed *big.Int) bool {
	if expected == nil || observed == nil || observed.Sign() <= 0 {
		return false
	}
	diff := new(big.Int).Sub(expected, observed)
	diff.Abs(diff)
	// diff * 10000 <= expected * toleranceBps
	left := new(big.Int).Mul(diff, big.NewInt(10000))
	right := new(big.Int).Mul(expected, big.NewInt(constants.AmountMatchToleranceBps))
	return left.Cmp(right) <= 0
}
