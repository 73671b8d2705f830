// Package processor orchestrates a donation from amount entry through an
// on-chain transfer, an optional hand-off to an external wallet app and
// back, to a durable idempotent record on the backend.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/streamfund/donorpay/pkg/campaignclient"
	"github.com/streamfund/donorpay/pkg/chainclient"
	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/currency"
	"github.com/streamfund/donorpay/pkg/intent"
	"github.com/streamfund/donorpay/pkg/transfer"
	"github.com/streamfund/donorpay/pkg/types"
	"github.com/streamfund/donorpay/pkg/wallet"
)

// Config wires the orchestrator's collaborators.
type Config struct {
	Backend  *campaignclient.Client
	Store    intent.Store
	Detector wallet.Detector
	Chain    chainclient.Client

	// Navigate performs the hand-off to an external wallet app.
	Navigate wallet.Navigator

	// ReturnURL is the fully-qualified URL of the donation page a wallet
	// app sends the user back to.
	ReturnURL string

	// IntentExpiry bounds how long an unresolved intent stays reconcilable.
	// Zero selects the default ambiguity window.
	IntentExpiry time.Duration

	Logger *slog.Logger
}

// DonationProcessor drives donation intents to a terminal state.
type DonationProcessor struct {
	backend   *campaignclient.Client
	store     intent.Store
	detector  wallet.Detector
	chain     chainclient.Client
	navigate  wallet.Navigator
	returnURL string
	expiry    time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a donation processor.
func New(cfg *Config) (*DonationProcessor, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("intent store is required")
	}
	if cfg.Detector == nil {
		return nil, fmt.Errorf("wallet detector is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	expiry := cfg.IntentExpiry
	if expiry <= 0 {
		expiry = constants.DefaultIntentExpiry
	}
	return &DonationProcessor{
		backend:   cfg.Backend,
		store:     cfg.Store,
		detector:  cfg.Detector,
		chain:     cfg.Chain,
		navigate:  cfg.Navigate,
		returnURL: cfg.ReturnURL,
		expiry:    expiry,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// DonationRequest is a donation attempt as collected by the UI.
type DonationRequest struct {
	CampaignID   int64
	Amount       string
	Currency     currency.Currency
	DonorName    string
	DonorMessage string

	// WalletApp is the external wallet chosen for a deep-link hand-off.
	// Ignored while an injected provider is reachable; required otherwise.
	WalletApp wallet.AppKind
}

// Outcome says how far a donation attempt got.
type Outcome string

const (
	// OutcomeRecorded: transfer confirmed and durably recorded.
	OutcomeRecorded Outcome = "recorded"

	// OutcomeRedirected: control handed to an external wallet app; the
	// intent awaits the redirect return.
	OutcomeRedirected Outcome = "redirected"

	// OutcomeRecordingPending: the transfer happened but the backend write
	// failed. This is a recording problem, never a failed payment.
	OutcomeRecordingPending Outcome = "recording_pending"
)

// DonationResult is the result of a resolved or handed-off donation attempt.
type DonationResult struct {
	Outcome Outcome
	Intent  *intent.DonationIntent

	// DeepLink is set when Outcome is OutcomeRedirected.
	DeepLink *url.URL

	// RecordingErr is set when Outcome is OutcomeRecordingPending.
	RecordingErr error
}

// Donate runs one donation attempt. With an injected provider it signs,
// broadcasts and records in-process; otherwise it persists the intent and
// hands off to the chosen external wallet app.
func (p *DonationProcessor) Donate(ctx context.Context, req *DonationRequest) (*DonationResult, error) {
	campaign, err := p.backend.GetCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}

	instruction, err := transfer.Build(req.Currency, req.Amount, campaign.WalletAddress)
	if err != nil {
		return nil, err
	}

	if err := p.guardSingleActive(ctx); err != nil {
		return nil, err
	}

	donation := intent.New(req.CampaignID, req.Amount, req.Currency, req.DonorName, req.DonorMessage)
	donation.ExpiresAt = donation.CreatedAt.Add(p.expiry)

	capability := p.detector.Detect(ctx)
	if capability.Injected {
		return p.donateInjected(ctx, donation, instruction)
	}
	return p.donateRedirect(ctx, donation, instruction, req.WalletApp, capability)
}

// guardSingleActive enforces the one-live-intent rule. A leftover active
// intent whose ambiguity window elapsed is abandoned here rather than
// blocking donations forever.
func (p *DonationProcessor) guardSingleActive(ctx context.Context) error {
	active, err := p.store.LoadActive(ctx)
	if errors.Is(err, intent.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check in-flight intents: %w", err)
	}
	if !active.Expired(p.now()) {
		return fmt.Errorf("%w: intent %s is %s", ErrDonationInFlight, active.CorrelationID, active.Status)
	}
	if active.Status == intent.StatusSubmitted {
		// Funds moved but the record never went out. Send it before
		// clearing; dropping it would lose a confirmed transfer.
		p.logger.Warn("recording transfer left behind by an earlier run",
			"correlationId", active.CorrelationID, "txHash", active.TxHash)
		_, err := p.finishRecording(ctx, active)
		return err
	}
	p.logger.Warn("abandoning expired donation intent",
		"correlationId", active.CorrelationID, "status", active.Status)
	return p.store.Delete(ctx, active.CorrelationID)
}

// donateInjected signs and broadcasts through the injected provider.
func (p *DonationProcessor) donateInjected(ctx context.Context, donation *intent.DonationIntent, instruction *transfer.Instruction) (*DonationResult, error) {
	if p.chain == nil {
		return nil, fmt.Errorf("%w: injected provider detected but no chain client configured", ErrWalletUnavailable)
	}

	donation.Route = intent.RouteInjected
	if err := donation.TransitionTo(intent.StatusAwaitingSignature); err != nil {
		return nil, err
	}
	if err := p.store.Save(ctx, donation); err != nil {
		return nil, fmt.Errorf("persist intent: %w", err)
	}

	p.logger.Info("requesting wallet signature",
		"correlationId", donation.CorrelationID,
		"currency", donation.Currency,
		"amount", donation.Amount)

	sendCtx, cancel := context.WithTimeout(ctx, constants.BroadcastTimeout)
	defer cancel()

	txHash, err := p.chain.Send(sendCtx, instruction)
	if err != nil {
		// No funds moved: terminal failure, intent cleared.
		_ = donation.TransitionTo(intent.StatusFailed)
		_ = p.store.Delete(ctx, donation.CorrelationID)
		if chainclient.IsUserRejection(err) {
			return nil, fmt.Errorf("%w: %v", chainclient.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("%w: %v", chainclient.ErrBroadcastFailed, err)
	}

	donation.TxHash = txHash
	if err := donation.TransitionTo(intent.StatusSubmitted); err != nil {
		return nil, err
	}
	if err := p.store.Save(ctx, donation); err != nil {
		p.logger.Warn("failed to persist submitted intent", "error", err)
	}

	p.logger.Info("transfer broadcast", "correlationId", donation.CorrelationID, "txHash", txHash)
	return p.finishRecording(ctx, donation)
}

// donateRedirect persists the intent and hands the user to an external
// wallet app. Persistence happens strictly before navigation: the hand-off
// may destroy this process immediately and synchronously.
func (p *DonationProcessor) donateRedirect(ctx context.Context, donation *intent.DonationIntent, instruction *transfer.Instruction, app wallet.AppKind, capability wallet.Capability) (*DonationResult, error) {
	if app == "" {
		return nil, fmt.Errorf("%w (platform %s): choose a wallet app", ErrWalletUnavailable, capability.Platform)
	}
	if p.navigate == nil {
		return nil, fmt.Errorf("%w: no navigator configured for deep links", ErrWalletUnavailable)
	}

	deepLink, err := wallet.BuildDeepLink(app, instruction.To, donation.Amount, donation.CorrelationID, p.returnURL)
	if err != nil {
		return nil, fmt.Errorf("build deep link: %w", err)
	}

	donation.Route = intent.RouteDeepLink
	donation.WalletApp = string(app)
	if err := donation.TransitionTo(intent.StatusAwaitingSignature); err != nil {
		return nil, err
	}
	if err := donation.TransitionTo(intent.StatusAwaitingRedirectReturn); err != nil {
		return nil, err
	}
	if err := p.store.Save(ctx, donation); err != nil {
		return nil, fmt.Errorf("persist intent before hand-off: %w", err)
	}

	p.logger.Info("handing off to wallet app",
		"correlationId", donation.CorrelationID, "app", app)

	if err := p.navigate(ctx, deepLink); err != nil {
		// The wallet app never opened; no signature was requested.
		_ = donation.TransitionTo(intent.StatusFailed)
		_ = p.store.Delete(ctx, donation.CorrelationID)
		return nil, fmt.Errorf("open wallet app %s: %w", app, err)
	}

	return &DonationResult{
		Outcome:  OutcomeRedirected,
		Intent:   donation,
		DeepLink: deepLink,
	}, nil
}

// finishRecording records a submitted transfer exactly once and clears the
// intent from durable storage regardless of the recorder outcome. A
// recorder failure is a recording problem; the chain transfer already
// happened.
func (p *DonationProcessor) finishRecording(ctx context.Context, donation *intent.DonationIntent) (*DonationResult, error) {
	result := &DonationResult{Intent: donation}

	if donation.Status == intent.StatusRecorded {
		// Local state already shows recorded: suppress the resend.
		result.Outcome = OutcomeRecorded
		return result, p.store.Delete(ctx, donation.CorrelationID)
	}

	err := p.backend.RecordDonation(ctx, donation.CampaignID, &types.DonateRequest{
		Name:          donation.DonorName,
		Message:       donation.DonorMessage,
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		TxHash:        donation.TxHash,
		CorrelationID: donation.CorrelationID,
	})
	if err != nil {
		p.logger.Error("donation recording failed",
			"correlationId", donation.CorrelationID,
			"txHash", donation.TxHash,
			"error", err)
		result.Outcome = OutcomeRecordingPending
		result.RecordingErr = err
	} else {
		if terr := donation.TransitionTo(intent.StatusRecorded); terr != nil {
			return nil, terr
		}
		p.logger.Info("donation recorded",
			"correlationId", donation.CorrelationID, "txHash", donation.TxHash)
		result.Outcome = OutcomeRecorded
	}

	if derr := p.store.Delete(ctx, donation.CorrelationID); derr != nil {
		p.logger.Warn("failed to clear resolved intent", "error", derr)
	}
	return result, nil
}
