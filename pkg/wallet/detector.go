// Package wallet decides how a donation reaches a wallet: an injected
// provider in the current execution context, or a deep link into an external
// wallet application.
package wallet

import "context"

// Platform hints which external wallets are plausible when no injected
// provider is reachable.
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
	PlatformUnknown Platform = "unknown"
)

// Capability is the result of probing for a wallet at the moment of payment.
type Capability struct {
	// Injected is true when a wallet provider is directly reachable in the
	// current execution context.
	Injected bool

	// Platform is a hint for wallet selection when Injected is false.
	Platform Platform
}

// Detector probes for an injected wallet provider. Detect must be called at
// the moment of payment, not at startup: a provider can appear or disappear
// between render and submit. Implementations must be side-effect free.
type Detector interface {
	Detect(ctx context.Context) Capability
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context) Capability

func (f DetectorFunc) Detect(ctx context.Context) Capability {
	return f(ctx)
}

// ProviderDetector reports an injected provider whenever Probe returns true.
// Probe runs on every Detect call so the answer reflects the provider's
// state right now.
type ProviderDetector struct {
	Probe    func(ctx context.Context) bool
	Platform Platform
}

var _ Detector = (*ProviderDetector)(nil)

func (d *ProviderDetector) Detect(ctx context.Context) Capability {
	platform := d.Platform
	if platform == "" {
		platform = PlatformUnknown
	}
	injected := d.Probe != nil && d.Probe(ctx)
	return Capability{Injected: injected, Platform: platform}
}
