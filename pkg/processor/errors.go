package processor

import "errors"

// ErrWalletUnavailable means no injected provider was reachable and no
// external wallet app was chosen. The caller should prompt for wallet
// selection; this is not a hard failure.
var ErrWalletUnavailable = errors.New("no wallet available")

// ErrDonationInFlight means another donation attempt from this context is
// still awaiting a signature or a redirect return.
var ErrDonationInFlight = errors.New("a donation is already in flight")
