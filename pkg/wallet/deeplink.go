package wallet

import (
	"context"
	"fmt"
	"net/url"

	"github.com/streamfund/donorpay/pkg/constants"
)

// AppKind identifies an external wallet application reachable by deep link.
type AppKind string

const (
	AppMetaMask    AppKind = "metamask"
	AppTrustWallet AppKind = "trustwallet"
	AppPhantom     AppKind = "phantom"
)

// Navigator performs the context-destroying hand-off to an external wallet
// app. Callers must persist in-flight state BEFORE invoking it: navigation
// may tear down the running process immediately and synchronously.
type Navigator func(ctx context.Context, link *url.URL) error

// BuildDeepLink constructs the app-specific URL that hands control to an
// external wallet. The correlation id is embedded in the return URL's query
// string, not in the deep link's own parameters: wallet apps are not
// guaranteed to echo their parameters back on return.
func BuildDeepLink(app AppKind, destination, amount, correlationID, returnURL string) (*url.URL, error) {
	if destination == "" {
		return nil, fmt.Errorf("destination address is required")
	}
	if correlationID == "" {
		return nil, fmt.Errorf("correlation id is required")
	}

	callback, err := buildReturnURL(returnURL, correlationID)
	if err != nil {
		return nil, err
	}

	switch app {
	case AppMetaMask:
		link, _ := url.Parse(constants.MetaMaskDeepLinkBase)
		link.Path = link.Path + "/" + destination
		q := link.Query()
		q.Set("value", amount)
		q.Set("callbackUrl", callback)
		link.RawQuery = q.Encode()
		return link, nil

	case AppTrustWallet:
		link, _ := url.Parse(constants.TrustWalletDeepLinkBase)
		q := link.Query()
		q.Set("address", destination)
		q.Set("amount", amount)
		q.Set("callback_url", callback)
		link.RawQuery = q.Encode()
		return link, nil

	case AppPhantom:
		link, _ := url.Parse(constants.PhantomDeepLinkBase)
		q := link.Query()
		q.Set("recipient", destination)
		q.Set("amount", amount)
		q.Set("redirect_link", callback)
		link.RawQuery = q.Encode()
		return link, nil

	default:
		return nil, fmt.Errorf("unknown wallet app %q", app)
	}
}

// buildReturnURL validates the return URL and attaches the correlation id to
// its query string.
func buildReturnURL(returnURL, correlationID string) (string, error) {
	parsed, err := url.Parse(returnURL)
	if err != nil {
		return "", fmt.Errorf("invalid return URL %q: %w", returnURL, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", fmt.Errorf("return URL %q must be fully qualified", returnURL)
	}
	q := parsed.Query()
	q.Set(constants.CorrelationIDQueryParam, correlationID)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
