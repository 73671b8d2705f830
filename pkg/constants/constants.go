package constants

import "time"

const (
	DelayBetweenRPCCalls    = 200              // delay in milliseconds between RPC calls
	BroadcastTimeout        = 30 * time.Second // timeout for broadcasting a transfer
	RecentTransfersTimeout  = 10 * time.Second // timeout for account history lookups
	BackendTimeout          = 30 * time.Second // timeout for backend API calls
	TLSHandshakeTimeout     = 10 * time.Second // timeout for TLS handshake
	ResponseHeaderTimeout   = 20 * time.Second // timeout for response header
	ExpectContinueTimeout   = 1 * time.Second  // timeout for expect continue
	MaxResponseBodySize     = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
	DefaultIntentExpiry     = 15 * time.Minute // ambiguity window for a redirected donation
	DefaultFeedPollInterval = 15 * time.Second // donation feed refresh interval
	DefaultRecoveryLookback = 10               // recent transfers inspected during recovery
	AmountMatchToleranceBps = 100              // recovery amount tolerance in basis points (1%)
)

// Query keys carried on the return URL after an external wallet hand-off.
// The correlation id lives on the return URL itself because wallet apps are
// not guaranteed to echo their own deep-link parameters back.
const (
	CorrelationIDQueryParam = "correlation_id"
	TxHashQueryParam        = "tx_hash"
	WalletErrorQueryParam   = "wallet_error"
)

// Chain families
const (
	FamilyEVM = "evm"
	FamilySVM = "svm"
)

// Network names
const (
	NetworkEthereum = "ethereum"
	NetworkSolana   = "solana"
)

// mapping from network name to numeric chain ID (EVM networks only)
var NetworkToChainID = map[string]int64{
	NetworkEthereum: 1,
}

var OfficialRPCEndpoints = map[string][]string{
	NetworkEthereum: {"https://eth.llamarpc.com", "https://cloudflare-eth.com"},
	NetworkSolana:   {"https://api.mainnet-beta.solana.com"},
}

// External wallet deep-link bases. Each wallet app publishes its own
// universal-link scheme and parameter naming.
const (
	MetaMaskDeepLinkBase    = "https://metamask.app.link/send"
	TrustWalletDeepLinkBase = "https://link.trustwallet.com/send"
	PhantomDeepLinkBase     = "https://phantom.app/ul/v1/send"
)
