package currency

import (
	"fmt"

	"github.com/streamfund/donorpay/pkg/constants"
)

// Kind distinguishes a value transfer of the chain's base asset from a
// contract call moving a secondary asset.
type Kind string

const (
	KindNative Kind = "native"
	KindToken  Kind = "token"
)

// Currency identifies a supported donation currency.
type Currency string

const (
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
	USDC Currency = "USDC"
	SOL  Currency = "SOL"
)

// Detail describes how a currency is transferred on-chain.
// Decimals is the currency's OWN declared precision, never the precision of
// the chain it happens to live on.
type Detail struct {
	Kind            Kind
	Family          string // constants.FamilyEVM or constants.FamilySVM
	Network         string
	Decimals        uint8
	ContractAddress string // empty for native currencies
	Symbol          string
}

var catalog = map[Currency]Detail{
	ETH: {
		Kind:     KindNative,
		Family:   constants.FamilyEVM,
		Network:  constants.NetworkEthereum,
		Decimals: 18,
		Symbol:   "ETH",
	},
	USDT: {
		Kind:            KindToken,
		Family:          constants.FamilyEVM,
		Network:         constants.NetworkEthereum,
		Decimals:        6,
		ContractAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		Symbol:          "USDT",
	},
	USDC: {
		Kind:            KindToken,
		Family:          constants.FamilyEVM,
		Network:         constants.NetworkEthereum,
		Decimals:        6,
		ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Symbol:          "USDC",
	},
	SOL: {
		Kind:     KindNative,
		Family:   constants.FamilySVM,
		Network:  constants.NetworkSolana,
		Decimals: 9,
		Symbol:   "SOL",
	},
}

// Lookup returns the transfer details for a currency.
func Lookup(c Currency) (Detail, error) {
	detail, ok := catalog[c]
	if !ok {
		return Detail{}, fmt.Errorf("currency %q not in catalog", c)
	}
	return detail, nil
}

// IsSupported checks whether a currency is in the catalog.
func IsSupported(c Currency) bool {
	_, ok := catalog[c]
	return ok
}

// Supported returns all catalog currencies.
func Supported() []Currency {
	currencies := make([]Currency, 0, len(catalog))
	for c := range catalog {
		currencies = append(currencies, c)
	}
	return currencies
}
