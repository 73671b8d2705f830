// Package transfer turns a donation amount into a single chain transfer
// instruction, scaled to the currency's own base units.
package transfer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/currency"
)

// Instruction is a chain transfer ready to be signed and broadcast by a
// wallet. Exactly one of the family-specific sections is meaningful,
// selected by Family.
type Instruction struct {
	Currency currency.Currency
	Kind     currency.Kind
	Family   string
	Network  string

	// To is the account ultimately credited: the campaign wallet.
	To string

	// Value is the transfer amount in the currency's smallest unit
	// (wei for ETH, lamports for SOL, token base units for ERC-20).
	Value *big.Int

	// Contract and CallData are set for token transfers: the instruction
	// becomes a call to Contract carrying ABI-packed transfer(to, value).
	Contract string
	CallData []byte
}

// Build produces a transfer instruction for the given currency, decimal
// amount string and destination address.
func Build(c currency.Currency, amount, destination string) (*Instruction, error) {
	detail, err := currency.Lookup(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, c)
	}

	value, err := scaleAmount(amount, detail.Decimals)
	if err != nil {
		return nil, err
	}

	switch detail.Family {
	case constants.FamilyEVM:
		return buildEVM(c, detail, value, destination)
	case constants.FamilySVM:
		return buildSolana(c, detail, value, destination)
	default:
		return nil, fmt.Errorf("%w: %s has unknown chain family %q", ErrUnsupportedCurrency, c, detail.Family)
	}
}

// scaleAmount converts a decimal amount string to base units using the
// currency's own declared decimal count.
func scaleAmount(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	whole := amount
	frac := ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole, frac = amount[:idx], amount[idx+1:]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrInvalidAmount, amount)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, amount, decimals)
	}

	// whole*10^decimals + frac padded to decimals digits
	scaled := new(big.Int)
	if _, ok := scaled.SetString(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), 10); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if scaled.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %q", ErrInvalidAmount, amount)
	}
	return scaled, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
