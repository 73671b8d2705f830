package transfer

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/streamfund/donorpay/pkg/currency"
)

// buildSolana assembles an SVM instruction. The funding account is only
// known to the signing wallet, so the instruction carries the validated
// destination and lamport value; the chain client composes the
// system-program transfer around the connected account at send time.
func buildSolana(c currency.Currency, detail currency.Detail, value *big.Int, destination string) (*Instruction, error) {
	if _, err := solana.PublicKeyFromBase58(destination); err != nil {
		return nil, fmt.Errorf("%w: %q is not a Solana address: %v", ErrInvalidAddress, destination, err)
	}
	if !value.IsUint64() {
		return nil, fmt.Errorf("%w: %s lamports overflows uint64", ErrInvalidAmount, value)
	}

	return &Instruction{
		Currency: c,
		Kind:     detail.Kind,
		Family:   detail.Family,
		Network:  detail.Network,
		To:       destination,
		Value:    value,
	}, nil
}
