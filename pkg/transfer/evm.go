package transfer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/streamfund/donorpay/pkg/currency"
)

const erc20TransferABI = `[{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

var erc20ABI = mustParseABI(erc20TransferABI)

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Sprintf("parse ERC-20 ABI: %v", err))
	}
	return parsed
}

// buildEVM assembles an EVM instruction: a plain value transfer for native
// currencies, or a token-contract call for ERC-20 currencies.
func buildEVM(c currency.Currency, detail currency.Detail, value *big.Int, destination string) (*Instruction, error) {
	if !common.IsHexAddress(destination) {
		return nil, fmt.Errorf("%w: %q is not an EVM address", ErrInvalidAddress, destination)
	}
	dest := common.HexToAddress(destination)

	instruction := &Instruction{
		Currency: c,
		Kind:     detail.Kind,
		Family:   detail.Family,
		Network:  detail.Network,
		To:       dest.Hex(),
		Value:    value,
	}

	if detail.Kind == currency.KindNative {
		return instruction, nil
	}

	callData, err := erc20ABI.Pack("transfer", dest, value)
	if err != nil {
		return nil, fmt.Errorf("pack transfer call: %w", err)
	}
	instruction.Contract = common.HexToAddress(detail.ContractAddress).Hex()
	instruction.CallData = callData
	return instruction, nil
}
