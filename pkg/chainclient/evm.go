package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/streamfund/donorpay/pkg/constants"
)

// erc20TransferTopic is keccak256("Transfer(address,address,uint256)").
var erc20TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// EVMHistory reads recent transfer history for an account over JSON-RPC with
// endpoint failover. Wallet providers embed it to satisfy the
// RecentTransfers half of Client; it does no signing.
type EVMHistory struct {
	network       string
	chainID       int64
	endpoints     []string
	blockLookback uint64
}

// NewEVMHistory creates a history reader for an EVM network.
func NewEVMHistory(network string, chainID int64, endpoints []string) *EVMHistory {
	return &EVMHistory{
		network:       network,
		chainID:       chainID,
		endpoints:     endpoints,
		blockLookback: 50,
	}
}

// RecentTransfers returns the account's most recent outbound transfers,
// newest first: native value transfers from scanned blocks plus ERC-20
// Transfer events filtered by sender.
func (h *EVMHistory) RecentTransfers(ctx context.Context, account string, limit int) ([]Transfer, error) {
	if len(h.endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured for network %s", h.network)
	}
	if limit <= 0 {
		limit = constants.DefaultRecoveryLookback
	}

	var lastErr error
	for i, endpoint := range h.endpoints {
		if i > 0 {
			time.Sleep(time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond)
		}

		client, err := ethclient.Dial(endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		transfers, err := h.collect(ctx, client, common.HexToAddress(account), limit)
		client.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return transfers, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for network %s: %w", h.network, lastErr)
}

type observed struct {
	transfer Transfer
	block    uint64
	txIndex  uint
}

func (h *EVMHistory) collect(ctx context.Context, client *ethclient.Client, account common.Address, limit int) ([]Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RecentTransfersTimeout)
	defer cancel()

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch head block: %w", err)
	}

	from := uint64(0)
	if head > h.blockLookback {
		from = head - h.blockLookback
	}

	found := make([]observed, 0, limit)

	// ERC-20 transfers: one log filter over the whole range.
	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Topics: [][]common.Hash{
			{erc20TransferTopic},
			{common.BytesToHash(account.Bytes())},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("filter transfer logs: %w", err)
	}
	for _, lg := range logs {
		if len(lg.Topics) < 3 {
			continue
		}
		found = append(found, observed{
			block:   lg.BlockNumber,
			txIndex: lg.TxIndex,
			transfer: Transfer{
				Hash:  lg.TxHash.Hex(),
				From:  common.HexToAddress(lg.Topics[1].Hex()).Hex(),
				To:    common.HexToAddress(lg.Topics[2].Hex()).Hex(),
				Value: new(big.Int).SetBytes(lg.Data),
				Asset: lg.Address.Hex(),
			},
		})
	}

	// Native transfers: scan block bodies for transactions sent by the
	// account carrying value.
	signer := ethtypes.LatestSignerForChainID(big.NewInt(h.chainID))
	for number := head; number > from; number-- {
		block, err := client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, fmt.Errorf("fetch block %d: %w", number, err)
		}
		for _, tx := range block.Transactions() {
			if tx.To() == nil || tx.Value().Sign() == 0 {
				continue
			}
			sender, err := ethtypes.Sender(signer, tx)
			if err != nil || sender != account {
				continue
			}
			found = append(found, observed{
				block: number,
				transfer: Transfer{
					Hash:  tx.Hash().Hex(),
					From:  sender.Hex(),
					To:    tx.To().Hex(),
					Value: tx.Value(),
				},
			})
		}
		if len(found) >= limit && number < head {
			break
		}
	}

	sort.Slice(found, func(a, b int) bool {
		if found[a].block != found[b].block {
			return found[a].block > found[b].block
		}
		return found[a].txIndex > found[b].txIndex
	})

	transfers := make([]Transfer, 0, limit)
	for _, o := range found {
		transfers = append(transfers, o.transfer)
		if len(transfers) == limit {
			break
		}
	}
	return transfers, nil
}
