// Package chainclient is the chain-RPC collaborator consumed by the
// snapshot assembler: a thin, testable surface over the handful of eth_call
// / eth_getLogs shaped operations the engine actually needs, plus a
// go-ethereum-backed implementation. Nothing in this package prices
// anything; it only fetches and decodes.
package chainclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the external collaborator named in spec §6: the engine
// never dials a node itself, it only calls through this interface.
type ChainClient interface {
	// Call invokes a read-only contract method at the given block (nil
	// block means latest) and returns the ABI-decoded outputs.
	Call(ctx context.Context, contract common.Address, block *big.Int, method string, args ...interface{}) ([]interface{}, error)

	GetGasPrice(ctx context.Context) (*big.Int, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, number *big.Int) (*types.Header, error)
	GetLogs(ctx context.Context, filter ethereum.FilterQuery) ([]types.Log, error)
}
