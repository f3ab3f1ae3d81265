package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// fakeChain is a hand-rolled ChainClient double keyed by (address, method),
// matching the assembler package's test style.
type fakeChain struct {
	calls map[string][]interface{}
}

func (f *fakeChain) key(contract common.Address, method string) string {
	return contract.Hex() + ":" + method
}

func (f *fakeChain) Call(_ context.Context, contract common.Address, _ *big.Int, method string, _ ...interface{}) ([]interface{}, error) {
	out, ok := f.calls[f.key(contract, method)]
	if !ok {
		return nil, arbengine.ProviderFailure(method, nil)
	}
	return out, nil
}

func (f *fakeChain) GetGasPrice(context.Context) (*big.Int, error) { return big.NewInt(20e9), nil }
func (f *fakeChain) GetBlockNumber(context.Context) (uint64, error) { return 19_000_000, nil }
func (f *fakeChain) GetBlock(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Time: 1_700_000_000}, nil
}
func (f *fakeChain) GetLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

// fakeRegistry is a plain in-memory PoolRegistry double.
type fakeRegistry struct {
	pools []pool.LiquidityPool
}

func (r *fakeRegistry) All() []pool.LiquidityPool { return r.pools }

func weth18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

// twoPoolFixture builds a WETH/TOKEN cycle across two V2 pools priced far
// enough apart that the round trip clears the net profit floor after fees
// and the fixed gas estimate. TwoPoolCycles always walks a registered pair
// in registration order, so pool A (listed first) is the cheap leg TOKEN is
// bought from and pool B is the richer leg it's sold back into.
func twoPoolFixture() (token arbengine.Token, poolA, poolB *pool.V2Pool, chain *fakeChain) {
	token = arbengine.Token{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Symbol: "TOK", Decimals: 18}

	poolA = &pool.V2Pool{
		Addr:   common.HexToAddress("0xA"),
		Token0: arbengine.WETH,
		Token1: token,
		FeeBps: 30,
	}
	poolB = &pool.V2Pool{
		Addr:   common.HexToAddress("0xB"),
		Token0: arbengine.WETH,
		Token1: token,
		FeeBps: 30,
	}

	chain = &fakeChain{calls: map[string][]interface{}{
		poolA.Addr.Hex() + ":getReserves": {
			weth18(10_000).ToBig(),
			weth18(21_000_000).ToBig(), // cheap: more TOKEN per WETH
			uint32(0),
		},
		poolB.Addr.Hex() + ":getReserves": {
			weth18(10_000).ToBig(),
			weth18(20_000_000).ToBig(), // richer: fewer TOKEN per WETH
			uint32(0),
		},
	}}
	return token, poolA, poolB, chain
}

func newTestEngine(chain *fakeChain, registry *fakeRegistry) *Engine {
	lower := uint256.NewInt(100_000_000_000_000_000) // 0.1 ETH
	return New(chain, registry, arbengine.WETH, 4, lower, weth18(50))
}

func TestTick_FindsProfitableTwoPoolCycle(t *testing.T) {
	_, poolA, poolB, chain := twoPoolFixture()
	registry := &fakeRegistry{pools: []pool.LiquidityPool{poolA, poolB}}
	e := newTestEngine(chain, registry)

	solutions, err := e.Tick(context.Background(), big.NewInt(19_000_000))
	require.NoError(t, err)
	require.NotEmpty(t, solutions)

	best := solutions[0]
	require.Equal(t, arbengine.WETH.Address, best.Path.ProfitToken)
	require.True(t, best.NetProfit.Sign() > 0)
	require.Len(t, best.SwapActions, 2)

	for i, action := range best.SwapActions {
		require.True(t, action.AmountIn.Sign() > 0)
		require.True(t, action.MinAmountOut.Sign() > 0)
		require.True(t, action.MinAmountOut.Cmp(action.AmountIn) <= 0 || i == 0,
			"min_amount_out should reflect slippage off the expected out, not the input")
	}
}

func TestTick_EmptyCycleCacheReturnsNoSolutions(t *testing.T) {
	registry := &fakeRegistry{}
	chain := &fakeChain{calls: map[string][]interface{}{}}
	e := newTestEngine(chain, registry)

	solutions, err := e.Tick(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Empty(t, solutions)
}

func TestTick_SkipsCyclesMissingASnapshot(t *testing.T) {
	_, poolA, poolB, chain := twoPoolFixture()
	delete(chain.calls, poolB.Addr.Hex()+":getReserves")

	registry := &fakeRegistry{pools: []pool.LiquidityPool{poolA, poolB}}
	e := newTestEngine(chain, registry)

	solutions, err := e.Tick(context.Background(), big.NewInt(19_000_000))
	require.NoError(t, err)
	require.Empty(t, solutions)
}

func TestRefreshCycles_PicksUpNewPools(t *testing.T) {
	_, poolA, poolB, chain := twoPoolFixture()
	registry := &fakeRegistry{pools: []pool.LiquidityPool{poolA}}
	e := newTestEngine(chain, registry)
	require.Empty(t, e.snapshotCycles())

	registry.pools = append(registry.pools, poolB)
	e.RefreshCycles()
	require.NotEmpty(t, e.snapshotCycles())
}

func TestGasCostInProfitToken_DefaultsToOneWadRate(t *testing.T) {
	cost := gasCostInProfitToken(big.NewInt(20_000_000_000), nil)
	require.True(t, cost.Sign() > 0)
}

func TestApplySlippage_ReducesOutput(t *testing.T) {
	out := uint256.NewInt(1_000_000)
	minOut := applySlippage(out, 5)
	require.True(t, minOut.Cmp(out) < 0)
	require.Equal(t, uint256.NewInt(999_500), minOut)
}
