package snapshot

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

// fakeChain is a hand-rolled ChainClient double: a map from (address,
// method) to canned outputs, matching the teacher's preference for plain
// struct-based test doubles over a generated mock.
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

func TestAssembleV2(t *testing.T) {
	addr := common.HexToAddress("0x1")
	chain := &fakeChain{calls: map[string][]interface{}{
		addr.Hex() + ":getReserves": {big.NewInt(1000), big.NewInt(2000), uint32(0)},
	}}

	a := New(chain)
	p := &pool.V2Pool{Addr: addr}
	snap, err := a.Assemble(context.Background(), p, nil)
	require.NoError(t, err)
	require.Equal(t, pool.FamilyV2, snap.Family())
	require.Equal(t, uint256.NewInt(1000), snap.V2.Reserve0)
	require.Equal(t, uint256.NewInt(2000), snap.V2.Reserve1)
}

func TestAssembleAll_SkipsFailingPool(t *testing.T) {
	good := common.HexToAddress("0x1")
	bad := common.HexToAddress("0x2")
	chain := &fakeChain{calls: map[string][]interface{}{
		good.Hex() + ":getReserves": {big.NewInt(1000), big.NewInt(2000), uint32(0)},
	}}

	a := New(chain)
	pools := []pool.LiquidityPool{&pool.V2Pool{Addr: good}, &pool.V2Pool{Addr: bad}}
	snaps := a.AssembleAll(context.Background(), pools, nil)

	require.Len(t, snaps, 1)
	_, ok := snaps[good]
	require.True(t, ok)
	_, ok = snaps[bad]
	require.False(t, ok)
}

func TestAssembleV3_LazyTickFetch(t *testing.T) {
	addr := common.HexToAddress("0x3")
	chain := &fakeChain{calls: map[string][]interface{}{
		addr.Hex() + ":slot0":      {big.NewInt(1 << 96), big.NewInt(0), uint16(0), uint16(0), uint16(0), uint8(0), true},
		addr.Hex() + ":liquidity":  {big.NewInt(5_000_000)},
		addr.Hex() + ":tickBitmap": {big.NewInt(0xff)},
		addr.Hex() + ":ticks":      {big.NewInt(100), big.NewInt(-100), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), uint32(0), true},
	}}

	a := New(chain)
	p := &pool.V3Pool{Addr: addr}
	snap, err := a.Assemble(context.Background(), p, nil)
	require.NoError(t, err)
	require.NotNil(t, snap.V3)

	word, err := snap.V3.FetchBitmapWord(0)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(0xff), word)

	data, err := snap.V3.FetchTickData(60)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), data.LiquidityGross)
}

func TestAssembleCurve_AdminFeeUsesGrossBalances(t *testing.T) {
	addr := common.HexToAddress("0x4")
	// fakeChain keys on method name only, so both coin indices share this
	// one canned balances() response.
	chain := &fakeChain{calls: map[string][]interface{}{
		addr.Hex() + ":A":        {big.NewInt(100)},
		addr.Hex() + ":fee":      {big.NewInt(4_000_000)},
		addr.Hex() + ":balances": {big.NewInt(1000)},
	}}

	p := &pool.CurvePool{
		Addr: addr,
		Attributes: pool.CurveAttributes{
			SwapStrategy:         pool.StrategyAdminFee,
			NCoins:               2,
			PrecisionMultipliers: []*uint256.Int{uint256.NewInt(1), uint256.NewInt(1)},
		},
	}

	a := New(chain)
	snap, err := a.Assemble(context.Background(), p, nil)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1000), snap.Curve.Balances[0])
	require.Equal(t, uint256.NewInt(1000), snap.Curve.Balances[1])
	require.Nil(t, snap.Curve.AdminBalances, "AdminFee pools never populate AdminBalances; get_dy prices gross balances")
}

func TestAssembleCurve_OracleFetchesAdminBalancesAndScalesRate(t *testing.T) {
	addr := common.HexToAddress("0x5")
	chain := &fakeChain{calls: map[string][]interface{}{
		addr.Hex() + ":A":            {big.NewInt(100)},
		addr.Hex() + ":fee":          {big.NewInt(4_000_000)},
		addr.Hex() + ":balances":     {big.NewInt(1_000_000)},
		addr.Hex() + ":admin_balances": {big.NewInt(1_000)},
		addr.Hex() + ":price_oracle":   {new(big.Int).Mul(big.NewInt(2), big.NewInt(1_000_000_000_000_000_000))},
	}}

	p := &pool.CurvePool{
		Addr: addr,
		Attributes: pool.CurveAttributes{
			SwapStrategy:         pool.StrategyOracle,
			OracleMethod:         1,
			NCoins:               2,
			PrecisionMultipliers: []*uint256.Int{uint256.NewInt(1), uint256.NewInt(1)},
		},
	}

	a := New(chain)
	snap, err := a.Assemble(context.Background(), p, nil)
	require.NoError(t, err)
	require.Len(t, snap.Curve.AdminBalances, 2)
	require.Equal(t, uint256.NewInt(1_000), snap.Curve.AdminBalances[0])
	require.Equal(t, uint256.NewInt(1_000), snap.Curve.AdminBalances[1])

	wantRate1 := new(uint256.Int).Mul(uint256.NewInt(1_000_000_000_000_000_000), uint256.NewInt(2))
	require.Equal(t, wantRate1, snap.Curve.Rates[1])
	require.Equal(t, uint256.NewInt(1_000_000_000_000_000_000), snap.Curve.Rates[0])
}

func TestAssembleCurve_MetapoolFetchesScaledRedemptionPriceForRethEth(t *testing.T) {
	basePool := &pool.CurvePool{Addr: common.HexToAddress("0x6")}
	p := &pool.CurvePool{
		Addr:     pool.RethEthMetapool,
		BasePool: basePool,
		Attributes: pool.CurveAttributes{
			SwapStrategy:         pool.StrategyMetapool,
			NCoins:               2,
			PrecisionMultipliers: []*uint256.Int{uint256.NewInt(1), uint256.NewInt(1)},
		},
	}
	chain := &fakeChain{calls: map[string][]interface{}{
		p.Addr.Hex() + ":A":                       {big.NewInt(100)},
		p.Addr.Hex() + ":fee":                      {big.NewInt(4_000_000)},
		p.Addr.Hex() + ":balances":                 {big.NewInt(1_000_000)},
		p.Addr.Hex() + ":redemption_price_snap":    {new(big.Int).Mul(big.NewInt(3), big.NewInt(1_000_000_000_000_000_000))},
		basePool.Addr.Hex() + ":get_virtual_price": {big.NewInt(1_000_000_000_000_000_000)},
	}}

	a := New(chain)
	snap, err := a.Assemble(context.Background(), p, nil)
	require.NoError(t, err)
	require.NotNil(t, snap.Curve.ScaledRedemptionPrice)
	require.Equal(t, uint256.NewInt(3_000_000_000), snap.Curve.ScaledRedemptionPrice)
}
