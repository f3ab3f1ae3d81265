// Package snapshot implements Component C: pinning each pool's state at a
// block into a pure PoolSnapshot. Every network call the pricing models in
// package pool used to make live now happens here, exactly once per tick,
// so pricing stays a pure function of (snapshot, amount) per spec I5.
package snapshot

import (
	"context"
	"log"
	"math/big"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/chainclient"
	curvemath "github.com/7suyash7/arbengine/math/curve"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Assembler pins pool state at a block. It holds no state across ticks
// except the singleflight group that collapses concurrent tick-word
// refetches for the same V3 pool (spec §5's "single-writer coordination
// per pool").
type Assembler struct {
	Chain chainclient.ChainClient

	tickWords singleflight.Group
}

func New(chain chainclient.ChainClient) *Assembler {
	return &Assembler{Chain: chain}
}

// AssembleAll fetches a snapshot for every pool at block, in parallel via
// errgroup, matching spec §4.G step 1: failures are per-pool and logged,
// never fatal to the tick. Pools that fail to snapshot are simply absent
// from the returned map; Component E's evaluator treats that as
// MissingPoolState and skips any cycle that touches them.
func (a *Assembler) AssembleAll(ctx context.Context, pools []pool.LiquidityPool, block *big.Int) map[common.Address]pool.PoolSnapshot {
	var (
		g       errgroup.Group
		results = make([]pool.PoolSnapshot, len(pools))
		ok      = make([]bool, len(pools))
	)

	for idx, p := range pools {
		idx, p := idx, p
		g.Go(func() error {
			snap, err := a.Assemble(ctx, p, block)
			if err != nil {
				log.Printf("snapshot: skipping pool %s (%s): %v", p.Address(), p.Family(), err)
				return nil
			}
			results[idx] = snap
			ok[idx] = true
			return nil
		})
	}
	_ = g.Wait() // errors are captured per-pool above; Wait never itself fails.

	out := make(map[common.Address]pool.PoolSnapshot, len(pools))
	for idx, p := range pools {
		if ok[idx] {
			out[p.Address()] = results[idx]
		}
	}
	return out
}

// Assemble fetches and pins a single pool's state, dispatching on family.
func (a *Assembler) Assemble(ctx context.Context, p pool.LiquidityPool, block *big.Int) (pool.PoolSnapshot, error) {
	switch pp := p.(type) {
	case *pool.V2Pool:
		return a.assembleV2(ctx, pp, block)
	case *pool.V3Pool:
		return a.assembleV3(ctx, pp, block)
	case *pool.CurvePool:
		return a.assembleCurve(ctx, pp, block)
	case *pool.BalancerPool:
		return a.assembleBalancer(ctx, pp, block)
	default:
		return pool.PoolSnapshot{}, arbengine.ArithmeticFailure("unknown pool family in snapshot assembler")
	}
}

func (a *Assembler) assembleV2(ctx context.Context, p *pool.V2Pool, block *big.Int) (pool.PoolSnapshot, error) {
	out, err := a.Chain.Call(ctx, p.Addr, block, "getReserves")
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	r0, r1, err := reservesFromOutputs(out)
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	return pool.NewV2Snapshot(&pool.V2Snapshot{Reserve0: r0, Reserve1: r1}), nil
}

func reservesFromOutputs(out []interface{}) (*uint256.Int, *uint256.Int, error) {
	if len(out) < 2 {
		return nil, nil, arbengine.DecodeFailure("getReserves: unexpected output count", nil)
	}
	r0, err := toUint256(out[0])
	if err != nil {
		return nil, nil, err
	}
	r1, err := toUint256(out[1])
	if err != nil {
		return nil, nil, err
	}
	return r0, r1, nil
}

func (a *Assembler) assembleV3(ctx context.Context, p *pool.V3Pool, block *big.Int) (pool.PoolSnapshot, error) {
	slot0, err := a.Chain.Call(ctx, p.Addr, block, "slot0")
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	if len(slot0) < 2 {
		return pool.PoolSnapshot{}, arbengine.DecodeFailure("slot0: unexpected output count", nil)
	}
	sqrtPrice, err := toUint256(slot0[0])
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	tick, err := toInt(slot0[1])
	if err != nil {
		return pool.PoolSnapshot{}, err
	}

	liqOut, err := a.Chain.Call(ctx, p.Addr, block, "liquidity")
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	liquidity, err := toUint256(liqOut[0])
	if err != nil {
		return pool.PoolSnapshot{}, err
	}

	addr := p.Addr
	snap := &pool.V3Snapshot{
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		Liquidity:    liquidity,
		TickBitmap:   make(map[int16]*uint256.Int),
		TickData:     make(map[int]*pool.TickData),
		FetchBitmapWord: func(wordPos int16) (*uint256.Int, error) {
			return a.fetchTickWord(ctx, addr, block, wordPos)
		},
		FetchTickData: func(tick int) (*pool.TickData, error) {
			return a.fetchTickData(ctx, addr, block, tick)
		},
	}
	return pool.NewV3Snapshot(snap), nil
}

// fetchTickWord fetches a single tickBitmap word, collapsing concurrent
// requests for the same (pool, word) via singleflight — two optimizer
// probes missing the same uncached word at once make exactly one RPC call.
func (a *Assembler) fetchTickWord(ctx context.Context, addr common.Address, block *big.Int, wordPos int16) (*uint256.Int, error) {
	key := tickWordKey(addr, block, wordPos)
	v, err, _ := a.tickWords.Do(key, func() (interface{}, error) {
		out, err := a.Chain.Call(ctx, addr, block, "tickBitmap", wordPos)
		if err != nil {
			return nil, err
		}
		return toUint256(out[0])
	})
	if err != nil {
		return nil, err
	}
	return v.(*uint256.Int), nil
}

func (a *Assembler) fetchTickData(ctx context.Context, addr common.Address, block *big.Int, tick int) (*pool.TickData, error) {
	key := tickDataKey(addr, block, tick)
	v, err, _ := a.tickWords.Do(key, func() (interface{}, error) {
		out, err := a.Chain.Call(ctx, addr, block, "ticks", big.NewInt(int64(tick)))
		if err != nil {
			return nil, err
		}
		if len(out) < 2 {
			return nil, arbengine.DecodeFailure("ticks: unexpected output count", nil)
		}
		gross, err := toUint256(out[0])
		if err != nil {
			return nil, err
		}
		net, neg, err := signedToUint256(out[1])
		if err != nil {
			return nil, err
		}
		return &pool.TickData{LiquidityGross: gross, LiquidityNet: pool.NewSignedDelta(net, neg)}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pool.TickData), nil
}

func (a *Assembler) assembleCurve(ctx context.Context, p *pool.CurvePool, block *big.Int) (pool.PoolSnapshot, error) {
	n := p.Attributes.NCoins

	aOut, err := a.Chain.Call(ctx, p.Addr, block, "A")
	var aPrecise *uint256.Int
	if err == nil {
		aPrecise, err = toUint256(aOut[0])
	}
	if err != nil {
		aPrecise, err = a.rampedA(ctx, p, block)
		if err != nil {
			return pool.PoolSnapshot{}, err
		}
	}

	feeOut, err := a.Chain.Call(ctx, p.Addr, block, "fee")
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	fee, err := toUint256(feeOut[0])
	if err != nil {
		return pool.PoolSnapshot{}, err
	}

	balances := make([]*uint256.Int, n)
	for i := 0; i < n; i++ {
		out, err := a.Chain.Call(ctx, p.Addr, block, "balances", big.NewInt(int64(i)))
		if err != nil {
			return pool.PoolSnapshot{}, err
		}
		balances[i], err = toUint256(out[0])
		if err != nil {
			return pool.PoolSnapshot{}, err
		}
	}

	rates := curveRates(p.Attributes)

	snap := &pool.CurveSnapshot{
		Balances:       balances,
		APrecise:       aPrecise,
		Fee:            fee,
		BlockTimestamp: blockTimestamp(ctx, a.Chain, block),
		Rates:          rates,
	}

	// Oracle pools price on net (live - admin) balances and a live oracle
	// rate, both fetched here and left on the snapshot for oracleSwap to
	// combine; the gross balances/static rates above are left untouched for
	// every other strategy, including AdminFee (whose get_dy is priced on
	// gross balances, identical to Default).
	if p.Attributes.SwapStrategy == pool.StrategyOracle {
		adminBalances := make([]*uint256.Int, n)
		for i := 0; i < n; i++ {
			out, err := a.Chain.Call(ctx, p.Addr, block, "admin_balances", big.NewInt(int64(i)))
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			adminBalances[i], err = toUint256(out[0])
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
		}
		snap.AdminBalances = adminBalances

		if p.Attributes.OracleMethod != 0 && len(rates) >= 2 {
			priceOut, err := a.Chain.Call(ctx, p.Addr, block, "price_oracle")
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			price, err := toUint256(priceOut[0])
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			scaledRate, overflow := mulDivCurveAssembler(rates[1], price, curvemath.Precision)
			if overflow {
				return pool.PoolSnapshot{}, arbengine.ArithmeticFailure("curve oracle rate overflow")
			}
			snap.Rates = []*uint256.Int{rates[0], scaledRate}
		}
	}

	if p.Attributes.SwapStrategy == pool.StrategyTricrypto {
		if dOut, err := a.Chain.Call(ctx, p.Addr, block, "D"); err == nil {
			snap.TricryptoD, _ = toUint256(dOut[0])
		}
		if gOut, err := a.Chain.Call(ctx, p.Addr, block, "gamma"); err == nil {
			snap.TricryptoGamma, _ = toUint256(gOut[0])
		}
		scales := make([]*uint256.Int, n-1)
		for k := 0; k < n-1; k++ {
			out, err := a.Chain.Call(ctx, p.Addr, block, "price_scale", big.NewInt(int64(k)))
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			scales[k], err = toUint256(out[0])
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
		}
		snap.TricryptoPriceScale = scales
	}

	if p.Attributes.SwapStrategy == pool.StrategyMetapool && p.BasePool != nil {
		vpOut, err := a.Chain.Call(ctx, p.BasePool.Addr, block, "get_virtual_price")
		if err == nil {
			snap.VirtualPriceOfBase, _ = toUint256(vpOut[0])
		}

		if p.Addr == pool.RethEthMetapool {
			snapOut, err := a.Chain.Call(ctx, p.Addr, block, "redemption_price_snap")
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			raw, err := toUint256(snapOut[0])
			if err != nil {
				return pool.PoolSnapshot{}, err
			}
			snap.ScaledRedemptionPrice = new(uint256.Int).Div(raw, redemptionPriceScale)
		}
	}

	return pool.NewCurveSnapshot(snap), nil
}

// redemptionPriceScale matches the reference's REDEMPTION_PRICE_SCALE: the
// RAI redemption price oracle reports at 1e27, scaled here down to the WAD
// rates the rest of the Curve math expects.
var redemptionPriceScale = uint256.NewInt(1_000_000_000)

// rampedA reconstructs A_precise from the ramp parameters when a pool
// exposes initial_A/future_A/initial_A_time/future_A_time instead of a
// single A() view — per spec §4.C's A-ramping rule.
func (a *Assembler) rampedA(ctx context.Context, p *pool.CurvePool, block *big.Int) (*uint256.Int, error) {
	a0Out, err := a.Chain.Call(ctx, p.Addr, block, "initial_A")
	if err != nil {
		return nil, err
	}
	a1Out, err := a.Chain.Call(ctx, p.Addr, block, "future_A")
	if err != nil {
		return nil, err
	}
	t0Out, err := a.Chain.Call(ctx, p.Addr, block, "initial_A_time")
	if err != nil {
		return nil, err
	}
	t1Out, err := a.Chain.Call(ctx, p.Addr, block, "future_A_time")
	if err != nil {
		return nil, err
	}

	a0, err := toUint256(a0Out[0])
	if err != nil {
		return nil, err
	}
	a1, err := toUint256(a1Out[0])
	if err != nil {
		return nil, err
	}
	t0, err := toUint64(t0Out[0])
	if err != nil {
		return nil, err
	}
	t1, err := toUint64(t1Out[0])
	if err != nil {
		return nil, err
	}

	now := blockTimestamp(ctx, a.Chain, block)
	return curvemath.APreciseAt(now, a0, a1, t0, t1), nil
}

// curveRates derives the per-coin rate vector from discovery-time
// attributes: PrecisionMultipliers scaled to WAD. This is the base rate
// vector for every strategy; Lending expects its live lending-token
// exchange rate already folded into PrecisionMultipliers by the discovery
// collaborator (out of core scope), and Oracle overrides rates[1] in place
// with a live price_oracle() read further down in assembleCurve.
func curveRates(attrs pool.CurveAttributes) []*uint256.Int {
	rates := make([]*uint256.Int, len(attrs.PrecisionMultipliers))
	for i, pm := range attrs.PrecisionMultipliers {
		rates[i] = new(uint256.Int).Mul(pm, curvemath.Precision)
	}
	return rates
}

func (a *Assembler) assembleBalancer(ctx context.Context, p *pool.BalancerPool, block *big.Int) (pool.PoolSnapshot, error) {
	out, err := a.Chain.Call(ctx, balancerVaultAddress(p), block, "getPoolTokens", p.PoolID)
	if err != nil {
		return pool.PoolSnapshot{}, err
	}
	if len(out) < 2 {
		return pool.PoolSnapshot{}, arbengine.DecodeFailure("getPoolTokens: unexpected output count", nil)
	}
	rawBalances, ok := out[1].([]*big.Int)
	if !ok {
		return pool.PoolSnapshot{}, arbengine.DecodeFailure("getPoolTokens: balances not []*big.Int", nil)
	}
	balances := make([]*uint256.Int, len(rawBalances))
	for i, b := range rawBalances {
		v, overflow := uint256.FromBig(b)
		if overflow {
			return pool.PoolSnapshot{}, arbengine.ArithmeticFailure("balancer balance overflow")
		}
		balances[i] = v
	}
	return pool.NewBalancerSnapshot(&pool.BalancerSnapshot{Balances: balances}), nil
}

// balancerVaultAddress is resolved once at discovery time and cached on the
// pool record by the discovery collaborator; callers of this package
// configure their chainclient's ABI map so the vault address routes to
// BalancerVaultABI. Exposed as a function (not a field) so it can be
// swapped in tests.
var balancerVaultAddress = func(p *pool.BalancerPool) common.Address {
	return p.VaultAddress()
}

func blockTimestamp(ctx context.Context, chain chainclient.ChainClient, block *big.Int) uint64 {
	header, err := chain.GetBlock(ctx, block)
	if err != nil || header == nil {
		return 0
	}
	return header.Time
}

func mulDivCurveAssembler(a, b, d *uint256.Int) (*uint256.Int, bool) {
	return new(uint256.Int).MulDivOverflow(a, b, d)
}

func tickWordKey(addr common.Address, block *big.Int, wordPos int16) string {
	return addr.Hex() + ":" + blockKey(block) + ":word:" + big.NewInt(int64(wordPos)).String()
}

func tickDataKey(addr common.Address, block *big.Int, tick int) string {
	return addr.Hex() + ":" + blockKey(block) + ":tick:" + big.NewInt(int64(tick)).String()
}

func blockKey(block *big.Int) string {
	if block == nil {
		return "latest"
	}
	return block.String()
}

func toUint256(v interface{}) (*uint256.Int, error) {
	switch t := v.(type) {
	case *big.Int:
		n, overflow := uint256.FromBig(t)
		if overflow {
			return nil, arbengine.ArithmeticFailure("value overflows uint256")
		}
		return n, nil
	case *uint256.Int:
		return t, nil
	default:
		return nil, arbengine.DecodeFailure("expected *big.Int or *uint256.Int", nil)
	}
}

func toUint64(v interface{}) (uint64, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return 0, arbengine.DecodeFailure("expected *big.Int", nil)
	}
	return b.Uint64(), nil
}

func toInt(v interface{}) (int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return 0, arbengine.DecodeFailure("expected *big.Int", nil)
	}
	return int(b.Int64()), nil
}

// signedToUint256 splits a signed int128 ABI return (decoded as *big.Int by
// go-ethereum, which may be negative) into absolute value + sign.
func signedToUint256(v interface{}) (*uint256.Int, bool, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, false, arbengine.DecodeFailure("expected *big.Int", nil)
	}
	neg := b.Sign() < 0
	abs := new(big.Int).Abs(b)
	n, overflow := uint256.FromBig(abs)
	if overflow {
		return nil, false, arbengine.ArithmeticFailure("liquidityNet overflows uint256")
	}
	return n, neg, nil
}
