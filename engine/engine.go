// Package engine implements Component G, the opportunity engine: it
// orchestrates the snapshot assembler (C), the cycle cache built by the
// graph package (D), the cycle evaluator (E), and the trade-size
// optimizer (F) once per block tick, and ranks the surviving solutions.
//
// It lives above `arbengine` rather than inside it because every
// component package it composes (pool, graph, arbitrage, chainclient,
// snapshot) already imports `arbengine` for Token/Error — an Engine type
// in the root package importing those back would be a cycle.
package engine

import (
	"context"
	"log"
	"math/big"
	"sort"
	"sync"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/arbitrage"
	"github.com/7suyash7/arbengine/chainclient"
	"github.com/7suyash7/arbengine/graph"
	"github.com/7suyash7/arbengine/pool"
	"github.com/7suyash7/arbengine/snapshot"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSlippageBps is the slippage tolerance baked into every emitted
// SwapAction's MinAmountOut, per spec §4.G's constants table.
const DefaultSlippageBps = 5

// FallbackGasPriceWei is used when the chain-RPC collaborator's gas-price
// query fails, per spec §4.G step 2 ("fetch live gas price; fallback: 20
// gwei").
var FallbackGasPriceWei = big.NewInt(20_000_000_000)

// ArbitragePath is the ordered pool/token sequence a solution trades
// through; Path[0] == Path[len(Path)-1] (I1).
type ArbitragePath struct {
	Pools       []common.Address
	Path        []common.Address
	ProfitToken common.Address
}

// SwapAction is one leg of a solution's execution trail.
type SwapAction struct {
	PoolAddress  common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *uint256.Int
	MinAmountOut *uint256.Int
}

// ArbitrageSolution is a ranked, executable opportunity.
type ArbitrageSolution struct {
	Path         ArbitragePath
	OptimalInput *uint256.Int
	GrossProfit  *big.Int
	NetProfit    *big.Int
	SwapActions  []SwapAction
}

// PoolRegistry is the subset of the persistence collaborator's surface the
// engine needs: the full pool set, to rebuild the cycle cache from.
type PoolRegistry interface {
	All() []pool.LiquidityPool
}

// Metrics is the opportunity engine's ambient observability surface,
// exposed for an external Prometheus scrape collaborator (see metrics.go).
// It is not gated by any Non-goal — spec §1 excludes mempool/MEV/sequencing,
// not metrics.
type Metrics struct {
	CyclesScreened prometheus.Counter
	CyclesSurvived prometheus.Counter
	NetProfitWei   prometheus.Histogram
}

// Engine is the per-block opportunity engine.
type Engine struct {
	Chain     chainclient.ChainClient
	Assembler *snapshot.Assembler
	Registry  PoolRegistry
	Anchor    arbengine.Token
	MaxHops   int

	LowerBound   *uint256.Int
	UpperBound   *uint256.Int
	MinNetProfit *big.Int
	SlippageBps  uint64

	Metrics *Metrics

	mu     sync.RWMutex
	cycles []graph.Cycle
}

// New constructs an Engine and builds its initial cycle cache from every
// pool currently in the registry.
func New(chain chainclient.ChainClient, registry PoolRegistry, anchor arbengine.Token, maxHops int, lower, upper *uint256.Int) *Engine {
	e := &Engine{
		Chain:        chain,
		Assembler:    snapshot.New(chain),
		Registry:     registry,
		Anchor:       anchor,
		MaxHops:      maxHops,
		LowerBound:   lower,
		UpperBound:   upper,
		MinNetProfit: big.NewInt(arbitrage.MinNetProfitThreshold),
		SlippageBps:  DefaultSlippageBps,
		Metrics:      newMetrics(),
	}
	e.RefreshCycles()
	return e
}

// RefreshCycles rebuilds the token graph and cycle cache from the current
// registry contents. Per spec §5, the cache is append-only in steady
// state; callers take a shared view at tick start by reading e.cycles
// under RLock, so RefreshCycles only needs to guard the swap itself.
func (e *Engine) RefreshCycles() {
	pools := e.Registry.All()
	g := graph.New(pools)
	cycles := graph.EnumerateCycles(g, e.Anchor.Address, e.MaxHops)
	cycles = append(cycles, graph.TwoPoolCycles(pools)...)

	e.mu.Lock()
	e.cycles = cycles
	e.mu.Unlock()
}

func (e *Engine) snapshotCycles() []graph.Cycle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]graph.Cycle, len(e.cycles))
	copy(out, e.cycles)
	return out
}

// Tick runs one full evaluation pass at block: snapshot phase, gas
// pricing, per-cycle screen/optimize/finalize, and ranking — spec §4.G's
// four numbered steps in order.
func (e *Engine) Tick(ctx context.Context, block *big.Int) ([]ArbitrageSolution, error) {
	cycles := e.snapshotCycles()
	if len(cycles) == 0 {
		return nil, nil
	}

	// Step 1: snapshot phase.
	pools := distinctPools(cycles)
	snaps := e.Assembler.AssembleAll(ctx, pools, block)

	// Step 2: gas pricing.
	gasPrice, err := e.Chain.GetGasPrice(ctx)
	if err != nil {
		log.Printf("engine: gas price fetch failed, falling back to 20 gwei: %v", err)
		gasPrice = FallbackGasPriceWei
	}
	rates := e.conversionRates(pools, cycles, snaps)

	// Step 3: per-cycle evaluation, parallelizable and pure given
	// (cycle, snapshot-map, rate-map, gas).
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		solutions []ArbitrageSolution
	)
	for _, cyc := range cycles {
		if !cycleFullySnapshotted(cyc, snaps) {
			continue
		}
		cyc := cyc
		wg.Add(1)
		go func() {
			defer wg.Done()
			sol, ok, err := e.evaluateCycle(cyc, snaps, rates, gasPrice)
			if err != nil {
				log.Printf("engine: cycle evaluation failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				solutions = append(solutions, sol)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Step 4: rank.
	sort.Slice(solutions, func(i, j int) bool {
		return solutions[i].NetProfit.Cmp(solutions[j].NetProfit) > 0
	})
	return solutions, nil
}

// evaluateCycle runs the screen → search → finalize pipeline for one
// cycle, returning (solution, survived, error).
func (e *Engine) evaluateCycle(cyc graph.Cycle, snaps map[common.Address]pool.PoolSnapshot, rates map[common.Address]*uint256.Int, gasPrice *big.Int) (ArbitrageSolution, bool, error) {
	e.Metrics.CyclesScreened.Inc()

	viable, err := arbitrage.CheckViability(cyc, snaps)
	if err != nil {
		return ArbitrageSolution{}, false, err
	}
	if !viable {
		return ArbitrageSolution{}, false, nil
	}

	profitToken := cyc.Tokens[0]
	gasCost := gasCostInProfitToken(gasPrice, rates[profitToken])

	optimum, _, err := arbitrage.FindOptimalInput(cyc, snaps, e.LowerBound, e.UpperBound)
	if err != nil {
		return ArbitrageSolution{}, false, err
	}

	finalInput, err := arbitrage.FindMaxCapacity(cyc, snaps, optimum, e.UpperBound, gasCost)
	if err != nil {
		return ArbitrageSolution{}, false, err
	}
	if finalInput.Sign() == 0 || finalInput.Lt(uint256.NewInt(arbitrage.GoldenSectionTolerance)) {
		return ArbitrageSolution{}, false, nil
	}

	out, err := arbitrage.CalculateOutAmount(finalInput, cyc, snaps)
	if err != nil {
		return ArbitrageSolution{}, false, err
	}
	gross := new(big.Int).Sub(out.ToBig(), finalInput.ToBig())

	flashloanFee := new(big.Int).Mul(finalInput.ToBig(), big.NewInt(arbitrage.FlashloanFeeBps))
	flashloanFee.Div(flashloanFee, big.NewInt(10_000))
	net := new(big.Int).Sub(gross, flashloanFee)
	net.Sub(net, gasCost.ToBig())

	if net.Cmp(e.MinNetProfit) < 0 {
		return ArbitrageSolution{}, false, nil
	}

	actions, err := e.buildActionTrail(cyc, snaps, finalInput)
	if err != nil {
		return ArbitrageSolution{}, false, err
	}

	e.Metrics.CyclesSurvived.Inc()
	e.Metrics.NetProfitWei.Observe(weiToFloat(net))

	return ArbitrageSolution{
		Path: ArbitragePath{
			Pools:       poolAddrs(cyc),
			Path:        cyc.Tokens,
			ProfitToken: profitToken,
		},
		OptimalInput: finalInput,
		GrossProfit:  gross,
		NetProfit:    net,
		SwapActions:  actions,
	}, true, nil
}

// buildActionTrail replays every hop at the final trade size to capture
// each leg's (amount_in, expected_out, min_out), per spec §4.G's "action
// trail" step.
func (e *Engine) buildActionTrail(cyc graph.Cycle, snaps map[common.Address]pool.PoolSnapshot, startAmount *uint256.Int) ([]SwapAction, error) {
	actions := make([]SwapAction, 0, len(cyc.Pools))
	current := startAmount
	for i, p := range cyc.Pools {
		snap := snaps[p.Address()]
		out, err := p.CalculateTokensOut(cyc.Tokens[i], cyc.Tokens[i+1], current, snap)
		if err != nil {
			return nil, err
		}
		minOut := applySlippage(out, e.SlippageBps)
		actions = append(actions, SwapAction{
			PoolAddress:  p.Address(),
			TokenIn:      cyc.Tokens[i],
			TokenOut:     cyc.Tokens[i+1],
			AmountIn:     current,
			MinAmountOut: minOut,
		})
		current = out
	}
	return actions, nil
}

// conversionRates computes, per spec §4.G step 2, a WETH→profit-token WAD
// conversion rate for every distinct profit token across the cycle set:
// 1 WAD if the token is WETH itself; otherwise the nominal price read off
// any snapshotted pool holding both WETH and the token; 1 WAD if none is
// found.
func (e *Engine) conversionRates(pools []pool.LiquidityPool, cycles []graph.Cycle, snaps map[common.Address]pool.PoolSnapshot) map[common.Address]*uint256.Int {
	oneWad := uint256.NewInt(1_000_000_000_000_000_000)
	rates := make(map[common.Address]*uint256.Int)

	seen := make(map[common.Address]bool)
	for _, cyc := range cycles {
		profitToken := cyc.Tokens[0]
		if seen[profitToken] {
			continue
		}
		seen[profitToken] = true

		if profitToken == arbengine.WETH.Address {
			rates[profitToken] = oneWad
			continue
		}
		if rate, ok := nominalWethRate(profitToken, pools, snaps); ok {
			rates[profitToken] = rate
		} else {
			rates[profitToken] = oneWad
		}
	}
	return rates
}

// nominalWethRate scans snapshotted V2 pools for one holding both WETH and
// token, returning its nominal WAD-scaled price (token per WETH). V2 pools
// are the cheapest spot-price source and are present in almost every
// candidate cycle set; other families are skipped for this cheap lookup,
// matching the "any snapshot pool" language in spec §4.G (not an exhaustive
// search).
func nominalWethRate(token common.Address, pools []pool.LiquidityPool, snaps map[common.Address]pool.PoolSnapshot) (*uint256.Int, bool) {
	weth := arbengine.WETH.Address
	for _, p := range pools {
		v2, ok := p.(*pool.V2Pool)
		if !ok {
			continue
		}
		hasWeth := v2.Token0.Address == weth || v2.Token1.Address == weth
		hasToken := v2.Token0.Address == token || v2.Token1.Address == token
		if !hasWeth || !hasToken || v2.Token0.Address == v2.Token1.Address {
			continue
		}
		snap, ok := snaps[v2.Addr]
		if !ok || snap.V2 == nil {
			continue
		}
		reserveWeth, reserveToken := snap.V2.Reserve0, snap.V2.Reserve1
		if v2.Token0.Address == token {
			reserveWeth, reserveToken = snap.V2.Reserve1, snap.V2.Reserve0
		}
		if reserveWeth.IsZero() {
			continue
		}
		rate := new(big.Int).Mul(reserveToken.ToBig(), big.NewInt(1_000_000_000_000_000_000))
		rate.Div(rate, reserveWeth.ToBig())
		v, overflow := uint256.FromBig(rate)
		if overflow {
			continue
		}
		return v, true
	}
	return nil, false
}

func gasCostInProfitToken(gasPriceWei *big.Int, rate *uint256.Int) *uint256.Int {
	gasUnits := big.NewInt(arbitrage.EstimatedGasUnits)
	gasCostWei := new(big.Int).Mul(gasUnits, gasPriceWei)

	if rate == nil {
		rate = uint256.NewInt(1_000_000_000_000_000_000)
	}
	scaled := new(big.Int).Mul(gasCostWei, rate.ToBig())
	scaled.Div(scaled, big.NewInt(1_000_000_000_000_000_000))

	out, overflow := uint256.FromBig(scaled)
	if overflow {
		return new(uint256.Int)
	}
	return out
}

func applySlippage(out *uint256.Int, slippageBps uint64) *uint256.Int {
	num := new(big.Int).Mul(out.ToBig(), big.NewInt(int64(10_000-slippageBps)))
	num.Div(num, big.NewInt(10_000))
	v, overflow := uint256.FromBig(num)
	if overflow {
		return new(uint256.Int)
	}
	return v
}

func weiToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

func distinctPools(cycles []graph.Cycle) []pool.LiquidityPool {
	seen := make(map[common.Address]bool)
	var out []pool.LiquidityPool
	for _, cyc := range cycles {
		for _, p := range cyc.Pools {
			if !seen[p.Address()] {
				seen[p.Address()] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func cycleFullySnapshotted(cyc graph.Cycle, snaps map[common.Address]pool.PoolSnapshot) bool {
	for _, p := range cyc.Pools {
		if _, ok := snaps[p.Address()]; !ok {
			return false
		}
	}
	return true
}

func poolAddrs(cyc graph.Cycle) []common.Address {
	out := make([]common.Address, len(cyc.Pools))
	for i, p := range cyc.Pools {
		out[i] = p.Address()
	}
	return out
}
