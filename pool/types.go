// Package pool implements the per-family exact-output pricing models:
// Uniswap V2-style constant product, Uniswap V3 concentrated liquidity,
// Curve stableswap/Tricrypto, and Balancer weighted pools. Every model is a
// pure function of a pinned PoolSnapshot — no pool ever mutates its own
// state during pricing.
package pool

import (
	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Family identifies which pricing model a pool belongs to.
type Family int

const (
	FamilyV2 Family = iota
	FamilyV3
	FamilyCurve
	FamilyBalancer
)

func (f Family) String() string {
	switch f {
	case FamilyV2:
		return "V2"
	case FamilyV3:
		return "V3"
	case FamilyCurve:
		return "Curve"
	case FamilyBalancer:
		return "Balancer"
	default:
		return "Unknown"
	}
}

// LiquidityPool is the common surface every pricing model exposes over a
// pinned snapshot. CalculateTokensIn is optional: pools that cannot invert
// their curve cheaply return arbengine.ArithmeticFailure, and callers avoid
// depending on it.
type LiquidityPool interface {
	Address() common.Address
	Family() Family
	Tokens() []arbengine.Token
	CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap PoolSnapshot) (*uint256.Int, error)
	CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap PoolSnapshot) (*uint256.Int, error)
}

// V2Pool is a classic constant-product pool (Uniswap V2 and its 0.30%/0.25%
// fee forks).
type V2Pool struct {
	Addr    common.Address
	Token0  arbengine.Token
	Token1  arbengine.Token
	FeeBps  uint64 // e.g. 30 for 0.30%, expressed out of 10000
}

func (p *V2Pool) Address() common.Address       { return p.Addr }
func (p *V2Pool) Family() Family                { return FamilyV2 }
func (p *V2Pool) Tokens() []arbengine.Token      { return []arbengine.Token{p.Token0, p.Token1} }

// V3Pool is a Uniswap V3 concentrated-liquidity pool.
type V3Pool struct {
	Addr        common.Address
	Token0      arbengine.Token
	Token1      arbengine.Token
	FeePips     uint32 // e.g. 3000 for 0.30%, out of 10^6
	TickSpacing int
}

func (p *V3Pool) Address() common.Address       { return p.Addr }
func (p *V3Pool) Family() Family                { return FamilyV3 }
func (p *V3Pool) Tokens() []arbengine.Token      { return []arbengine.Token{p.Token0, p.Token1} }

// CurveVariant is the pool topology Curve distinguishes internally.
type CurveVariant int

const (
	VariantPlain CurveVariant = iota
	VariantMeta
	VariantLending
	VariantEth
)

// SwapStrategy selects the get_dy dispatch a CurvePool follows, per the
// per-address overrides captured at discovery time.
type SwapStrategy int

const (
	StrategyDefault SwapStrategy = iota
	StrategyMetapool
	StrategyLending
	StrategyUnscaled
	StrategyDynamicFee
	StrategyTricrypto
	StrategyAdminFee
	StrategyOracle
)

// CurveAttributes is the configuration captured once at pool discovery and
// never mutated afterward.
type CurveAttributes struct {
	Variant               CurveVariant
	SwapStrategy           SwapStrategy
	DVariant               CurveYVariantGroup
	YVariant               CurveYVariantGroup
	NCoins                 int
	PrecisionMultipliers   []*uint256.Int
	UseLending             []bool
	FeeGamma               *uint256.Int
	MidFee                 *uint256.Int
	OutFee                 *uint256.Int
	OffpegFeeMultiplier    *uint256.Int
	BasePoolAddress        common.Address
	OracleMethod           uint8
}

// CurveYVariantGroup mirrors the curve math package's YVariant, kept
// separate so pool attributes don't import math/curve's iota identity
// directly (attributes are the discovery-time record; math/curve picks the
// formula).
type CurveYVariantGroup int

const (
	YVariantGroupModern CurveYVariantGroup = iota
	YVariantGroupLegacy0
	YVariantGroupLegacy1
)

// CurvePool is a Curve stableswap, metapool, lending, or Tricrypto pool.
type CurvePool struct {
	Addr       common.Address
	LPToken    common.Address
	Tokens_    []arbengine.Token
	Attributes CurveAttributes
	BasePool   *CurvePool // nil unless Attributes.Variant == VariantMeta
}

func (p *CurvePool) Address() common.Address       { return p.Addr }
func (p *CurvePool) Family() Family                { return FamilyCurve }
func (p *CurvePool) Tokens() []arbengine.Token      { return p.Tokens_ }

// BalancerPool is an n-token weighted pool.
type BalancerPool struct {
	Addr     common.Address
	Vault    common.Address
	PoolID   [32]byte
	Tokens_  []arbengine.Token
	Weights  []*uint256.Int // WAD-scaled, sums to 10^18
	Fee      *uint256.Int   // WAD-scaled
}

// VaultAddress is the Balancer Vault contract the snapshot assembler calls
// getPoolTokens against — balances live on the shared Vault, not the pool
// contract itself.
func (p *BalancerPool) VaultAddress() common.Address { return p.Vault }

func (p *BalancerPool) Address() common.Address       { return p.Addr }
func (p *BalancerPool) Family() Family                { return FamilyBalancer }
func (p *BalancerPool) Tokens() []arbengine.Token      { return p.Tokens_ }

// tokenIndex returns the position of addr within tokens, or -1.
func tokenIndex(tokens []arbengine.Token, addr common.Address) int {
	for i, t := range tokens {
		if t.Address == addr {
			return i
		}
	}
	return -1
}
