package chainclient

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"strings"
)

// mustABI parses a JSON ABI fragment, panicking on error — these are
// compile-time constants, a parse failure here is a build-time bug, not a
// runtime condition.
func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ABI fragments cover exactly the methods named in spec §6's "Exact ABIs
// consumed" list — no full contract ABI is ever loaded from a file the way
// the teacher's ContractClient does (abipath + JSON blob on disk); the
// fragments needed are small and fixed, so they're kept inline and typed.
var (
	// ERC20ABI covers the spec-string variant of symbol/name.
	ERC20ABI = mustABI(`[
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`)

	// ERC20BytesABI is the non-standard 32-byte symbol/name variant some
	// older tokens (e.g. MKR) expose instead of string — the fallback path
	// spec §7's NonStandardToken error exists for.
	ERC20BytesABI = mustABI(`[
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
	]`)

	// V2PairABI is the Uniswap V2 (and fee-variant fork) pair surface.
	V2PairABI = mustABI(`[
		{"name":"getReserves","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]}
	]`)

	// V3PoolABI is the Uniswap V3 pool surface used by the snapshot
	// assembler and the lazy tick-table population.
	V3PoolABI = mustABI(`[
		{"name":"slot0","type":"function","stateMutability":"view","inputs":[],"outputs":[
			{"name":"sqrtPriceX96","type":"uint160"},
			{"name":"tick","type":"int24"},
			{"name":"observationIndex","type":"uint16"},
			{"name":"observationCardinality","type":"uint16"},
			{"name":"observationCardinalityNext","type":"uint16"},
			{"name":"feeProtocol","type":"uint8"},
			{"name":"unlocked","type":"bool"}
		]},
		{"name":"liquidity","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint128"}]},
		{"name":"tickBitmap","type":"function","stateMutability":"view","inputs":[{"name":"wordPosition","type":"int16"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"ticks","type":"function","stateMutability":"view","inputs":[{"name":"tick","type":"int24"}],"outputs":[
			{"name":"liquidityGross","type":"uint128"},
			{"name":"liquidityNet","type":"int128"},
			{"name":"feeGrowthOutside0X128","type":"uint256"},
			{"name":"feeGrowthOutside1X128","type":"uint256"},
			{"name":"tickCumulativeOutside","type":"int56"},
			{"name":"secondsPerLiquidityOutsideX128","type":"uint160"},
			{"name":"secondsOutside","type":"uint32"},
			{"name":"initialized","type":"bool"}
		]}
	]`)

	// CurvePoolABI covers every per-strategy field the snapshot assembler
	// may need to read, across plain/meta/lending/Tricrypto/oracle pools.
	// Not every pool implements every method; callers only invoke the ones
	// relevant to a pool's discovered SwapStrategy.
	CurvePoolABI = mustABI(`[
		{"name":"A","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"fee","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"coins","type":"function","stateMutability":"view","inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"balances","type":"function","stateMutability":"view","inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"admin_balances","type":"function","stateMutability":"view","inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"get_virtual_price","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"initial_A","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"future_A","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"initial_A_time","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"future_A_time","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"D","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"gamma","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"price_scale","type":"function","stateMutability":"view","inputs":[{"name":"k","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"price_oracle","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"redemption_price_snap","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"snappedRedemptionPrice","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"exchangeRateStored","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"supplyRatePerBlock","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"accrualBlockNumber","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"ratio","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"getExchangeRate","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	// CurveRegistryABI covers the registry lookups needed to resolve a
	// metapool's base pool and its underlying coin set at discovery time.
	CurveRegistryABI = mustABI(`[
		{"name":"get_lp_token","type":"function","stateMutability":"view","inputs":[{"name":"pool","type":"address"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"get_pool_from_lp_token","type":"function","stateMutability":"view","inputs":[{"name":"lp","type":"address"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"get_underlying_coins","type":"function","stateMutability":"view","inputs":[{"name":"pool","type":"address"}],"outputs":[{"name":"","type":"address[8]"}]}
	]`)

	// BalancerVaultABI is the single vault entrypoint for per-pool balances.
	BalancerVaultABI = mustABI(`[
		{"name":"getPoolTokens","type":"function","stateMutability":"view","inputs":[{"name":"poolId","type":"bytes32"}],"outputs":[
			{"name":"tokens","type":"address[]"},
			{"name":"balances","type":"uint256[]"},
			{"name":"lastChangeBlock","type":"uint256"}
		]}
	]`)

	// BalancerWeightedPoolABI covers pool-level discovery metadata (weights,
	// fee, pool ID, vault address) — fetched once, not per snapshot.
	BalancerWeightedPoolABI = mustABI(`[
		{"name":"getPoolId","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"getVault","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"getSwapFeePercentage","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"getNormalizedWeights","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]}
	]`)
)
