package pool

import (
	"sync"

	"github.com/holiman/uint256"
)

// PoolSnapshot is a tagged union of per-family pinned state. Exactly one of
// the embedded structs is populated, selected by Family. Snapshots are
// value objects: once constructed they are never mutated, satisfying I5.
type PoolSnapshot struct {
	family Family

	V2       *V2Snapshot
	V3       *V3Snapshot
	Curve    *CurveSnapshot
	Balancer *BalancerSnapshot
}

func (s PoolSnapshot) Family() Family { return s.family }

func NewV2Snapshot(snap *V2Snapshot) PoolSnapshot {
	return PoolSnapshot{family: FamilyV2, V2: snap}
}

func NewV3Snapshot(snap *V3Snapshot) PoolSnapshot {
	return PoolSnapshot{family: FamilyV3, V3: snap}
}

func NewCurveSnapshot(snap *CurveSnapshot) PoolSnapshot {
	return PoolSnapshot{family: FamilyCurve, Curve: snap}
}

func NewBalancerSnapshot(snap *BalancerSnapshot) PoolSnapshot {
	return PoolSnapshot{family: FamilyBalancer, Balancer: snap}
}

// V2Snapshot holds a constant-product pool's two reserves.
type V2Snapshot struct {
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

// TickData is the per-tick state populated lazily as a V3 swap crosses it.
type TickData struct {
	LiquidityGross *uint256.Int
	LiquidityNet   *big256Signed
}

// big256Signed mirrors math/v3's signed liquidity delta; kept as a local
// type so pool doesn't leak math/v3's internal representation at its API
// boundary, matching the math kernel's own sign/magnitude split.
type big256Signed struct {
	Abs *uint256.Int
	Neg bool
}

// NewSignedDelta constructs a signed liquidity delta from an absolute
// magnitude and sign, for collaborators (the snapshot assembler) that
// decode a signed int128 off the wire and need to populate TickData
// without reaching into math/v3's own signed-delta representation.
func NewSignedDelta(abs *uint256.Int, neg bool) *big256Signed {
	return &big256Signed{Abs: abs, Neg: neg}
}

// TickFetcher loads a tick bitmap word on demand, for pools whose tick
// table hasn't been fully paged in yet.
type TickFetcher func(wordPos int16) (*uint256.Int, error)

// TickDataFetcher loads a single initialized tick's liquidity data on
// demand.
type TickDataFetcher func(tick int) (*TickData, error)

// V3Snapshot holds a concentrated-liquidity pool's slot0, total liquidity,
// and whatever portion of the tick bitmap/tick table has been fetched so
// far. Per spec, tick data may be populated lazily during swap traversal;
// Mu guards that single-writer population so concurrent evaluations of the
// same block's snapshot (e.g. the optimizer probing several trade sizes)
// don't race on the maps.
type V3Snapshot struct {
	SqrtPriceX96 *uint256.Int
	Tick         int
	Liquidity    *uint256.Int
	TickBitmap   map[int16]*uint256.Int
	TickData     map[int]*TickData

	Mu              sync.Mutex
	FetchBitmapWord TickFetcher
	FetchTickData   TickDataFetcher
}

// bitmapWord returns the bitmap word at wordPos, fetching and caching it on
// first access if a fetcher was supplied. A pool with no fetcher treats an
// absent word as entirely uninitialized (all-zero), matching slot0 words
// never written to.
func (s *V3Snapshot) bitmapWord(wordPos int16) (*uint256.Int, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if w, ok := s.TickBitmap[wordPos]; ok {
		return w, nil
	}
	if s.FetchBitmapWord == nil {
		return new(uint256.Int), nil
	}
	w, err := s.FetchBitmapWord(wordPos)
	if err != nil {
		return nil, err
	}
	if s.TickBitmap == nil {
		s.TickBitmap = make(map[int16]*uint256.Int)
	}
	s.TickBitmap[wordPos] = w
	return w, nil
}

// tickInfo returns the initialized tick's liquidity data, fetching and
// caching it on first access if a fetcher was supplied.
func (s *V3Snapshot) tickInfo(tick int) (*TickData, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if d, ok := s.TickData[tick]; ok {
		return d, nil
	}
	if s.FetchTickData == nil {
		return nil, nil
	}
	d, err := s.FetchTickData(tick)
	if err != nil {
		return nil, err
	}
	if s.TickData == nil {
		s.TickData = make(map[int]*TickData)
	}
	s.TickData[tick] = d
	return d, nil
}

// CurveSnapshot holds a stableswap (or Tricrypto) pool's pinned state.
// The Tricrypto* and redemption-price fields are populated only for pools
// whose SwapStrategy needs them.
type CurveSnapshot struct {
	Balances        []*uint256.Int
	APrecise        *uint256.Int
	Fee             *uint256.Int
	BlockTimestamp  uint64
	Rates           []*uint256.Int

	AdminBalances        []*uint256.Int
	VirtualPriceOfBase   *uint256.Int
	BaseLPSupply         *uint256.Int
	TricryptoD           *uint256.Int
	TricryptoGamma       *uint256.Int
	TricryptoPriceScale  []*uint256.Int
	ScaledRedemptionPrice *uint256.Int
}

// BalancerSnapshot holds a weighted pool's pinned balances. Weights and fee
// are static pool configuration, not snapshot state.
type BalancerSnapshot struct {
	Balances []*uint256.Int
}
