// Package graph builds the token adjacency multigraph and enumerates
// candidate arbitrage cycles from it. Nodes are tokens; an edge is a
// pool's incidence on one endpoint of a token pair it holds, so every
// unordered token pair in a pool contributes one adjacency entry at each
// of its two tokens.
package graph

import (
	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
)

// Edge is one pool's incidence at a token: hopping across Pool from the
// node it's attached to lands on Other.
type Edge struct {
	Pool  pool.LiquidityPool
	Other common.Address
}

// Graph is an undirected multigraph over tokens, built from a pool set.
type Graph struct {
	adjacency map[common.Address][]Edge
}

// New builds a Graph from every pool's token pairs. A pool with more than
// two tokens (Balancer, Curve n-ary pools) contributes one edge per
// unordered pair of its tokens, matching the "token-pair incidence"
// construction for multi-asset pools.
func New(pools []pool.LiquidityPool) *Graph {
	g := &Graph{adjacency: make(map[common.Address][]Edge)}
	for _, p := range pools {
		tokens := p.Tokens()
		for i := 0; i < len(tokens); i++ {
			for j := i + 1; j < len(tokens); j++ {
				a, b := tokens[i].Address, tokens[j].Address
				g.adjacency[a] = append(g.adjacency[a], Edge{Pool: p, Other: b})
				g.adjacency[b] = append(g.adjacency[b], Edge{Pool: p, Other: a})
			}
		}
	}
	return g
}

func (g *Graph) Neighbors(token common.Address) []Edge {
	return g.adjacency[token]
}

// Cycle is a closed walk starting and ending at the anchor token.
// Tokens has len(Pools)+1 entries; Tokens[0] == Tokens[len(Tokens)-1].
type Cycle struct {
	Pools  []pool.LiquidityPool
	Tokens []common.Address
}

// poolAddrs returns the pool address sequence a Cycle's canonical form is
// computed over.
func (c Cycle) poolAddrs() []common.Address {
	addrs := make([]common.Address, len(c.Pools))
	for i, p := range c.Pools {
		addrs[i] = p.Address()
	}
	return addrs
}

// EnumerateCycles performs a bounded breadth-first walk from anchor,
// exploring every path of length 2..maxHops that closes back on anchor,
// rejecting immediate token backtracks, and deduplicating by canonical
// pool-address sequence.
func EnumerateCycles(g *Graph, anchor common.Address, maxHops int) []Cycle {
	var out []Cycle
	seen := make(map[string]struct{})

	type frame struct {
		token  common.Address
		pools  []pool.LiquidityPool
		tokens []common.Address
	}

	queue := []frame{{token: anchor, pools: nil, tokens: []common.Address{anchor}}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if len(f.pools) >= maxHops {
			continue
		}
		for _, e := range g.Neighbors(f.token) {
			// No immediate backtrack: the new token must differ from the
			// token two positions back (the token we just came from via
			// the same or a different pool that lands us right back).
			if len(f.tokens) >= 2 && e.Other == f.tokens[len(f.tokens)-2] {
				continue
			}

			nextPools := append(append([]pool.LiquidityPool{}, f.pools...), e.Pool)
			nextTokens := append(append([]common.Address{}, f.tokens...), e.Other)

			if e.Other == anchor && len(nextPools) >= 2 {
				cyc := Cycle{Pools: nextPools, Tokens: nextTokens}
				key := canonicalKey(cyc.poolAddrs())
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					out = append(out, cyc)
				}
				continue
			}

			if e.Other != anchor {
				queue = append(queue, frame{token: e.Other, pools: nextPools, tokens: nextTokens})
			}
		}
	}
	return out
}

// TwoPoolCycles exhaustively enumerates every unordered pair of pools that
// share at least two tokens, emitting both directional cycles for each
// shared token pair — a mode distinct from (and not subsumed by) the
// bounded walk above, since it doesn't require an anchor token at all.
func TwoPoolCycles(pools []pool.LiquidityPool) []Cycle {
	var out []Cycle
	for i := 0; i < len(pools); i++ {
		for j := i + 1; j < len(pools); j++ {
			shared := sharedTokens(pools[i].Tokens(), pools[j].Tokens())
			for a := 0; a < len(shared); a++ {
				for b := 0; b < len(shared); b++ {
					if a == b {
						continue
					}
					out = append(out, Cycle{
						Pools:  []pool.LiquidityPool{pools[i], pools[j]},
						Tokens: []common.Address{shared[a], shared[b], shared[a]},
					})
				}
			}
		}
	}
	return out
}

func sharedTokens(a, b []arbengine.Token) []common.Address {
	var shared []common.Address
	for _, ta := range a {
		for _, tb := range b {
			if ta.Address == tb.Address {
				shared = append(shared, ta.Address)
				break
			}
		}
	}
	return shared
}

// canonicalKey computes the rotation- and reflection-minimal form of a
// pool-address sequence: rotate to start at the minimum address, then take
// the lexicographically smaller of that rotation and its reversal.
func canonicalKey(addrs []common.Address) string {
	can := CanonicalCycle(addrs)
	s := make([]byte, 0, len(can)*20)
	for _, a := range can {
		s = append(s, a.Bytes()...)
	}
	return string(s)
}

// CanonicalCycle returns the canonical rotation/reflection of a closed
// pool-address sequence, per I2: rotation-and-reflection-minimal over pool
// addresses. Used directly by callers that need the canonical sequence
// itself (e.g. for cache keys), not just a dedup key.
func CanonicalCycle(addrs []common.Address) []common.Address {
	n := len(addrs)
	if n == 0 {
		return addrs
	}

	minIdx := 0
	for i := 1; i < n; i++ {
		if addrs[i].Cmp(addrs[minIdx]) < 0 {
			minIdx = i
		}
	}

	forward := rotate(addrs, minIdx)
	reversed := reverse(forward)
	// Re-rotate the reversal so it too starts at the minimum address.
	revMinIdx := 0
	for i := 1; i < n; i++ {
		if reversed[i].Cmp(reversed[revMinIdx]) < 0 {
			revMinIdx = i
		}
	}
	reversed = rotate(reversed, revMinIdx)

	if compareAddrSlices(reversed, forward) < 0 {
		return reversed
	}
	return forward
}

func compareAddrSlices(a, b []common.Address) int {
	for i := range a {
		if c := a[i].Cmp(b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func rotate(addrs []common.Address, start int) []common.Address {
	n := len(addrs)
	out := make([]common.Address, n)
	for i := 0; i < n; i++ {
		out[i] = addrs[(start+i)%n]
	}
	return out
}

func reverse(addrs []common.Address) []common.Address {
	n := len(addrs)
	out := make([]common.Address, n)
	for i := 0; i < n; i++ {
		out[i] = addrs[n-1-i]
	}
	return out
}

