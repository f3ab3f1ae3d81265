package arbengine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrorKind classifies a failure the way the pricing and evaluation
// pipeline needs to distinguish them: some are per-tick non-fatal (a pool
// failed to snapshot), others abort construction of a pool outright.
type ErrorKind int

const (
	KindProviderFailure ErrorKind = iota
	KindDecodeFailure
	KindNonStandardToken
	KindMissingPoolState
	KindArithmeticFailure
	KindNonConvergence
	KindBrokenPool
	KindLateUpdate
)

func (k ErrorKind) String() string {
	switch k {
	case KindProviderFailure:
		return "ProviderFailure"
	case KindDecodeFailure:
		return "DecodeFailure"
	case KindNonStandardToken:
		return "NonStandardToken"
	case KindMissingPoolState:
		return "MissingPoolState"
	case KindArithmeticFailure:
		return "ArithmeticFailure"
	case KindNonConvergence:
		return "NonConvergence"
	case KindBrokenPool:
		return "BrokenPool"
	case KindLateUpdate:
		return "LateUpdate"
	default:
		return "Unknown"
	}
}

// Error is the engine's single error type. Every pricing, snapshot, and
// optimizer failure wraps one of these so a caller can recover the kind
// with errors.As and decide whether a cycle or a tick should be skipped.
type Error struct {
	Kind    ErrorKind
	Pool    common.Address
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Pool != (common.Address{}) {
		if e.Err != nil {
			return fmt.Sprintf("%s(%s): %s: %v", e.Kind, e.Pool, e.Context, e.Err)
		}
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Pool, e.Context)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind ErrorKind, ctx string, err error) *Error {
	return &Error{Kind: kind, Context: ctx, Err: err}
}

func newPoolErr(kind ErrorKind, pool common.Address, ctx string, err error) *Error {
	return &Error{Kind: kind, Pool: pool, Context: ctx, Err: err}
}

// ProviderFailure wraps any RPC error surfaced by the chain-RPC collaborator.
func ProviderFailure(ctx string, err error) error {
	return newErr(KindProviderFailure, ctx, err)
}

// DecodeFailure wraps an unexpected ABI return payload.
func DecodeFailure(ctx string, err error) error {
	return newErr(KindDecodeFailure, ctx, err)
}

// NonStandardToken signals a token whose symbol/name/decimals calls did not
// follow the standard ABI; callers fall back to a placeholder symbol.
func NonStandardToken(addr common.Address, reason string) error {
	return newPoolErr(KindNonStandardToken, addr, reason, nil)
}

// MissingPoolState signals an absent snapshot; cycles using this pool are
// skipped by the caller, never treated as fatal to the tick.
func MissingPoolState(addr common.Address) error {
	return newPoolErr(KindMissingPoolState, addr, "no pool state available", nil)
}

// ArithmeticFailure wraps overflow, underflow, or division-by-zero inside a
// pricing kernel.
func ArithmeticFailure(ctx string) error {
	return newErr(KindArithmeticFailure, ctx, nil)
}

// NonConvergence signals a Newton iteration that exceeded its cap without
// reaching the convergence criterion.
func NonConvergence(ctx string) error {
	return newErr(KindNonConvergence, ctx, nil)
}

// BrokenPool refuses construction of a pool on the known-broken address list.
func BrokenPool(addr common.Address) error {
	return newPoolErr(KindBrokenPool, addr, "address is on the known-broken list", nil)
}

// LateUpdate signals a reorg or out-of-order snapshot update.
func LateUpdate(attempted, latest uint64) error {
	return newErr(KindLateUpdate, fmt.Sprintf("attempted block %d, latest %d", attempted, latest), nil)
}
