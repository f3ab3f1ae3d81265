package chainclient

import (
	"context"
	"fmt"

	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
)

// FetchToken resolves a token's symbol and decimals, following spec §7's
// NonStandardToken fallback: try the standard string-returning ABI first,
// fall back to the 32-byte variant some older tokens (MKR, SAI) use, and on
// total failure synthesize a placeholder symbol rather than failing pool
// discovery outright.
func FetchToken(ctx context.Context, c ChainClient, addr common.Address) (arbengine.Token, error) {
	decOut, err := c.Call(ctx, addr, nil, "decimals")
	if err != nil {
		return arbengine.Token{}, arbengine.ProviderFailure("decimals "+addr.Hex(), err)
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return arbengine.Token{}, arbengine.DecodeFailure("decimals "+addr.Hex(), nil)
	}

	symbol, err := fetchSymbol(ctx, c, addr)
	if err != nil {
		symbol = fmt.Sprintf("UNKNOWN@%s", shortAddr(addr))
	}

	return arbengine.Token{Address: addr, Symbol: symbol, Decimals: decimals}, nil
}

func fetchSymbol(ctx context.Context, c ChainClient, addr common.Address) (string, error) {
	if ec, ok := c.(*EthClient); ok {
		if out, err := ec.callWithABI(ctx, addr, ERC20ABI, "symbol"); err == nil {
			if s, ok := out[0].(string); ok && s != "" {
				return s, nil
			}
		}
		if out, err := ec.callWithABI(ctx, addr, ERC20BytesABI, "symbol"); err == nil {
			if b, ok := out[0].([32]byte); ok {
				return bytes32ToString(b), nil
			}
		}
		return "", arbengine.NonStandardToken(addr, "symbol call failed under both string and bytes32 ABI")
	}

	// Non-EthClient implementations (e.g. test doubles) are expected to
	// decode against whatever ABI they were configured with directly.
	out, err := c.Call(ctx, addr, nil, "symbol")
	if err != nil {
		return "", arbengine.NonStandardToken(addr, "symbol call failed")
	}
	if s, ok := out[0].(string); ok {
		return s, nil
	}
	if b, ok := out[0].([32]byte); ok {
		return bytes32ToString(b), nil
	}
	return "", arbengine.NonStandardToken(addr, "unrecognized symbol return type")
}

func bytes32ToString(b [32]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func shortAddr(addr common.Address) string {
	h := addr.Hex()
	if len(h) <= 10 {
		return h
	}
	return h[:6] + "…" + h[len(h)-4:]
}
