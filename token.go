package arbengine

import "github.com/ethereum/go-ethereum/common"

// Token identifies an ERC-20-like asset. Identity is the address alone;
// Symbol and Decimals are display/scaling metadata fetched once at
// discovery time and never revisited.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// Equal compares tokens by address, matching the data model's identity rule.
func (t Token) Equal(o Token) bool {
	return t.Address == o.Address
}

// WETH is the default profit anchor used by the cycle enumerator and the
// opportunity engine's conversion-rate table.
var WETH = Token{
	Address:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	Symbol:   "WETH",
	Decimals: 18,
}
