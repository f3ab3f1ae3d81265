package pool

import "github.com/ethereum/go-ethereum/common"

// Known per-address overrides for Curve pools whose on-chain get_dy
// semantics diverge from the pool's nominal attributes. These are captured
// once at pool discovery, not re-derived per snapshot.
var (
	StethUSDCMetapool   = common.HexToAddress("0xC61557C5d177bd7DC889A3b621eEC333e168f68A")
	RethEthMetapool     = common.HexToAddress("0x618788357D0EBd8A37e763ADab3bc575D54c2C7d")
	CompoundPoolAddress = common.HexToAddress("0xA2B47E3D5c44877cca798226B7B8118F9BFb7A56")
)

// LendingGroupA pools skip the -1 wei rounding floor of the Default
// strategy but still convert dy back by the output rate.
var LendingGroupA = []common.Address{
	CompoundPoolAddress,
	common.HexToAddress("0xA5407eAE9Ba41422680e2e00537571bcC53efBfD"), // sUSD
	common.HexToAddress("0x45F783CCE6B7FF23B2ab2D70e416cdb7D6055f51"), // bUSD/y
	common.HexToAddress("0x79a8C46DeA5aDa233ABaFFD40F3A0A2B1e5A4F27"), // y
}

// LendingGroupB pools skip both the -1 wei floor and the final rate
// unscaling step entirely; dy is returned in the scaled xp domain.
var LendingGroupB = []common.Address{
	common.HexToAddress("0xA96A65c051bF88B4095Ee1f2451C2A9d43F53Ae2"), // aETH
	common.HexToAddress("0xF9440930043eb3997fc70e1339dBb11F341de7A8"), // rETH
}

func addrInList(addr common.Address, list []common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
