package balancer

import "github.com/holiman/uint256"

// ComputeScalingFactor returns 10^(18-decimals) as a WAD fixed-point value
// (10^(18-decimals) * 10^18), the factor that upscales a token's native
// balance to WAD fixed point through Upscale's WAD multiply.
func ComputeScalingFactor(decimals uint8) *uint256.Int {
	diff := uint256.NewInt(uint64(18 - decimals))
	factor := new(uint256.Int).Exp(uint256.NewInt(10), diff)
	return factor.Mul(factor, uint256.NewInt(1_000_000_000_000_000_000))
}

// Upscale converts a native-decimals amount to WAD fixed point.
func Upscale(amount, scalingFactor *uint256.Int) (*uint256.Int, error) {
	return mulDown(amount, scalingFactor)
}

// DownscaleDown converts a WAD fixed-point amount back to native decimals,
// rounding down.
func DownscaleDown(amount, scalingFactor *uint256.Int) (*uint256.Int, error) {
	return divDown(amount, scalingFactor)
}

// DownscaleUp converts a WAD fixed-point amount back to native decimals,
// rounding up.
func DownscaleUp(amount, scalingFactor *uint256.Int) (*uint256.Int, error) {
	return divUp(amount, scalingFactor)
}
