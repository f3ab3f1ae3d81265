// Package curve implements the Curve stableswap and Tricrypto invariant
// solvers: Newton iterations for D and y, the amplification-ramp function,
// and the Tricrypto-specific gamma-parameterized Newton solver.
package curve

import "github.com/holiman/uint256"

var (
	// Precision is the WAD fixed-point unit used by Curve's internal math.
	Precision = uint256.NewInt(1_000_000_000_000_000_000)
	// APrecision scales the amplification coefficient internally by 100.
	APrecision = uint256.NewInt(100)
	// FeeDenominator is the scale of Curve's fee fields (10^10).
	FeeDenominator = uint256.NewInt(10_000_000_000)

	// maxIterations bounds every Newton solver in this package.
	maxIterations = 255
)
