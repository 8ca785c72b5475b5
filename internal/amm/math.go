package amm

import "github.com/holiman/uint256"

const maxExpoShift = 38

var (
	maxU128        = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)
	bpsDenominator = uint256.NewInt(10_000)
	// feePrecision scales the per-share fee accumulator.
	feePrecision = uint256.NewInt(1_000_000_000_000)
)

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

// bounded rejects amounts that do not fit in 128 bits.
func bounded(v *uint256.Int) error {
	if v != nil && v.Gt(maxU128) {
		return ErrArithmeticOverflow
	}
	return nil
}

func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || sum.Gt(maxU128) {
		return nil, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrArithmeticOverflow
	}
	return diff, nil
}

// mulDiv computes floor(a*b/d) with a 512-bit intermediate.
func mulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrArithmeticOverflow
	}
	q, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow || q.Gt(maxU128) {
		return nil, ErrArithmeticOverflow
	}
	return q, nil
}

func pow10(n uint64) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(n))
}
