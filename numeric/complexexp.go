package numeric

import "math"

// ComplexExp is a complex number with FloatExp parts.
type ComplexExp struct {
	Re FloatExp
	Im FloatExp
}

// NewComplexExp converts a float64 pair.
func NewComplexExp(re, im float64) ComplexExp {
	return ComplexExp{Re: NewFloatExp(re), Im: NewFloatExp(im)}
}

// Add returns z+w.
func (z ComplexExp) Add(w ComplexExp) ComplexExp {
	return ComplexExp{Re: z.Re.Add(w.Re), Im: z.Im.Add(w.Im)}
}

// Mul returns z*w.
func (z ComplexExp) Mul(w ComplexExp) ComplexExp {
	return ComplexExp{
		Re: z.Re.Mul(w.Re).Sub(z.Im.Mul(w.Im)),
		Im: z.Re.Mul(w.Im).Add(z.Im.Mul(w.Re)),
	}
}

// Abs returns |z| computed with HypotApproxExp.
func (z ComplexExp) Abs() FloatExp {
	return HypotApproxExp(z.Re, z.Im)
}

// Complex128 converts z to a complex128, saturating or flushing out-of-range parts.
func (z ComplexExp) Complex128() complex128 {
	return complex(z.Re.Float64(), z.Im.Float64())
}

// HypotApprox approximates sqrt(x²+y²) without a square root.
//
// The error stays below 0.5% which is plenty for validity radii and
// period-guessing thresholds.
func HypotApprox(x, y float64) float64 {
	x, y = math.Abs(x), math.Abs(y)
	if x < y {
		x, y = y, x
	}
	if x == 0 {
		return 0
	}
	if y == 0 {
		return x
	}
	r := y / x

	return x * (1 + r*r*(0.5-0.0857864376269*r))
}

// HypotApproxExp is HypotApprox over FloatExp.
func HypotApproxExp(x, y FloatExp) FloatExp {
	x, y = x.Abs(), y.Abs()
	if x.Cmp(y) < 0 {
		x, y = y, x
	}
	if x.IsZero() {
		return ZeroExp
	}
	if y.IsZero() {
		return x
	}
	r := y.Div(x).Float64()

	return x.MulFloat(1 + r*r*(0.5-0.0857864376269*r))
}
