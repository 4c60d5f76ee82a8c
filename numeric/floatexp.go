// Package numeric provides the number types used by the perturbation engine.
//
// FloatExp is an extended-range float: a float64 mantissa in [0.5, 1) with a
// separate int64 binary exponent. It keeps series-approximation coefficients and
// view radii representable far below the float64 underflow threshold, at
// float64 precision. ComplexExp pairs two of them.
//
// BigComplex wraps math/big.Float and is the arbitrary-precision complex type
// the reference orbit is iterated in. Only the operations the generator needs
// are provided: add, multiply, square, halve, double and conversion to float64.
package numeric

import (
	"fmt"
	"math"
)

// FloatExp represents mant * 2^exp. The zero value is 0.
type FloatExp struct {
	mant float64
	exp  int64
}

// Common FloatExp constants.
var (
	ZeroExp = FloatExp{}
	OneExp  = NewFloatExp(1)
)

// NewFloatExp converts f. NaN and infinities are kept in the mantissa with a zero exponent.
func NewFloatExp(f float64) FloatExp {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return FloatExp{mant: f}
	}
	m, e := math.Frexp(f)

	return FloatExp{mant: m, exp: int64(e)}
}

// NewFloatExpParts builds mant * 2^exp and normalizes the result.
func NewFloatExpParts(mant float64, exp int64) FloatExp {
	return normalize(mant, exp)
}

// Exp10 returns 10^x. x may be far outside the float64 exponent range.
func Exp10(x float64) FloatExp {
	l := x * math.Log2(10)
	e := math.Floor(l)

	return normalize(math.Exp2(l-e), int64(e))
}

func normalize(mant float64, exp int64) FloatExp {
	if mant == 0 || math.IsNaN(mant) || math.IsInf(mant, 0) {
		return FloatExp{mant: mant}
	}
	m, e := math.Frexp(mant)

	return FloatExp{mant: m, exp: exp + int64(e)}
}

// Mantissa returns the normalized mantissa.
func (a FloatExp) Mantissa() float64 { return a.mant }

// Exponent returns the binary exponent.
func (a FloatExp) Exponent() int64 { return a.exp }

// IsZero reports whether a is zero.
func (a FloatExp) IsZero() bool { return a.mant == 0 }

// Sign returns -1, 0 or +1.
func (a FloatExp) Sign() int {
	switch {
	case a.mant > 0:
		return 1
	case a.mant < 0:
		return -1
	default:
		return 0
	}
}

// Float64 converts a back to float64, saturating to ±Inf or flushing to ±0.
func (a FloatExp) Float64() float64 {
	if a.mant == 0 {
		return a.mant
	}
	switch {
	case a.exp > 2000:
		return math.Copysign(math.Inf(1), a.mant)
	case a.exp < -2000:
		return math.Copysign(0, a.mant)
	}

	return math.Ldexp(a.mant, int(a.exp))
}

// Mul returns a*b.
func (a FloatExp) Mul(b FloatExp) FloatExp {
	return normalize(a.mant*b.mant, a.exp+b.exp)
}

// MulFloat returns a*f.
func (a FloatExp) MulFloat(f float64) FloatExp {
	return a.Mul(NewFloatExp(f))
}

// Div returns a/b. Division by zero yields a signed infinity mantissa.
func (a FloatExp) Div(b FloatExp) FloatExp {
	if b.mant == 0 {
		return FloatExp{mant: a.mant / b.mant}
	}

	return normalize(a.mant/b.mant, a.exp-b.exp)
}

// Add returns a+b. Operands more than 64 binary orders apart leave the larger unchanged.
func (a FloatExp) Add(b FloatExp) FloatExp {
	if a.mant == 0 {
		return b
	}
	if b.mant == 0 {
		return a
	}
	d := a.exp - b.exp
	switch {
	case d > 64:
		return a
	case d < -64:
		return b
	case d >= 0:
		return normalize(a.mant+math.Ldexp(b.mant, int(-d)), a.exp)
	default:
		return normalize(math.Ldexp(a.mant, int(d))+b.mant, b.exp)
	}
}

// Sub returns a-b.
func (a FloatExp) Sub(b FloatExp) FloatExp {
	return a.Add(b.Neg())
}

// Neg returns -a.
func (a FloatExp) Neg() FloatExp {
	return FloatExp{mant: -a.mant, exp: a.exp}
}

// Abs returns |a|.
func (a FloatExp) Abs() FloatExp {
	return FloatExp{mant: math.Abs(a.mant), exp: a.exp}
}

// Double returns 2a.
func (a FloatExp) Double() FloatExp {
	if a.mant == 0 {
		return a
	}

	return FloatExp{mant: a.mant, exp: a.exp + 1}
}

// Sqrt returns the square root of a. Negative inputs return NaN.
func (a FloatExp) Sqrt() FloatExp {
	if a.mant <= 0 {
		if a.mant == 0 {
			return a
		}

		return FloatExp{mant: math.NaN()}
	}
	m, e := a.mant, a.exp
	if e%2 != 0 {
		m *= 2
		e--
	}

	return normalize(math.Sqrt(m), e/2)
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a FloatExp) Cmp(b FloatExp) int {
	sa, sb := a.Sign(), b.Sign()
	if sa != sb {
		if sa < sb {
			return -1
		}

		return 1
	}
	if sa == 0 {
		return 0
	}
	// same sign, both non-zero
	var c int
	switch {
	case a.exp != b.exp:
		if a.exp < b.exp {
			c = -1
		} else {
			c = 1
		}
	case a.mant < b.mant:
		return -1
	case a.mant > b.mant:
		return 1
	default:
		return 0
	}
	if sa < 0 {
		return -c
	}

	return c
}

// MinExp returns the smaller of a and b.
func MinExp(a, b FloatExp) FloatExp {
	if a.Cmp(b) <= 0 {
		return a
	}

	return b
}

// MaxExp returns the larger of a and b.
func MaxExp(a, b FloatExp) FloatExp {
	if a.Cmp(b) >= 0 {
		return a
	}

	return b
}

// String formats a in decimal scientific notation, also outside the float64 range.
func (a FloatExp) String() string {
	if a.exp > -1000 && a.exp < 1000 {
		return fmt.Sprintf("%g", a.Float64())
	}
	// decimal mantissa/exponent
	l := math.Log10(math.Abs(a.mant)) + float64(a.exp)*math.Log10(2)
	e := math.Floor(l)
	m := math.Pow(10, l-e)
	if m >= 10-5e-7 {
		m /= 10
		e++
	}

	return fmt.Sprintf("%.6fe%+d", math.Copysign(m, a.mant), int64(e))
}
