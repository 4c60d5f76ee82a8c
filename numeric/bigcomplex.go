package numeric

import (
	"fmt"
	"math"
	"math/big"
)

// BigComplex is an arbitrary-precision complex number. Methods with a pointer
// receiver mutate z in place and reuse its scratch space, so a single value can
// be iterated millions of times without allocating.
type BigComplex struct {
	re, im *big.Float
	t1, t2 *big.Float
}

// PrecisionForExp10 returns the mantissa precision in bits needed to resolve
// 10^-exp10, with a fixed guard margin.
func PrecisionForExp10(exp10 int) uint {
	if exp10 < 1 {
		exp10 = 1
	}

	return uint(math.Ceil(float64(exp10)*math.Log2(10))) + 64
}

// NewBigComplex returns re+im·i at the given precision.
func NewBigComplex(re, im float64, prec uint) *BigComplex {
	z := newBig(prec)
	z.re.SetFloat64(re)
	z.im.SetFloat64(im)

	return z
}

// ParseBigComplex parses decimal strings for both parts.
func ParseBigComplex(re, im string, prec uint) (*BigComplex, error) {
	z := newBig(prec)
	if _, ok := z.re.SetString(re); !ok {
		return nil, fmt.Errorf("cannot parse real part %q", re)
	}
	if _, ok := z.im.SetString(im); !ok {
		return nil, fmt.Errorf("cannot parse imaginary part %q", im)
	}

	return z, nil
}

// BigComplexFromParts returns a value that takes ownership of re and im.
func BigComplexFromParts(re, im *big.Float) *BigComplex {
	prec := max(re.Prec(), im.Prec())
	z := newBig(prec)
	z.re.Set(re)
	z.im.Set(im)

	return z
}

func newBig(prec uint) *BigComplex {
	return &BigComplex{
		re: new(big.Float).SetPrec(prec),
		im: new(big.Float).SetPrec(prec),
		t1: new(big.Float).SetPrec(prec),
		t2: new(big.Float).SetPrec(prec),
	}
}

// Prec returns the mantissa precision in bits.
func (z *BigComplex) Prec() uint { return z.re.Prec() }

// Real returns the real part. The returned value must not be modified.
func (z *BigComplex) Real() *big.Float { return z.re }

// Imag returns the imaginary part. The returned value must not be modified.
func (z *BigComplex) Imag() *big.Float { return z.im }

// Clone returns an independent copy.
func (z *BigComplex) Clone() *BigComplex {
	c := newBig(z.Prec())
	c.re.Set(z.re)
	c.im.Set(z.im)

	return c
}

// Set copies w into z.
func (z *BigComplex) Set(w *BigComplex) *BigComplex {
	z.re.Set(w.re)
	z.im.Set(w.im)

	return z
}

// Add sets z = z + w.
func (z *BigComplex) Add(w *BigComplex) *BigComplex {
	z.re.Add(z.re, w.re)
	z.im.Add(z.im, w.im)

	return z
}

// AddFloat sets z = z + (re + im·i).
func (z *BigComplex) AddFloat(re, im float64) *BigComplex {
	z.t1.SetFloat64(re)
	z.re.Add(z.re, z.t1)
	z.t1.SetFloat64(im)
	z.im.Add(z.im, z.t1)

	return z
}

// Mul sets z = z * w.
func (z *BigComplex) Mul(w *BigComplex) *BigComplex {
	// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
	z.t1.Mul(z.re, w.re)
	z.t2.Mul(z.im, w.im)
	z.t1.Sub(z.t1, z.t2)

	z.t2.Mul(z.re, w.im)
	z.im.Mul(z.im, w.re)
	z.im.Add(z.im, z.t2)
	z.re.Set(z.t1)

	return z
}

// Square sets z = z².
func (z *BigComplex) Square() *BigComplex {
	z.t1.Mul(z.re, z.re)
	z.t2.Mul(z.im, z.im)
	z.t1.Sub(z.t1, z.t2)

	z.im.Mul(z.im, z.re)
	z.im.SetMantExp(z.im, 1)
	z.re.Set(z.t1)

	return z
}

// Double sets z = 2z.
func (z *BigComplex) Double() *BigComplex {
	z.re.SetMantExp(z.re, 1)
	z.im.SetMantExp(z.im, 1)

	return z
}

// Halve sets z = z/2.
func (z *BigComplex) Halve() *BigComplex {
	z.re.SetMantExp(z.re, -1)
	z.im.SetMantExp(z.im, -1)

	return z
}

// Float64 returns both parts rounded to float64.
func (z *BigComplex) Float64() (float64, float64) {
	re, _ := z.re.Float64()
	im, _ := z.im.Float64()

	return re, im
}

// ComplexExp returns z rounded to extended-range float parts.
func (z *BigComplex) ComplexExp() ComplexExp {
	return ComplexExp{Re: bigToExp(z.re), Im: bigToExp(z.im)}
}

func bigToExp(f *big.Float) FloatExp {
	if f.Sign() == 0 {
		return ZeroExp
	}
	mant := new(big.Float)
	exp := f.MantExp(mant)
	m, _ := mant.Float64()

	return NewFloatExpParts(m, int64(exp))
}

// Text formats both parts in decimal with the given number of significant digits.
func (z *BigComplex) Text(digits int) (string, string) {
	return z.re.Text('g', digits), z.im.Text('g', digits)
}

// MarshalParts returns the gob encodings of the real and imaginary parts.
func (z *BigComplex) MarshalParts() ([]byte, []byte, error) {
	re, err := z.re.GobEncode()
	if err != nil {
		return nil, nil, err
	}
	im, err := z.im.GobEncode()
	if err != nil {
		return nil, nil, err
	}

	return re, im, nil
}

// UnmarshalBigComplex reverses MarshalParts.
func UnmarshalBigComplex(re, im []byte) (*BigComplex, error) {
	var r, i big.Float
	if err := r.GobDecode(re); err != nil {
		return nil, fmt.Errorf("decode real part: %w", err)
	}
	if err := i.GobDecode(im); err != nil {
		return nil, fmt.Errorf("decode imaginary part: %w", err)
	}

	return BigComplexFromParts(&r, &i), nil
}
