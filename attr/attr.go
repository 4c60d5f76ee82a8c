// Package attr holds the fractal attributes a recompute is driven by.
//
// Attributes are plain structs with YAML tags so they can be kept in a file
// next to a render. Enum fields use the names defined in package format.
package attr

import (
	"fmt"
	"io"
	"math"
	"math/big"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/numeric"
)

// ZoomDeadline is the log10 zoom above which float64 deltas underflow and the
// deep precision tier is required.
const ZoomDeadline = 290.0

// exp10Guard is the number of decimal digits carried beyond the zoom depth.
const exp10Guard = 12

// Fractal describes the view and the settings of one recompute.
type Fractal struct {
	CenterRe string  `yaml:"centerRe"`
	CenterIm string  `yaml:"centerIm"`
	LogZoom  float64 `yaml:"logZoom"`
	// Aspect is the view width divided by its height. Zero means square.
	Aspect float64 `yaml:"aspect,omitempty"`

	MaxIteration            uint64  `yaml:"maxIteration"`
	AutoMaxIteration        bool    `yaml:"autoMaxIteration"`
	AutoIterationMultiplier uint64  `yaml:"autoIterationMultiplier"`
	Bailout                 float64 `yaml:"bailout"`

	ReferenceCompression ReferenceCompression `yaml:"referenceCompression"`
	MPA                  MPA                  `yaml:"mpa"`

	ReuseReference format.ReuseMethod `yaml:"reuseReference"`
	Precision      format.Precision   `yaml:"precision"`
}

// ReferenceCompression controls how repeated runs of the reference orbit are
// collapsed. A zero Criteria disables compression.
type ReferenceCompression struct {
	// Criteria is the minimum run length worth compressing.
	Criteria uint64 `yaml:"criteria"`
	// ThresholdPower sets the relative match tolerance to 10^-ThresholdPower.
	// Zero or below requires exact matches.
	ThresholdPower int `yaml:"thresholdPower"`
	// WithoutNormalize skips the period-alignment test and treats every
	// matching point as reusable.
	WithoutNormalize bool `yaml:"withoutNormalize"`
}

// Threshold returns the relative match tolerance.
func (c ReferenceCompression) Threshold() float64 {
	if c.ThresholdPower <= 0 {
		return 0
	}

	return math.Pow(10, -float64(c.ThresholdPower))
}

// Enabled reports whether orbit compression is on.
func (c ReferenceCompression) Enabled() bool { return c.Criteria > 0 }

// MPA controls the series-approximation table.
type MPA struct {
	// MinSkipReference is the shortest period marker used as a table level.
	MinSkipReference uint64 `yaml:"minSkipReference"`
	// MaxMultiplierBetweenLevel bounds the ratio of adjacent level periods;
	// larger gaps get artificial levels.
	MaxMultiplierBetweenLevel uint64 `yaml:"maxMultiplierBetweenLevel"`
	// EpsilonPower sets the validity threshold to 10^EpsilonPower.
	EpsilonPower float64                     `yaml:"epsilonPower"`
	Method       format.MPACompressionMethod `yaml:"method"`
}

// Epsilon returns 10^EpsilonPower.
func (m MPA) Epsilon() float64 {
	return math.Pow(10, m.EpsilonPower)
}

// Default returns the attributes of the home view.
func Default() Fractal {
	return Fractal{
		CenterRe:                "-0.75",
		CenterIm:                "0",
		LogZoom:                 0,
		MaxIteration:            300,
		AutoIterationMultiplier: 100,
		Bailout:                 2,
		ReferenceCompression: ReferenceCompression{
			Criteria:       100,
			ThresholdPower: 12,
		},
		MPA: MPA{
			MinSkipReference:          4,
			MaxMultiplierBetweenLevel: 2,
			EpsilonPower:              -3,
			Method:                    format.Strongest,
		},
		ReuseReference: format.ReuseDisabled,
		Precision:      format.PrecisionAuto,
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (Fractal, error) {
	f := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Fractal{}, fmt.Errorf("decode fractal attributes: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fractal{}, err
	}

	return f, nil
}

// Marshal encodes f as YAML.
func (f Fractal) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate checks that f can drive a recompute.
func (f Fractal) Validate() error {
	if _, _, err := f.parseCenter(64); err != nil {
		return err
	}
	if f.MaxIteration == 0 {
		return errs.ErrInvalidMaxIteration
	}
	if f.AutoMaxIteration && f.AutoIterationMultiplier == 0 {
		return fmt.Errorf("%w: auto iteration multiplier is zero", errs.ErrInvalidMaxIteration)
	}
	if !(f.Bailout > 0) || math.IsInf(f.Bailout, 0) {
		return fmt.Errorf("%w: %v", errs.ErrInvalidBailout, f.Bailout)
	}
	if f.ReferenceCompression.ThresholdPower > 300 {
		return fmt.Errorf("%w: threshold power %d", errs.ErrInvalidCompression, f.ReferenceCompression.ThresholdPower)
	}
	if f.MPA.MinSkipReference < 3 {
		return fmt.Errorf("%w: min skip reference must be at least 3", errs.ErrInvalidMPASettings)
	}
	if f.MPA.MaxMultiplierBetweenLevel < 2 {
		return fmt.Errorf("%w: max multiplier between level must be at least 2", errs.ErrInvalidMPASettings)
	}
	if !(f.MPA.EpsilonPower < 0) {
		return fmt.Errorf("%w: epsilon power must be negative", errs.ErrInvalidMPASettings)
	}
	switch f.MPA.Method {
	case format.NoCompression, format.LittleCompression, format.Strongest:
	default:
		return fmt.Errorf("%w: method %d", errs.ErrInvalidMPASettings, f.MPA.Method)
	}
	if f.ReuseReference.String() == "Unknown" || f.Precision.String() == "Unknown" {
		return fmt.Errorf("%w: unknown reuse method or precision", errs.ErrInvalidMPASettings)
	}
	if f.Aspect < 0 || math.IsNaN(f.Aspect) {
		return fmt.Errorf("%w: aspect %v", errs.ErrInvalidCenter, f.Aspect)
	}

	return nil
}

func (f Fractal) parseCenter(prec uint) (*big.Float, *big.Float, error) {
	re, _, err := big.ParseFloat(f.CenterRe, 10, prec, big.ToNearestEven)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: real part %q", errs.ErrInvalidCenter, f.CenterRe)
	}
	im, _, err := big.ParseFloat(f.CenterIm, 10, prec, big.ToNearestEven)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: imaginary part %q", errs.ErrInvalidCenter, f.CenterIm)
	}

	return re, im, nil
}

// Exp10 returns the number of decimal digits the reference is iterated with.
func (f Fractal) Exp10() int {
	return max(int(math.Ceil(f.LogZoom)), 0) + exp10Guard
}

// Center parses the center at the precision Exp10 calls for.
func (f Fractal) Center() (*numeric.BigComplex, error) {
	c, err := numeric.ParseBigComplex(f.CenterRe, f.CenterIm, numeric.PrecisionForExp10(f.Exp10()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCenter, err)
	}

	return c, nil
}

// DCMax returns the distance from the view center to a corner, in orbit units.
// The view height spans 4 / 10^LogZoom.
func (f Fractal) DCMax() numeric.FloatExp {
	aspect := f.Aspect
	if aspect == 0 {
		aspect = 1
	}
	halfHeight := numeric.Exp10(-f.LogZoom).MulFloat(2)

	return numeric.HypotApproxExp(halfHeight.MulFloat(aspect), halfHeight)
}

// Deep reports whether the deep precision tier must be used.
func (f Fractal) Deep() bool {
	switch f.Precision {
	case format.PrecisionLight:
		return false
	case format.PrecisionDeep:
		return true
	default:
		return f.LogZoom > ZoomDeadline
	}
}

// EffectiveMaxIteration returns the iteration bound of a recompute that
// follows one whose longest period was lastPeriod.
func (f Fractal) EffectiveMaxIteration(lastPeriod uint64) uint64 {
	if f.AutoMaxIteration && lastPeriod > 0 {
		return lastPeriod * f.AutoIterationMultiplier
	}

	return f.MaxIteration
}
