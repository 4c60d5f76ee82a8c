package reference

import (
	"fmt"
	"math"

	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/internal/options"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/paged"
	"github.com/arloliu/deepzoom/renderstate"
)

// ExitCheckInterval is the number of iterations between two interrupt polls.
const ExitCheckInterval = 1000

type config struct {
	exp10         int
	initialPeriod uint64
	dcMax         numeric.FloatExp
	strictFPG     bool
	progress      func(iteration uint64)
}

// Option configures Generate.
type Option = options.Option[*config]

// WithExp10 overrides the decimal precision derived from the zoom depth.
func WithExp10(exp10 int) Option {
	return options.New(func(c *config) error {
		if exp10 <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidExp10, exp10)
		}
		c.exp10 = exp10

		return nil
	})
}

// WithInitialPeriod stops the orbit at the given iteration. It is used when a
// previous reference already revealed the period. Zero means no hint.
func WithInitialPeriod(period uint64) Option {
	return options.NoError(func(c *config) { c.initialPeriod = period })
}

// WithDCMax enables fast period guessing for a view whose center-to-corner
// distance is dcMax. Without it the orbit runs until bailout or max iteration.
func WithDCMax(dcMax numeric.FloatExp) Option {
	return options.NoError(func(c *config) { c.dcMax = dcMax })
}

// WithStrictFPG keeps the fast-period-guess derivative in arbitrary precision.
func WithStrictFPG(strict bool) Option {
	return options.NoError(func(c *config) { c.strictFPG = strict })
}

// WithProgress registers a callback invoked once per iteration on the
// generating goroutine. It must not block.
func WithProgress(fn func(iteration uint64)) Option {
	return options.NoError(func(c *config) { c.progress = fn })
}

// Generate iterates z <- z² + c from the center of f until |z| reaches the
// bailout, the max iteration is hit, or fast period guessing decides the
// period has been found.
//
// It returns errs.ErrTerminated, and no reference, if state requests an
// interrupt.
func Generate(state renderstate.State, f attr.Fractal, opts ...Option) (*Reference, error) {
	cfg := &config{exp10: f.Exp10()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if f.MaxIteration == 0 {
		return nil, errs.ErrInvalidMaxIteration
	}
	if !(f.Bailout > 0) {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidBailout, f.Bailout)
	}
	prec := numeric.PrecisionForExp10(cfg.exp10)
	center, err := numeric.ParseBigComplex(f.CenterRe, f.CenterIm, prec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCenter, err)
	}
	if state.InterruptRequested() {
		return nil, errs.ErrTerminated
	}

	g := newGenerator(f, cfg, center, prec)
	if err := g.run(state); err != nil {
		return nil, err
	}

	return g.finish(), nil
}

type generator struct {
	cfg    *config
	center *numeric.BigComplex
	prec   uint

	maxIteration uint64
	bailoutSqr   float64
	fpgActive    bool

	criteria         uint64
	threshold        float64
	withoutNormalize bool

	re, im *paged.Dense[float64]
	z      *numeric.BigComplex
	zr, zi float64

	bn, scratch    *numeric.BigComplex
	fpgBnr, fpgBni float64
	fpgReference   *numeric.BigComplex
	stoppedEarly   bool
	periods        []uint64
	iteration      uint64
	minRadius      float64
	reuseIndex     uint64
	canReuse       bool
	compressor     *interval.Set
	compressed     uint64
}

func newGenerator(f attr.Fractal, cfg *config, center *numeric.BigComplex, prec uint) *generator {
	g := &generator{
		cfg:              cfg,
		center:           center,
		prec:             prec,
		maxIteration:     f.MaxIteration,
		bailoutSqr:       f.Bailout * f.Bailout,
		fpgActive:        cfg.dcMax.Sign() > 0,
		criteria:         f.ReferenceCompression.Criteria,
		threshold:        f.ReferenceCompression.Threshold(),
		withoutNormalize: f.ReferenceCompression.WithoutNormalize,
		re:               paged.NewDense[float64](f.MaxIteration + 1),
		im:               paged.NewDense[float64](f.MaxIteration + 1),
		z:                numeric.NewBigComplex(0, 0, prec),
		fpgBnr:           1,
		minRadius:        math.MaxFloat64,
		canReuse:         f.ReferenceCompression.WithoutNormalize,
		compressor:       &interval.Set{},
	}
	if cfg.strictFPG {
		g.bn = numeric.NewBigComplex(0, 0, prec)
		g.scratch = numeric.NewBigComplex(0, 0, prec)
	}
	g.re.Push(0)
	g.im.Push(0)

	return g
}

func (g *generator) run(state renderstate.State) error {
	for g.zr*g.zr+g.zi*g.zi < g.bailoutSqr && g.iteration < g.maxIteration {
		if g.iteration%ExitCheckInterval == 0 && state.InterruptRequested() {
			return errs.ErrTerminated
		}
		if g.iteration > 0 && g.guessPeriod() {
			return nil
		}
		if g.bn != nil {
			g.scratch.Set(g.z).Double()
			g.bn.Mul(g.scratch).AddFloat(1, 0)
		}
		if g.cfg.progress != nil {
			g.cfg.progress(g.iteration)
		}

		g.z.Square().Add(g.center)
		g.zr, g.zi = g.z.Float64()

		if !g.withoutNormalize {
			g.testReusable()
		}
		if g.criteria > 0 && g.iteration >= 1 {
			if err := g.extendRun(); err != nil {
				return err
			}
		}

		g.iteration++
		if g.criteria == 0 || g.reuseIndex <= g.criteria {
			g.store()
		}
	}

	return nil
}

// guessPeriod records minimum-radius markers and reports whether the orbit
// should stop at the current iteration.
func (g *generator) guessPeriod() bool {
	radius2 := g.zr*g.zr + g.zi*g.zi
	bnr := g.fpgBnr*g.zr*2 - g.fpgBni*g.zi*2 + 1
	bni := g.fpgBnr*g.zi*2 + g.fpgBni*g.zr*2

	if radius2 > 0 && radius2 < g.minRadius {
		g.minRadius = radius2
		g.mark(g.iteration)
	}

	stop := g.cfg.initialPeriod != 0 && g.cfg.initialPeriod == g.iteration
	if g.fpgActive && !stop {
		// |Bn| * dcMax > |z|² means the view is wide enough to contain the
		// nucleus this iteration is close to.
		fpgRadius := numeric.NewFloatExp(numeric.HypotApprox(bnr, bni))
		stop = radius2 == 0 || fpgRadius.Mul(g.cfg.dcMax).Cmp(numeric.NewFloatExp(radius2)) > 0
	}
	if stop {
		g.mark(g.iteration)
		g.fpgReference = g.z.Clone()
		g.stoppedEarly = true

		return true
	}
	g.fpgBnr, g.fpgBni = bnr, bni

	return false
}

// mark appends a period marker unless it would not be strictly ascending.
func (g *generator) mark(iteration uint64) {
	if n := len(g.periods); n > 0 && g.periods[n-1] >= iteration {
		return
	}
	g.periods = append(g.periods, iteration)
}

// testReusable walks the period markers from the longest down. The iteration
// is reusable when it sits on a period boundary and not reusable right before
// one. Other remainders fall through to the next shorter period.
func (g *generator) testReusable() {
	j := g.iteration
	for k := len(g.periods); k > 0; k-- {
		p := g.periods[k-1]
		if g.criteria >= p {
			return
		}
		j %= p
		if j == 0 {
			g.canReuse = true
			return
		}
		if j == p-1 {
			g.canReuse = false
			return
		}
	}
}

// extendRun compares the new point with the point it would replay and either
// extends the reusable run or closes it.
func (g *generator) extendRun() error {
	ref := g.compressor.Compress(g.reuseIndex + 1)
	if g.canReuse && ref < g.re.Len() &&
		matches(g.zr, g.re.At(ref), g.threshold) && matches(g.zi, g.im.At(ref), g.threshold) {
		g.reuseIndex++
		return nil
	}
	if g.reuseIndex == 0 {
		return nil
	}
	err := g.closeRun(g.iteration)
	g.reuseIndex = 0
	g.canReuse = g.withoutNormalize

	return err
}

// closeRun turns the run ending at iteration into an interval when it is
// longer than the compression criteria.
func (g *generator) closeRun(iteration uint64) error {
	if g.reuseIndex <= g.criteria {
		return nil
	}
	iv := interval.Interval{Rebase: 1, Start: iteration - g.reuseIndex + 1, End: iteration}
	if err := g.compressor.Append(iv); err != nil {
		return fmt.Errorf("compress reference run: %w", err)
	}
	g.compressed += iv.Range()

	return nil
}

func (g *generator) store() {
	index := g.iteration - g.compressed
	if index == g.re.Len() {
		g.re.Push(g.zr)
		g.im.Push(g.zi)

		return
	}
	g.re.Set(index, g.zr)
	g.im.Set(index, g.zi)
}

func matches(v, ref, threshold float64) bool {
	if v == 0 && ref == 0 {
		return true
	}

	return math.Abs(v/ref-1) <= threshold
}

func (g *generator) finish() *Reference {
	if g.criteria > 0 && g.reuseIndex > 0 {
		// closing cannot fail: the run starts after every recorded interval
		_ = g.closeRun(g.iteration)
	}
	if !g.stoppedEarly && g.iteration == g.maxIteration {
		g.mark(g.iteration)
	}
	if len(g.periods) == 0 {
		g.periods = []uint64{g.iteration}
	}
	if g.fpgReference == nil {
		g.fpgReference = g.z.Clone()
	}
	if g.bn == nil {
		g.bn = numeric.NewBigComplex(g.fpgBnr, g.fpgBni, g.prec)
	}

	length := g.iteration - g.compressed + 1
	g.re.Resize(length)
	g.im.Resize(length)

	return &Reference{
		center:       g.center,
		exp10:        g.cfg.exp10,
		re:           g.re,
		im:           g.im,
		compressor:   g.compressor,
		period:       g.periods,
		fpgReference: g.fpgReference,
		fpgBn:        g.bn,
	}
}
