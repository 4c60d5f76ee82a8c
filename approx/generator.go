package approx

import (
	"math"

	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/reference"
)

// Generator accumulates one PA entry, one reference iteration per Step.
type Generator[E Entry] interface {
	// Step folds the reference point at Start()+Skip() into the entry.
	Step()
	// Merge appends a finished entry that starts where this one ends.
	Merge(pa E)
	// Build returns the entry accumulated so far.
	Build() E
	Skip() uint64
	Start() uint64
}

// Strategy creates generators of one precision tier for one reference.
type Strategy[E Entry] interface {
	NewGenerator(start uint64) Generator[E]
}

// LightStrategy creates float64 generators.
type LightStrategy struct {
	ref     *reference.Reference
	epsilon float64
	dcMax   float64
}

// NewLightStrategy returns a strategy whose entries are valid while the linear
// term dominates the quadratic one by 1/epsilon, for a view of half-diagonal dcMax.
func NewLightStrategy(ref *reference.Reference, epsilon, dcMax float64) *LightStrategy {
	return &LightStrategy{ref: ref, epsilon: epsilon, dcMax: dcMax}
}

// NewGenerator implements Strategy.
func (s *LightStrategy) NewGenerator(start uint64) Generator[LightPA] {
	return &lightGenerator{s: s, start: start, anr: 1, radius: math.MaxFloat64}
}

type lightGenerator struct {
	s                  *LightStrategy
	start, skip        uint64
	anr, ani, bnr, bni float64
	radius             float64
}

func (g *lightGenerator) Step() {
	zr, zi := g.s.ref.At(g.start + g.skip)
	z2r, z2i := 2*zr, 2*zi

	if aAbs := numeric.HypotApprox(g.anr, g.ani); aAbs != 0 {
		z2Abs := numeric.HypotApprox(z2r, z2i)
		bAbs := numeric.HypotApprox(g.bnr, g.bni)
		g.radius = min(g.radius, max(0, (g.s.epsilon*z2Abs-bAbs*g.s.dcMax)/aAbs))
	}
	g.anr, g.ani = g.anr*z2r-g.ani*z2i, g.anr*z2i+g.ani*z2r
	g.bnr, g.bni = g.bnr*z2r-g.bni*z2i+1, g.bnr*z2i+g.bni*z2r
	g.skip++
}

func (g *lightGenerator) Merge(pa LightPA) {
	if aAbs := numeric.HypotApprox(g.anr, g.ani); aAbs != 0 {
		bAbs := numeric.HypotApprox(g.bnr, g.bni)
		g.radius = min(g.radius, max(0, (pa.Radius-bAbs*g.s.dcMax)/aAbs))
	}
	// (A2, B2) ∘ (A1, B1) = (A2·A1, A2·B1 + B2)
	g.anr, g.ani = pa.Anr*g.anr-pa.Ani*g.ani, pa.Anr*g.ani+pa.Ani*g.anr
	g.bnr, g.bni = pa.Anr*g.bnr-pa.Ani*g.bni+pa.Bnr, pa.Anr*g.bni+pa.Ani*g.bnr+pa.Bni
	g.skip += pa.Skip
}

func (g *lightGenerator) Build() LightPA {
	return LightPA{Anr: g.anr, Ani: g.ani, Bnr: g.bnr, Bni: g.bni, Radius: g.radius, Skip: g.skip}
}

func (g *lightGenerator) Skip() uint64  { return g.skip }
func (g *lightGenerator) Start() uint64 { return g.start }

// DeepStrategy creates extended-range generators for views below the float64
// range.
type DeepStrategy struct {
	ref     *reference.Reference
	epsilon numeric.FloatExp
	dcMax   numeric.FloatExp
}

// NewDeepStrategy is NewLightStrategy for the deep tier.
func NewDeepStrategy(ref *reference.Reference, epsilon float64, dcMax numeric.FloatExp) *DeepStrategy {
	return &DeepStrategy{ref: ref, epsilon: numeric.NewFloatExp(epsilon), dcMax: dcMax}
}

// NewGenerator implements Strategy.
func (s *DeepStrategy) NewGenerator(start uint64) Generator[DeepPA] {
	return &deepGenerator{
		s:      s,
		start:  start,
		a:      numeric.NewComplexExp(1, 0),
		radius: numeric.NewFloatExp(math.MaxFloat64),
	}
}

var deepOne = numeric.NewComplexExp(1, 0)

type deepGenerator struct {
	s           *DeepStrategy
	start, skip uint64
	a, b        numeric.ComplexExp
	radius      numeric.FloatExp
}

func (g *deepGenerator) shrinkRadius(limit numeric.FloatExp) {
	aAbs := g.a.Abs()
	if aAbs.IsZero() {
		return
	}
	r := limit.Sub(g.b.Abs().Mul(g.s.dcMax)).Div(aAbs)
	g.radius = numeric.MinExp(g.radius, numeric.MaxExp(numeric.ZeroExp, r))
}

func (g *deepGenerator) Step() {
	zr, zi := g.s.ref.At(g.start + g.skip)
	z2 := numeric.NewComplexExp(2*zr, 2*zi)

	g.shrinkRadius(g.s.epsilon.Mul(z2.Abs()))
	g.a = g.a.Mul(z2)
	g.b = g.b.Mul(z2).Add(deepOne)
	g.skip++
}

func (g *deepGenerator) Merge(pa DeepPA) {
	g.shrinkRadius(pa.Radius)
	g.a = pa.A.Mul(g.a)
	g.b = pa.A.Mul(g.b).Add(pa.B)
	g.skip += pa.Skip
}

func (g *deepGenerator) Build() DeepPA {
	return DeepPA{A: g.a, B: g.b, Radius: g.radius, Skip: g.skip}
}

func (g *deepGenerator) Skip() uint64  { return g.skip }
func (g *deepGenerator) Start() uint64 { return g.start }
