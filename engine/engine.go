// Package engine schedules recomputes of the reference orbit and its
// approximation table.
//
// An Engine runs at most one job. Recompute interrupts the job in flight,
// waits for its worker to return and starts a new one; the interrupted job
// still delivers its result, with errs.ErrTerminated. The table cache is
// shared by every job of an engine, so a Result stays valid only until the
// next Recompute starts.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/deepzoom/approx"
	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/diag"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/internal/hash"
	"github.com/arloliu/deepzoom/internal/options"
	"github.com/arloliu/deepzoom/reference"
	"github.com/arloliu/deepzoom/renderstate"
)

// Result is the outcome of one Recompute.
type Result struct {
	// Fractal holds the attributes the job ran with, after the automatic
	// max iteration was applied.
	Fractal   attr.Fractal
	Reference *reference.Reference
	// Exactly one of Light and Deep is set on success.
	Light *approx.Table[approx.LightPA]
	Deep  *approx.Table[approx.DeepPA]
	// Reused reports that Reference was kept from the previous job.
	Reused  bool
	Elapsed time.Duration
	Err     error
}

// TableLen returns the number of table slots of whichever tier was built.
func (r Result) TableLen() uint64 {
	switch {
	case r.Light != nil:
		return r.Light.Len()
	case r.Deep != nil:
		return r.Deep.Len()
	default:
		return 0
	}
}

type job struct {
	id    uint64
	state renderstate.Flag
	done  chan struct{}
	out   chan Result
}

// Engine owns a table cache and the last reference orbit.
type Engine struct {
	cfg *config

	mu     sync.Mutex
	active *job
	nextID uint64
	closed bool

	// written by the worker only; jobs never overlap
	lastRef    *reference.Reference
	lastKey    uint64
	lastPeriod uint64
}

// New returns an idle Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{logger: zap.NewNop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.cache == nil {
		cfg.cache = approx.NewTableCache()
	}
	if cfg.sink == nil {
		cfg.sink = diag.NewZapSink(cfg.logger)
	}

	return &Engine{cfg: cfg}, nil
}

// Cache returns the table cache the engine builds into.
func (e *Engine) Cache() *approx.TableCache { return e.cfg.cache }

// Recompute validates f, stops the job in flight and starts a new one. The
// returned channel receives exactly one Result.
func (e *Engine) Recompute(f attr.Fractal) (<-chan Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrEngineClosed
	}
	e.stopLocked()

	e.nextID++
	j := &job{id: e.nextID, done: make(chan struct{}), out: make(chan Result, 1)}
	e.active = j
	go e.run(j, f)

	return j.out, nil
}

// Cancel asks the job in flight to stop and returns without waiting. Its
// Result carries errs.ErrTerminated unless it finished first.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.state.Interrupt()
	}
}

// Close stops the job in flight, waits for it and rejects further recomputes.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.closed = true
}

func (e *Engine) stopLocked() {
	if e.active == nil {
		return
	}
	e.active.state.Interrupt()
	<-e.active.done
	e.active = nil
}

func (e *Engine) run(j *job, f attr.Fractal) {
	defer close(j.done)

	logger := e.cfg.logger.With(zap.Uint64("job", j.id))
	start := time.Now()
	res := e.compute(&j.state, f, logger)
	res.Elapsed = time.Since(start)

	switch {
	case res.Err == nil:
		logger.Info("recompute finished",
			zap.Uint64("period", res.Reference.LongestPeriod()),
			zap.Uint64("referenceLength", res.Reference.Len()),
			zap.Uint64("tableLength", res.TableLen()),
			zap.Bool("reused", res.Reused),
			zap.Duration("elapsed", res.Elapsed))
	case errors.Is(res.Err, errs.ErrTerminated):
		logger.Debug("recompute terminated", zap.Duration("elapsed", res.Elapsed))
	default:
		logger.Error("recompute failed", zap.Error(res.Err))
	}
	j.out <- res
}

func (e *Engine) compute(state renderstate.State, f attr.Fractal, logger *zap.Logger) Result {
	f.MaxIteration = f.EffectiveMaxIteration(e.lastPeriod)
	res := Result{Fractal: f}
	st := newStatus(e.cfg.status)

	key := fingerprint(f)
	if f.ReuseReference == format.ReuseCurrentReference && e.lastRef != nil &&
		key == e.lastKey && f.Exp10() <= e.lastRef.Exp10() {
		res.Reference, res.Reused = e.lastRef, true
		logger.Debug("reusing reference", zap.Uint64("period", e.lastRef.LongestPeriod()))
	} else {
		logger.Debug("generating reference",
			zap.String("centerRe", f.CenterRe),
			zap.String("centerIm", f.CenterIm),
			zap.Float64("logZoom", f.LogZoom),
			zap.Uint64("maxIteration", f.MaxIteration))
		ref, err := reference.Generate(state, f,
			reference.WithDCMax(f.DCMax()),
			reference.WithProgress(st.orbit))
		if err != nil {
			res.Err = err
			return res
		}
		e.lastRef, e.lastKey, e.lastPeriod = ref, key, ref.LongestPeriod()
		res.Reference = ref
	}

	settings := approx.SettingsFrom(f.MPA)
	opts := []approx.Option{approx.WithDiagnostics(e.cfg.sink), approx.WithProgress(st.table)}
	if f.Deep() {
		res.Deep, res.Err = approx.BuildDeep(state, res.Reference, settings, f.DCMax(), e.cfg.cache, opts...)
	} else {
		res.Light, res.Err = approx.BuildLight(state, res.Reference, settings, f.DCMax().Float64(), e.cfg.cache, opts...)
	}
	if res.Err != nil {
		res.Light, res.Deep = nil, nil
		return res
	}
	st.done(res.Reference, res.TableLen())

	return res
}

// fingerprint identifies the attributes a reference orbit depends on, apart
// from the zoom depth.
func fingerprint(f attr.Fractal) uint64 {
	c := f.ReferenceCompression

	return hash.NewFingerprint().
		AddString(f.CenterRe).
		AddString(f.CenterIm).
		AddUint64(f.MaxIteration).
		AddFloat64(f.Bailout).
		AddUint64(c.Criteria).
		AddUint64(uint64(int64(c.ThresholdPower))). //nolint:gosec // bit pattern only
		AddBool(c.WithoutNormalize).
		Sum64()
}

// statusEvery is the number of orbit iterations between two "P :" lines.
const statusEvery = 10000

type status struct {
	fn      func(string)
	percent int
}

func newStatus(fn func(string)) *status {
	return &status{fn: fn, percent: -1}
}

func (s *status) orbit(iteration uint64) {
	if s.fn != nil && iteration%statusEvery == 0 {
		s.fn(fmt.Sprintf("P : %d", iteration))
	}
}

func (s *status) table(_ uint64, fraction float64) {
	if s.fn == nil {
		return
	}
	if p := int(fraction * 100); p != s.percent {
		s.percent = p
		s.fn(fmt.Sprintf("A : %d%%", p))
	}
}

func (s *status) done(ref *reference.Reference, tableLen uint64) {
	if s.fn != nil {
		s.fn(fmt.Sprintf("P : %d (%d, %d)", ref.LongestPeriod(), ref.Len(), tableLen))
	}
}
