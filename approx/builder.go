package approx

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/deepzoom/diag"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/internal/options"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/paged"
	"github.com/arloliu/deepzoom/reference"
	"github.com/arloliu/deepzoom/renderstate"
)

// ExitCheckInterval is the number of build iterations between two interrupt polls.
const ExitCheckInterval = 1000

type config struct {
	sink     diag.Sink
	progress func(iteration uint64, fraction float64)
}

// Option configures BuildLight and BuildDeep.
type Option = options.Option[*config]

// WithDiagnostics sets the sink that receives clone rejections, dropped
// intervals and aborts. The default discards them.
func WithDiagnostics(sink diag.Sink) Option {
	return options.NoError(func(c *config) {
		if sink != nil {
			c.sink = sink
		}
	})
}

// WithProgress registers a callback invoked once per processed iteration with
// the iteration and the completed fraction. It must not block.
func WithProgress(fn func(iteration uint64, fraction float64)) Option {
	return options.NoError(func(c *config) { c.progress = fn })
}

// BuildLight builds a float64 table for ref into cache.
func BuildLight(state renderstate.State, ref *reference.Reference, s Settings, dcMax float64,
	cache *TableCache, opts ...Option,
) (*Table[LightPA], error) {
	if ref == nil {
		return nil, errs.ErrNoReference
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy := NewLightStrategy(ref, math.Pow(10, s.EpsilonPower), dcMax)

	return build(state, ref, s, strategy, cache, &cache.light, opts)
}

// BuildDeep builds an extended-range table for ref into cache.
func BuildDeep(state renderstate.State, ref *reference.Reference, s Settings, dcMax numeric.FloatExp,
	cache *TableCache, opts ...Option,
) (*Table[DeepPA], error) {
	if ref == nil {
		return nil, errs.ErrNoReference
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy := NewDeepStrategy(ref, math.Pow(10, s.EpsilonPower), dcMax)

	return build(state, ref, s, strategy, cache, &cache.deep, opts)
}

func build[E Entry](state renderstate.State, ref *reference.Reference, s Settings, strategy Strategy[E],
	cache *TableCache, slots *paged.Sparse[[]E], opts []Option,
) (*Table[E], error) {
	cfg := &config{sink: diag.Nop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	release, err := cache.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	t := &Table[E]{slots: slots, method: s.Method, pulled: &interval.Set{}}
	h, ok := NewHierarchy(ref.Period(), s)
	if !ok {
		t.valid = true

		return t, nil
	}
	t.hierarchy = h
	if s.Method == format.Strongest {
		t.pulled = pulledCompressor(ref.Compressor(), h, cfg.sink)
	}

	b := &builder[E]{
		cfg:      cfg,
		table:    t,
		h:        h,
		strategy: strategy,
		slots:    slots,
		gens:     make([]Generator[E], h.Levels()),
		count:    make([]uint64, h.Levels()),
	}
	if size, ok := t.CompIndex(h.LongestPeriod() + 1); ok {
		slots.Reserve(size)
	}
	if err := b.run(state); err != nil {
		if errors.Is(err, errs.ErrUnresolvableIndex) {
			return t, err
		}

		return nil, err
	}
	slots.Range(func(_ uint64, v *[]E) bool {
		slices.Reverse(*v)
		return true
	})
	t.valid = true

	return t, nil
}

// pulledCompressor re-expresses the orbit intervals that cover exactly one
// natural level block in pulled index space.
func pulledCompressor(orbit *interval.Set, h *Hierarchy, sink diag.Sink) *interval.Set {
	pulled := &interval.Set{}
	periods, elements := h.period, h.elements
	for k := 0; k < orbit.Len(); k++ {
		iv := orbit.At(k)
		level, ok := interval.BinarySearch(periods, iv.Range()+1)
		if !ok || h.IsArtificial(level) {
			sink.Warn(diag.CodeIntervalDropped, "interval", iv.String(), "reason", "no natural level")
			continue
		}
		idx, ok := h.PulledIndex(iv.Start)
		if !ok {
			sink.Warn(diag.CodeIntervalDropped, "interval", iv.String(), "reason", "start is not a block boundary")
			continue
		}
		if elements[level] < 2 {
			sink.Warn(diag.CodeIntervalDropped, "interval", iv.String(), "reason", "level holds a single block")
			continue
		}
		if err := pulled.Append(interval.Interval{Rebase: 1, Start: idx + 1, End: idx + elements[level] - 1}); err != nil {
			sink.Warn(diag.CodeIntervalDropped, "interval", iv.String(), "reason", err.Error())
		}
	}

	return pulled
}

type builder[E Entry] struct {
	cfg      *config
	table    *Table[E]
	h        *Hierarchy
	strategy Strategy[E]
	slots    *paged.Sparse[[]E]

	gens  []Generator[E]
	count []uint64
}

func (b *builder[E]) run(state renderstate.State) error {
	longest := b.h.LongestPeriod()
	method := b.table.method
	var polls uint64
	for iteration := uint64(1); iteration <= longest; iteration++ {
		if polls%ExitCheckInterval == 0 && state.InterruptRequested() {
			return errs.ErrTerminated
		}
		polls++
		if b.cfg.progress != nil {
			b.cfg.progress(iteration, float64(iteration)/float64(longest))
		}

		independent, fresh := true, true
		if method != format.NoCompression {
			pulled, ok := b.h.PulledIndex(iteration)
			independent = !ok || b.table.pulled.IsIndependent(pulled)
			if ok && method == format.Strongest {
				if skip, cloned := b.tryClone(iteration, pulled); cloned {
					iteration += skip
					fresh = false
				}
			}
		}
		if err := b.advance(iteration, independent && fresh); err != nil {
			return err
		}
	}

	return nil
}

// advance moves every level forward by one iteration, coarsest first.
// Finishing a level resets its counter and those of all finer levels.
func (b *builder[E]) advance(iteration uint64, canStart bool) error {
	reset := false
	for i := b.h.Levels() - 1; i >= 0; i-- {
		period := b.h.TablePeriod(i)
		if b.count[i] == 0 && canStart {
			b.gens[i] = b.strategy.NewGenerator(iteration)
		}
		if g := b.gens[i]; g != nil && b.count[i]+RequiredPerturbation < period {
			g.Step()
		}
		b.count[i]++
		if b.count[i] == period {
			if g := b.gens[i]; g != nil && g.Skip() == period-RequiredPerturbation {
				if err := b.store(iteration, g); err != nil {
					return err
				}
			}
			b.gens[i] = nil
			reset = true
		}
		if reset {
			b.count[i] = 0
		}
	}

	return nil
}

func (b *builder[E]) store(iteration uint64, g Generator[E]) error {
	idx, ok := b.table.CompIndex(g.Start())
	if !ok {
		b.cfg.sink.Warn(diag.CodeTableAborted, "iteration", iteration, "start", g.Start())
		return fmt.Errorf("%w: start %d at iteration %d", errs.ErrUnresolvableIndex, g.Start(), iteration)
	}
	slot := b.slots.Ptr(idx)
	*slot = append(*slot, g.Build())

	return nil
}

// tryClone copies the entries of a repeated level block from slot 0 when
// iteration starts a block the pulled compressor folds away. It returns the
// number of iterations to jump over.
func (b *builder[E]) tryClone(iteration, pulled uint64) (uint64, bool) {
	k, ok := b.table.pulled.ContainedIndex(pulled + 1)
	if !ok {
		return 0, false
	}
	iv := b.table.pulled.At(k)
	if iv.Start != pulled+1 {
		return 0, false
	}
	reject := func(reason string) (uint64, bool) {
		b.cfg.sink.Warn(diag.CodeCloneRejected, "iteration", iteration, "interval", iv.String(), "reason", reason)
		return 0, false
	}

	level, ok := interval.BinarySearch(b.h.elements, iv.End-iv.Start+2)
	if !ok {
		return reject("no level matches the interval")
	}
	first := b.slots.At(0)
	if level >= len(first) {
		return reject("first block has no entry for the level")
	}
	skip := first[level].SkipCount()
	for i := range b.count {
		if i <= level && b.count[i] != 0 {
			return reject(fmt.Sprintf("level %d is mid-block", i))
		}
		if i > level && b.count[i]+skip > b.h.TablePeriod(i)-RequiredPerturbation {
			return reject(fmt.Sprintf("level %d would overflow", i))
		}
	}
	idx, ok := b.table.CompIndex(iteration)
	if !ok {
		return reject("unresolvable slot")
	}

	slot := b.slots.Ptr(idx)
	for i := range b.count {
		if i <= level {
			*slot = append(*slot, first[i])
			c := skip
			for j := level; j > i; j-- {
				c %= b.h.TablePeriod(j - 1)
			}
			b.count[i] = c
			b.gens[i] = nil

			continue
		}
		if b.gens[i] == nil {
			b.gens[i] = b.strategy.NewGenerator(iteration)
		}
		b.gens[i].Merge(first[level])
		b.count[i] += skip
	}

	return skip, true
}
