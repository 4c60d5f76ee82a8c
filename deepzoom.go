// Package deepzoom is the math core of a deep Mandelbrot zoom renderer based
// on perturbation theory.
//
// A render at zoom 10^N evaluates every pixel as a small delta against one
// arbitrary-precision reference orbit. This package ties together the pieces
// that make that possible:
//
//   - reference: iterates the reference orbit, detects its period and
//     collapses repeated runs into an interval set.
//   - approx: builds the multi-level series approximation table (MPA) that
//     lets pixels skip whole period blocks.
//   - engine: schedules recomputes with cooperative cancellation and reuses
//     the last reference when the center did not move.
//   - archive: stores a reference orbit on disk, page by page, compressed.
//
// # Basic Usage
//
//	f, _ := deepzoom.LoadAttributes(file)
//	ref, _ := deepzoom.GenerateReference(renderstate.Never(), f)
//	table, _ := deepzoom.BuildLightTable(renderstate.Never(), ref, f, approx.NewTableCache())
//
//	entries, ok := table.Lookup(1)
//
// Long-lived callers should prefer an engine:
//
//	eng, _ := deepzoom.NewEngine(engine.WithLogger(logger))
//	defer eng.Close()
//	ch, _ := eng.Recompute(f)
//	res := <-ch
//
// The top-level functions are thin wrappers; use the sub-packages directly for
// fine-grained control.
package deepzoom

import (
	"io"

	"github.com/arloliu/deepzoom/approx"
	"github.com/arloliu/deepzoom/archive"
	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/engine"
	"github.com/arloliu/deepzoom/reference"
	"github.com/arloliu/deepzoom/renderstate"
)

// LoadAttributes reads YAML fractal attributes on top of attr.Default.
func LoadAttributes(r io.Reader) (attr.Fractal, error) {
	return attr.Load(r)
}

// GenerateReference iterates the reference orbit for f with fast period
// guessing sized to the view of f.
func GenerateReference(state renderstate.State, f attr.Fractal, opts ...reference.Option) (*reference.Reference, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	opts = append([]reference.Option{reference.WithDCMax(f.DCMax())}, opts...)

	return reference.Generate(state, f, opts...)
}

// BuildLightTable builds the float64 approximation table of ref with the MPA
// settings and view size of f.
func BuildLightTable(state renderstate.State, ref *reference.Reference, f attr.Fractal,
	cache *approx.TableCache, opts ...approx.Option,
) (*approx.Table[approx.LightPA], error) {
	return approx.BuildLight(state, ref, approx.SettingsFrom(f.MPA), f.DCMax().Float64(), cache, opts...)
}

// BuildDeepTable is BuildLightTable for zooms beyond attr.ZoomDeadline.
func BuildDeepTable(state renderstate.State, ref *reference.Reference, f attr.Fractal,
	cache *approx.TableCache, opts ...approx.Option,
) (*approx.Table[approx.DeepPA], error) {
	return approx.BuildDeep(state, ref, approx.SettingsFrom(f.MPA), f.DCMax(), cache, opts...)
}

// NewEngine returns an idle recompute engine.
func NewEngine(opts ...engine.Option) (*engine.Engine, error) {
	return engine.New(opts...)
}

// EncodeReference serializes ref into an archive.
func EncodeReference(ref *reference.Reference, opts ...archive.Option) ([]byte, error) {
	return archive.Encode(ref, opts...)
}

// DecodeReference verifies and parses an archive.
func DecodeReference(data []byte) (*reference.Reference, error) {
	return archive.Decode(data)
}
