// Package approx builds the multi-level series-approximation (MPA) table that
// lets per-pixel evaluation skip whole runs of reference iterations.
//
// Each table slot holds one PA entry per hierarchy level that starts at the
// slot's iteration. An entry maps a pixel delta dz at its start iteration to
// A·dz + B·dc after Skip iterations, and is usable while |dz| < Radius.
//
// Entries come in two precision tiers: LightPA (float64) and DeepPA
// (extended-range floats). The build algorithm is written once over a
// Strategy; the tier is chosen by calling BuildLight or BuildDeep.
//
// Three storage layouts are supported:
//
//   - NoCompression stores entries at their true start iteration.
//   - LittleCompression stores them at their pulled index, a dense
//     numbering of the iterations where a finest-level block starts.
//   - Strongest additionally folds pulled indices through an interval.Set
//     derived from the reference's own compression, so repeated period blocks
//     share the entries of the first one.
package approx
