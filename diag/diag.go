// Package diag is the diagnostic side channel of the perturbation engine.
//
// The reference generator and the table builder never log directly. Recoverable
// anomalies (a rejected table clone) and fatal build aborts are reported to an
// injected Sink together with a stable Code, leaving the choice of logging
// backend to the caller.
package diag

import (
	"fmt"
	"sync"
)

// Code identifies a class of diagnostic event.
type Code string

const (
	// CodeCloneRejected reports a table fast-forward that was skipped because the
	// per-level counters were not in the expected state.
	CodeCloneRejected Code = "mpa.clone_rejected"
	// CodeTableAborted reports a table build aborted on an unresolvable storage index.
	CodeTableAborted Code = "mpa.table_aborted"
	// CodeIntervalDropped reports an orbit interval that could not be mapped into
	// the pulled table index space.
	CodeIntervalDropped Code = "mpa.interval_dropped"
)

// Sink receives diagnostic events. keysAndValues alternate between string keys
// and arbitrary values, in the style of structured loggers.
//
// Implementations are called from the single build goroutine and do not need to
// be safe for concurrent use unless they are shared between engines.
type Sink interface {
	Warn(code Code, keysAndValues ...any)
}

type nopSink struct{}

func (nopSink) Warn(Code, ...any) {}

// Nop returns a Sink that discards every event.
func Nop() Sink {
	return nopSink{}
}

// Entry is a single recorded diagnostic event.
type Entry struct {
	Code   Code
	Fields []any
}

// String formats the entry as "code k=v k=v".
func (e Entry) String() string {
	s := string(e.Code)
	for i := 0; i+1 < len(e.Fields); i += 2 {
		s += fmt.Sprintf(" %v=%v", e.Fields[i], e.Fields[i+1])
	}

	return s
}

// Recorder is a Sink that keeps every event in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Sink = (*Recorder)(nil)

// Warn records the event.
func (r *Recorder) Warn(code Code, keysAndValues ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fields := make([]any, len(keysAndValues))
	copy(fields, keysAndValues)
	r.entries = append(r.entries, Entry{Code: code, Fields: fields})
}

// Entries returns a copy of the recorded events.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Count returns how many events with the given code were recorded.
func (r *Recorder) Count(code Code) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Code == code {
			n++
		}
	}

	return n
}
