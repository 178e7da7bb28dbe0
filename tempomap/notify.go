package tempomap

import (
	"math"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
)

// maxSample marks "to the end of the timeline" in Changed ranges: a
// mutation changes every derived value from its position onward.
const maxSample = int64(math.MaxInt64)

// ChangeFunc receives the sample range whose derived values changed.
type ChangeFunc func(startSample, endSample int64)

type subscribers struct {
	mu  sync.Mutex
	fns map[uuid.UUID]ChangeFunc
}

// Subscribe registers a Changed listener and returns its token. Listeners
// run synchronously after the mutator releases the write lock; they see the
// post-mutation generation.
func (m *Map) Subscribe(fn ChangeFunc) uuid.UUID {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	if m.subs.fns == nil {
		m.subs.fns = make(map[uuid.UUID]ChangeFunc)
	}
	id := uuid.New()
	m.subs.fns[id] = fn
	return id
}

// Unsubscribe removes a Changed listener.
func (m *Map) Unsubscribe(id uuid.UUID) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	delete(m.subs.fns, id)
}

func (m *Map) emitChanged(startSample, endSample int64) {
	m.subs.mu.Lock()
	fns := make([]ChangeFunc, 0, len(m.subs.fns))
	for _, fn := range m.subs.fns {
		fns = append(fns, fn)
	}
	m.subs.mu.Unlock()
	for _, fn := range fns {
		fn(startSample, endSample)
	}
}

// Debounced wraps a ChangeFunc so that a burst of mutations collapses into
// one callback covering the union of the ranges. GUI listeners subscribe
// through this to avoid redrawing per edit.
func Debounced(after time.Duration, fn ChangeFunc) ChangeFunc {
	d := debounce.New(after)
	var mu sync.Mutex
	start := maxSample
	end := int64(0)
	return func(s, e int64) {
		mu.Lock()
		if s < start {
			start = s
		}
		if e > end {
			end = e
		}
		mu.Unlock()
		d(func() {
			mu.Lock()
			s, e := start, end
			start, end = maxSample, 0
			mu.Unlock()
			fn(s, e)
		})
	}
}
