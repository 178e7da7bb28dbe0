package tempomap

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/robmorgan/pulse/timeline"
)

// Map is the ordered collection of tempo map points, sorted by superclock.
// By construction the quarter-note and BBT orderings agree with the
// superclock ordering. A single reader/writer lock protects the point list;
// every public mutator holds the write lock across edit plus rebuild, every
// query holds the read lock for its duration.
type Map struct {
	mu         sync.RWMutex
	points     []*Point
	sampleRate int64
	dirty      bool
	generation int

	subs subscribers
}

// New creates a map anchored by an explicit tempo and meter at position
// zero. The anchor can never be removed or moved.
func New(initialTempo Tempo, initialMeter Meter, sampleRate int64) *Map {
	m := &Map{sampleRate: sampleRate}
	anchor := newExplicitPoint(m, ExplicitTempo|ExplicitMeter, initialTempo, initialMeter,
		0, timeline.NewBeats(0, 0), timeline.NewBBT(1, 1, 0))
	m.points = append(m.points, anchor)
	m.rebuild(-1)
	return m
}

func (m *Map) SampleRate() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sampleRate
}

// SetSampleRate installs a new sample rate. Superclock positions are
// sample-rate independent, so stored state needs no rewrite; only the
// sample-domain views of every point change.
func (m *Map) SetSampleRate(sr int64) {
	m.mu.Lock()
	m.sampleRate = sr
	m.generation++
	m.mu.Unlock()
	m.emitChanged(0, maxSample)
}

// Generation returns the monotone mutation counter. Hosts cache conversion
// results against it.
func (m *Map) Generation() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Map) samplesToSuperclock(samples int64) timeline.Superclock {
	if m.sampleRate == 0 {
		// zero-value map; queries fail with ErrEmptyMap downstream
		return 0
	}
	return timeline.SamplesToSuperclock(samples, m.sampleRate)
}

func (m *Map) superclockToSamples(sc timeline.Superclock) int64 {
	if m.sampleRate == 0 {
		return 0
	}
	return timeline.SuperclockToSamples(sc, m.sampleRate)
}

/* iterator_at: binary search for the point at or most immediately preceding
 * the given position. Never returns an out-of-range index:
 *
 *   - an empty map returns ErrEmptyMap
 *   - a time before the first point returns the first point, so the initial
 *     metric extends backward to -infinity
 *   - a time after the last point returns the last point
 *
 * The caller must hold a read or write lock.
 */

func (m *Map) iteratorAt(sc timeline.Superclock) (int, error) {
	if len(m.points) == 0 {
		return 0, ErrEmptyMap
	}
	i := sort.Search(len(m.points), func(i int) bool { return m.points[i].sclock > sc })
	if i == 0 {
		return 0, nil
	}
	return i - 1, nil
}

func (m *Map) iteratorAtQuarters(q timeline.Beats) (int, error) {
	if len(m.points) == 0 {
		return 0, ErrEmptyMap
	}
	i := sort.Search(len(m.points), func(i int) bool { return q.Less(m.points[i].quarters) })
	if i == 0 {
		return 0, nil
	}
	return i - 1, nil
}

func (m *Map) iteratorAtBBT(bbt timeline.BBT) (int, error) {
	if len(m.points) == 0 {
		return 0, ErrEmptyMap
	}
	i := sort.Search(len(m.points), func(i int) bool { return bbt.Less(m.points[i].bbt) })
	if i == 0 {
		return 0, nil
	}
	return i - 1, nil
}

/* rebuild: explicit points are authoritative in the superclock domain;
 * everything else is derived from them.
 *
 * Pass 1 computes ramp coefficients. A ramped tempo interpolates from its
 * start to its end superclocks-per-note-type across the span ending at the
 * next explicit-tempo point; a ramp with no terminator gets coefficient 0
 * and plays at its start tempo.
 *
 * Pass 2 walks consecutive explicit points, deriving each point's quarters
 * and BBT from its predecessor's metric and the superclock delta. A point
 * that does not carry its own tempo (or meter) re-captures the value in
 * effect at its position, with the tempo start interpolated mid-ramp, so
 * that a walk anchored at any explicit point is self-consistent.
 *
 * Implicit points are derived data; rebuild discards them, and grid
 * generation re-materializes them on demand.
 *
 * The caller must hold the write lock. limit < 0 means no limit.
 */
func (m *Map) rebuild(limit timeline.Superclock) {
	_ = limit // point derivation is cheap enough to always run to the end

	if len(m.points) == 0 {
		return
	}

	// drop implicits
	kept := m.points[:0]
	for _, p := range m.points {
		if p.IsExplicit() {
			kept = append(kept, p)
		}
	}
	m.points = kept

	// pass 1: ramp spans
	var lastTempo *Point
	for _, p := range m.points {
		if !p.IsExplicitTempo() {
			continue
		}
		if lastTempo != nil {
			lastTempo.metric.computeRamp(m.sampleRate, p.sclock-lastTempo.sclock)
		}
		lastTempo = p
	}
	if lastTempo != nil {
		lastTempo.metric.computeRamp(m.sampleRate, 0)
	}

	// pass 2: derived positions and inherited metrics
	anchor := m.points[0]
	anchor.sclock = 0
	anchor.quarters = timeline.NewBeats(0, 0)
	anchor.bbt = timeline.NewBBT(1, 1, 0)
	anchor.dirty = false

	for i := 1; i < len(m.points); i++ {
		p := m.points[i]
		prev := m.points[i-1]

		dsc := p.sclock - prev.sclock
		dq := prev.metric.QuartersAtSuperclock(dsc)
		p.quarters = prev.quarters.Add(dq)
		p.bbt = prev.metric.BBTAdd(prev.bbt, prev.metric.OffsetFromQuarters(dq))

		if !p.IsExplicitTempo() {
			inherited := prev.metric.Tempo
			if prev.metric.Ramped() {
				inherited.superclocksPerNoteType = prev.metric.SuperclockPerNoteTypeAtSuperclock(dsc)
				if inherited.superclocksPerNoteType == inherited.endSuperclocksPerNoteType {
					inherited.typ = Constant
				}
			}
			p.metric.Tempo = inherited
			p.metric.cPerQuarter = prev.metric.cPerQuarter
			p.metric.cPerSuperclock = prev.metric.cPerSuperclock
			if !inherited.Ramped() {
				p.metric.cPerQuarter = 0
				p.metric.cPerSuperclock = 0
			}
		}
		if !p.IsExplicitMeter() {
			p.metric.Meter = prev.metric.Meter
		}
		p.dirty = false
	}

	m.dirty = false
	m.generation++
}

// FullRebuild re-derives every point. Mutators rebuild on their own; this is
// for hosts that edited points directly through GUI float operations.
func (m *Map) FullRebuild() {
	m.mu.Lock()
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(0, maxSample)
}

func (m *Map) indexOf(p *Point) int {
	for i, q := range m.points {
		if q == p {
			return i
		}
	}
	return -1
}

// PointAtSample returns the live point at or most immediately preceding the
// sample position. The pointer stays valid across rebuilds until the point
// itself is erased.
func (m *Map) PointAtSample(samples int64) (*Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAt(m.samplesToSuperclock(samples))
	if err != nil {
		return nil, err
	}
	return m.points[i], nil
}

// NTempos counts explicit tempo points.
func (m *Map) NTempos() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.points {
		if p.IsExplicitTempo() {
			n++
		}
	}
	return n
}

// NMeters counts explicit meter points.
func (m *Map) NMeters() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.points {
		if p.IsExplicitMeter() {
			n++
		}
	}
	return n
}

// Dump writes a human-readable listing of the point list.
func (m *Map) Dump(w io.Writer) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fmt.Fprintf(w, "TempoMap @ %d Hz, generation %d, %d points\n",
		m.sampleRate, m.generation, len(m.points))
	for _, p := range m.points {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
