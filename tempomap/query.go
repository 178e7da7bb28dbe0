package tempomap

import (
	"github.com/robmorgan/pulse/timeline"
)

/* Read-side API. Each query takes the read lock once, resolves the position
 * to a superclock, finds the enclosing point with iterator_at and walks from
 * it. None of these paths allocate beyond small stack scratch and none call
 * back into mutators.
 */

// locked conversion cores, shared by queries and mutators

func (m *Map) superclockAtQuartersLocked(q timeline.Beats) (timeline.Superclock, error) {
	i, err := m.iteratorAtQuarters(q)
	if err != nil {
		return 0, err
	}
	p := m.points[i]
	return p.sclock + p.metric.SuperclockAtQuarters(q.Sub(p.quarters)), nil
}

func (m *Map) superclockAtBBTLocked(bbt timeline.BBT) (timeline.Superclock, error) {
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return 0, err
	}
	p := m.points[i]
	dq := p.metric.ToQuarters(p.metric.BBTDelta(bbt, p.bbt))
	return p.sclock + p.metric.SuperclockAtQuarters(dq), nil
}

func (m *Map) quartersAtSuperclockLocked(sc timeline.Superclock) (timeline.Beats, error) {
	i, err := m.iteratorAt(sc)
	if err != nil {
		return timeline.Beats{}, err
	}
	p := m.points[i]
	return p.quarters.Add(p.metric.QuartersAtSuperclock(sc - p.sclock)), nil
}

func (m *Map) bbtAtSuperclockLocked(sc timeline.Superclock) (timeline.BBT, error) {
	i, err := m.iteratorAt(sc)
	if err != nil {
		return timeline.BBT{}, err
	}
	p := m.points[i]
	dq := p.metric.QuartersAtSuperclock(sc - p.sclock)
	return p.metric.BBTAdd(p.bbt, p.metric.OffsetFromQuarters(dq)), nil
}

func (m *Map) bbtAtQuartersLocked(q timeline.Beats) (timeline.BBT, error) {
	i, err := m.iteratorAtQuarters(q)
	if err != nil {
		return timeline.BBT{}, err
	}
	p := m.points[i]
	return p.metric.BBTAdd(p.bbt, p.metric.OffsetFromQuarters(q.Sub(p.quarters))), nil
}

// TempoAtSample returns the tempo in effect at a sample position.
func (m *Map) TempoAtSample(samples int64) (Tempo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAt(m.samplesToSuperclock(samples))
	if err != nil {
		return Tempo{}, err
	}
	return m.points[i].Metric().Tempo, nil
}

// TempoAtBeats returns the tempo in effect at a quarter-note position.
func (m *Map) TempoAtBeats(q timeline.Beats) (Tempo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtQuarters(q)
	if err != nil {
		return Tempo{}, err
	}
	return m.points[i].Metric().Tempo, nil
}

// TempoAtBBT returns the tempo in effect at a structured position.
func (m *Map) TempoAtBBT(bbt timeline.BBT) (Tempo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return Tempo{}, err
	}
	return m.points[i].Metric().Tempo, nil
}

// MeterAtSample returns the meter in effect at a sample position.
func (m *Map) MeterAtSample(samples int64) (Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAt(m.samplesToSuperclock(samples))
	if err != nil {
		return Meter{}, err
	}
	return m.points[i].Metric().Meter, nil
}

// MeterAtBeats returns the meter in effect at a quarter-note position.
func (m *Map) MeterAtBeats(q timeline.Beats) (Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtQuarters(q)
	if err != nil {
		return Meter{}, err
	}
	return m.points[i].Metric().Meter, nil
}

// MeterAtBBT returns the meter in effect at a structured position.
func (m *Map) MeterAtBBT(bbt timeline.BBT) (Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return Meter{}, err
	}
	return m.points[i].Metric().Meter, nil
}

// QuarterNoteAtSample converts a sample position to quarter notes.
func (m *Map) QuarterNoteAtSample(samples int64) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quartersAtSuperclockLocked(m.samplesToSuperclock(samples))
}

// QuarterNoteAtBBT converts a structured position to quarter notes.
func (m *Map) QuarterNoteAtBBT(bbt timeline.BBT) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return timeline.Beats{}, err
	}
	p := m.points[i]
	return p.quarters.Add(p.metric.ToQuarters(p.metric.BBTDelta(bbt, p.bbt))), nil
}

// SampleAtBeats converts a quarter-note position to samples.
func (m *Map) SampleAtBeats(q timeline.Beats) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, err := m.superclockAtQuartersLocked(q)
	if err != nil {
		return 0, err
	}
	return m.superclockToSamples(sc), nil
}

// SampleAtBBT converts a structured position to samples.
func (m *Map) SampleAtBBT(bbt timeline.BBT) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, err := m.superclockAtBBTLocked(bbt)
	if err != nil {
		return 0, err
	}
	return m.superclockToSamples(sc), nil
}

// BBTAtSample converts a sample position to bar|beat|tick.
func (m *Map) BBTAtSample(samples int64) (timeline.BBT, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bbtAtSuperclockLocked(m.samplesToSuperclock(samples))
}

// BBTAtBeats converts a quarter-note position to bar|beat|tick.
func (m *Map) BBTAtBeats(q timeline.Beats) (timeline.BBT, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bbtAtQuartersLocked(q)
}

// RoundToBar snaps a structured position to the nearest bar under the meter
// in effect there.
func (m *Map) RoundToBar(bbt timeline.BBT) (timeline.BBT, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return timeline.BBT{}, err
	}
	return m.points[i].Metric().RoundToBar(bbt), nil
}

// NextTempo returns the tempo of the first explicit tempo point after the
// one holding the given tempo, or nil.
func (m *Map) NextTempo(t Tempo) *Tempo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := false
	for _, p := range m.points {
		if !p.IsExplicitTempo() {
			continue
		}
		if seen {
			out := p.metric.Tempo
			return &out
		}
		if p.metric.Tempo.Equal(t) {
			seen = true
		}
	}
	return nil
}

// NextMeter returns the meter of the first explicit meter point after the
// one holding the given meter, or nil.
func (m *Map) NextMeter(mt Meter) *Meter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := false
	for _, p := range m.points {
		if !p.IsExplicitMeter() {
			continue
		}
		if seen {
			out := p.metric.Meter
			return &out
		}
		if p.metric.Meter.Equal(mt) {
			seen = true
		}
	}
	return nil
}

// PreviousTempo returns the explicit tempo point preceding p, or nil.
func (m *Map) PreviousTempo(p *Point) *Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var prev *Point
	for _, q := range m.points {
		if q == p {
			return prev
		}
		if q.IsExplicitTempo() {
			prev = q
		}
	}
	return nil
}

/* Walkers: measure distances along the map across segment boundaries. */

// SampleDeltaAsQuarters converts a sample distance starting at a position
// into quarter notes.
func (m *Map) SampleDeltaAsQuarters(start, distance int64) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, err := m.quartersAtSuperclockLocked(m.samplesToSuperclock(start))
	if err != nil {
		return timeline.Beats{}, err
	}
	b, err := m.quartersAtSuperclockLocked(m.samplesToSuperclock(start + distance))
	if err != nil {
		return timeline.Beats{}, err
	}
	return b.Sub(a), nil
}

// SampleWalkToQuarters returns the quarter-note position reached by walking
// a sample distance from a sample position.
func (m *Map) SampleWalkToQuarters(pos int64, distance int64) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quartersAtSuperclockLocked(m.samplesToSuperclock(pos + distance))
}

// SampleWalkToQuartersFromBeats walks a sample distance from a quarter-note
// position.
func (m *Map) SampleWalkToQuartersFromBeats(pos timeline.Beats, distance int64) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, err := m.superclockAtQuartersLocked(pos)
	if err != nil {
		return timeline.Beats{}, err
	}
	return m.quartersAtSuperclockLocked(sc + m.samplesToSuperclock(distance))
}

// SamplePlusQuartersAsSamples advances a sample position by a beat distance.
func (m *Map) SamplePlusQuartersAsSamples(start int64, distance timeline.Beats) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, err := m.quartersAtSuperclockLocked(m.samplesToSuperclock(start))
	if err != nil {
		return 0, err
	}
	sc, err := m.superclockAtQuartersLocked(q.Add(distance))
	if err != nil {
		return 0, err
	}
	return m.superclockToSamples(sc), nil
}

// SampleQuartersDeltaAsSamples measures a beat distance from a sample
// position in samples.
func (m *Map) SampleQuartersDeltaAsSamples(start int64, distance timeline.Beats) (int64, error) {
	end, err := m.SamplePlusQuartersAsSamples(start, distance)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// SamplePosPlusBBT advances a sample position by a BBT offset.
func (m *Map) SamplePosPlusBBT(pos int64, op timeline.BBTOffset) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bbt, err := m.bbtAtSuperclockLocked(m.samplesToSuperclock(pos))
	if err != nil {
		return 0, err
	}
	dest, err := m.bbtWalkLocked(bbt, op)
	if err != nil {
		return 0, err
	}
	sc, err := m.superclockAtBBTLocked(dest)
	if err != nil {
		return 0, err
	}
	return m.superclockToSamples(sc), nil
}

// BBTWalk advances a structured position by an offset, honoring every meter
// change crossed along the way.
func (m *Map) BBTWalk(bbt timeline.BBT, o timeline.BBTOffset) (timeline.BBT, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bbtWalkLocked(bbt, o)
}

// bbtWalkLocked steps bars, then beats, then ticks, one at a time, looking
// the meter up at each step so a walk across a meter change stays honest.
func (m *Map) bbtWalkLocked(bbt timeline.BBT, o timeline.BBTOffset) (timeline.BBT, error) {
	if len(m.points) == 0 {
		return timeline.BBT{}, ErrEmptyMap
	}
	cur := bbt
	step := func(unit timeline.BBTOffset, n int32) error {
		for j := int32(0); j < n; j++ {
			i, err := m.iteratorAtBBT(cur)
			if err != nil {
				return err
			}
			cur = m.points[i].Metric().BBTAdd(cur, unit)
		}
		return nil
	}
	sub := func(unit timeline.BBTOffset, n int32) error {
		for j := int32(0); j < n; j++ {
			i, err := m.iteratorAtBBT(cur)
			if err != nil {
				return err
			}
			cur = m.points[i].Metric().BBTSubtract(cur, unit)
		}
		return nil
	}
	walk := func(unit timeline.BBTOffset, n int32) error {
		if n >= 0 {
			return step(unit, n)
		}
		return sub(unit, -n)
	}
	if err := walk(timeline.BBTOffset{Bars: 1}, o.Bars); err != nil {
		return timeline.BBT{}, err
	}
	if err := walk(timeline.BBTOffset{Beats: 1}, o.Beats); err != nil {
		return timeline.BBT{}, err
	}
	if err := walk(timeline.BBTOffset{Ticks: 1}, o.Ticks); err != nil {
		return timeline.BBT{}, err
	}
	return cur, nil
}

// BBTWalkToQuarters returns the beat position reached by walking a BBT
// offset from a beat position.
func (m *Map) BBTWalkToQuarters(start timeline.Beats, distance timeline.BBTOffset) (timeline.Beats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bbt, err := m.bbtAtQuartersLocked(start)
	if err != nil {
		return timeline.Beats{}, err
	}
	dest, err := m.bbtWalkLocked(bbt, distance)
	if err != nil {
		return timeline.Beats{}, err
	}
	i, err := m.iteratorAtBBT(dest)
	if err != nil {
		return timeline.Beats{}, err
	}
	p := m.points[i]
	return p.quarters.Add(p.metric.ToQuarters(p.metric.BBTDelta(dest, p.bbt))), nil
}

// BBTDurationAt measures the sample duration of a BBT offset applied at a
// sample position; dir < 0 walks backward.
func (m *Map) BBTDurationAt(pos int64, o timeline.BBTOffset, dir int) (int64, error) {
	if dir < 0 {
		o = timeline.BBTOffset{Bars: -o.Bars, Beats: -o.Beats, Ticks: -o.Ticks}
	}
	end, err := m.SamplePosPlusBBT(pos, o)
	if err != nil {
		return 0, err
	}
	d := end - pos
	if d < 0 {
		d = -d
	}
	return d, nil
}

// SamplesPerQuarterNoteAt is the instantaneous quarter-note duration in
// samples at a sample position.
func (m *Map) SamplesPerQuarterNoteAt(samples int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc := m.samplesToSuperclock(samples)
	i, err := m.iteratorAt(sc)
	if err != nil {
		return 0, err
	}
	p := m.points[i]
	spnt := p.metric.SuperclockPerNoteTypeAtSuperclock(sc - p.sclock)
	sppq := spnt * timeline.Superclock(p.metric.NoteType()) / 4
	return m.superclockToSamples(sppq), nil
}

/* Generation-guarded batch conversions for the audio thread. Each returns
 * the current generation; when the caller's generation matches and force is
 * false the call does no work, because the host has the results cached.
 */

// UpdateMusicTimes fills b and bbt for a sample position.
func (m *Map) UpdateMusicTimes(gen int, samples int64, b *timeline.Beats, bbt *timeline.BBT, force bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !force && gen == m.generation {
		return m.generation, nil
	}
	sc := m.samplesToSuperclock(samples)
	q, err := m.quartersAtSuperclockLocked(sc)
	if err != nil {
		return m.generation, err
	}
	t, err := m.bbtAtSuperclockLocked(sc)
	if err != nil {
		return m.generation, err
	}
	*b = q
	*bbt = t
	return m.generation, nil
}

// UpdateSamplesAndBeatTimes fills pos and b for a structured position.
func (m *Map) UpdateSamplesAndBeatTimes(gen int, bbt timeline.BBT, pos *int64, b *timeline.Beats, force bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !force && gen == m.generation {
		return m.generation, nil
	}
	i, err := m.iteratorAtBBT(bbt)
	if err != nil {
		return m.generation, err
	}
	p := m.points[i]
	dq := p.metric.ToQuarters(p.metric.BBTDelta(bbt, p.bbt))
	q := p.quarters.Add(dq)
	*b = q
	*pos = m.superclockToSamples(p.sclock + p.metric.SuperclockAtQuarters(dq))
	return m.generation, nil
}

// UpdateSamplesAndBBTTimes fills pos and bbt for a beat position.
func (m *Map) UpdateSamplesAndBBTTimes(gen int, b timeline.Beats, pos *int64, bbt *timeline.BBT, force bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !force && gen == m.generation {
		return m.generation, nil
	}
	sc, err := m.superclockAtQuartersLocked(b)
	if err != nil {
		return m.generation, err
	}
	t, err := m.bbtAtQuartersLocked(b)
	if err != nil {
		return m.generation, err
	}
	*pos = m.superclockToSamples(sc)
	*bbt = t
	return m.generation, nil
}
