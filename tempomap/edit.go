package tempomap

import (
	"github.com/robmorgan/pulse/timeline"
)

/* Map mutators. Every one of these takes the write lock for the full
 * duration of edit plus rebuild, bumps the generation (inside rebuild)
 * before the lock is released, and emits Changed afterwards.
 */

// SetTempoAtSample installs a tempo at a sample position. Returns nil and an
// error when the placement is rejected: a coincident clamped point, or a
// position before the anchor.
func (m *Map) SetTempoAtSample(t Tempo, samples int64) (*Point, error) {
	m.mu.Lock()
	sc := m.samplesToSuperclock(samples)
	p, err := m.setTempoLocked(t, sc)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.emitChanged(samples, maxSample)
	return p, nil
}

// SetTempoAtBeats installs a tempo at a quarter-note position.
func (m *Map) SetTempoAtBeats(t Tempo, q timeline.Beats) (*Point, error) {
	m.mu.Lock()
	sc, err := m.superclockAtQuartersLocked(q)
	if err == nil {
		var p *Point
		p, err = m.setTempoLocked(t, sc)
		if err == nil {
			samples := m.superclockToSamples(sc)
			m.mu.Unlock()
			m.emitChanged(samples, maxSample)
			return p, nil
		}
	}
	m.mu.Unlock()
	return nil, err
}

// SetTempoAtBBT installs a tempo at a bar|beat|tick position.
func (m *Map) SetTempoAtBBT(t Tempo, bbt timeline.BBT) (*Point, error) {
	m.mu.Lock()
	sc, err := m.superclockAtBBTLocked(bbt)
	if err == nil {
		var p *Point
		p, err = m.setTempoLocked(t, sc)
		if err == nil {
			samples := m.superclockToSamples(sc)
			m.mu.Unlock()
			m.emitChanged(samples, maxSample)
			return p, nil
		}
	}
	m.mu.Unlock()
	return nil, err
}

func (m *Map) setTempoLocked(t Tempo, sc timeline.Superclock) (*Point, error) {
	if sc < 0 {
		return nil, ErrBeforeAnchor
	}
	i, err := m.iteratorAt(sc)
	if err != nil {
		return nil, err
	}
	p := m.points[i]
	if p.sclock == sc {
		if p.IsExplicitTempo() && p.metric.Clamped() {
			return nil, ErrClampedPlacement
		}
		p.MakeExplicit(ExplicitTempo)
		p.metric.Tempo = t
		m.rebuild(-1)
		return p, nil
	}
	np := newExplicitPoint(m, ExplicitTempo, t, p.Metric().Meter, sc,
		timeline.Beats{}, timeline.BBT{})
	m.insertAfter(i, np)
	m.rebuild(-1)
	return np, nil
}

// SetMeterAtSample installs a meter at a sample position.
func (m *Map) SetMeterAtSample(mt Meter, samples int64) (*Point, error) {
	m.mu.Lock()
	sc := m.samplesToSuperclock(samples)
	p, err := m.setMeterLocked(mt, sc)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.emitChanged(samples, maxSample)
	return p, nil
}

// SetMeterAtBeats installs a meter at a quarter-note position.
func (m *Map) SetMeterAtBeats(mt Meter, q timeline.Beats) (*Point, error) {
	m.mu.Lock()
	sc, err := m.superclockAtQuartersLocked(q)
	if err == nil {
		var p *Point
		p, err = m.setMeterLocked(mt, sc)
		if err == nil {
			samples := m.superclockToSamples(sc)
			m.mu.Unlock()
			m.emitChanged(samples, maxSample)
			return p, nil
		}
	}
	m.mu.Unlock()
	return nil, err
}

// SetMeterAtBBT installs a meter at a bar|beat|tick position.
func (m *Map) SetMeterAtBBT(mt Meter, bbt timeline.BBT) (*Point, error) {
	m.mu.Lock()
	sc, err := m.superclockAtBBTLocked(bbt)
	if err == nil {
		var p *Point
		p, err = m.setMeterLocked(mt, sc)
		if err == nil {
			samples := m.superclockToSamples(sc)
			m.mu.Unlock()
			m.emitChanged(samples, maxSample)
			return p, nil
		}
	}
	m.mu.Unlock()
	return nil, err
}

func (m *Map) setMeterLocked(mt Meter, sc timeline.Superclock) (*Point, error) {
	if sc < 0 {
		return nil, ErrBeforeAnchor
	}
	i, err := m.iteratorAt(sc)
	if err != nil {
		return nil, err
	}
	p := m.points[i]
	if p.sclock == sc {
		if p.IsExplicitTempo() && p.metric.Clamped() {
			return nil, ErrClampedPlacement
		}
		p.MakeExplicit(ExplicitMeter)
		p.metric.Meter = mt
		m.rebuild(-1)
		return p, nil
	}
	np := newExplicitPoint(m, ExplicitMeter, p.Metric().Tempo, mt, sc,
		timeline.Beats{}, timeline.BBT{})
	m.insertAfter(i, np)
	m.rebuild(-1)
	return np, nil
}

// insertAfter splices np in after index i, keeping superclock order.
func (m *Map) insertAfter(i int, np *Point) {
	m.points = append(m.points, nil)
	copy(m.points[i+2:], m.points[i+1:])
	m.points[i+1] = np
}

// SetTempoAndMeter installs both at one sample position.
func (m *Map) SetTempoAndMeter(t Tempo, mt Meter, samples int64) (*Point, error) {
	p, err := m.SetTempoAtSample(t, samples)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	p.MakeExplicit(ExplicitMeter)
	p.metric.Meter = mt
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(samples, maxSample)
	return p, nil
}

// ChangeTempo replaces a point's tempo in place and rebuilds from it
// forward. Rejects implicit points and points without an explicit tempo.
func (m *Map) ChangeTempo(p *Point, t Tempo) error {
	m.mu.Lock()
	if m.indexOf(p) < 0 || !p.IsExplicitTempo() {
		m.mu.Unlock()
		return ErrBadTempoMetricLookup
	}
	p.metric.Tempo = t
	start := p.Sample()
	m.rebuild(p.sclock)
	m.mu.Unlock()
	m.emitChanged(start, maxSample)
	return nil
}

// RemoveTempoAt clears the explicit-tempo flag of a point, erasing the point
// entirely once no explicit flags remain. Returns false for the anchor and
// for points that carry no explicit tempo.
func (m *Map) RemoveTempoAt(p *Point) bool {
	m.mu.Lock()
	if i := m.indexOf(p); i <= 0 || !p.IsExplicitTempo() {
		m.mu.Unlock()
		return false
	}
	start := p.Sample()
	p.flags &^= ExplicitTempo
	if !p.IsExplicit() {
		m.erase(p)
	}
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(start, maxSample)
	return true
}

// RemoveMeterAt is the meter counterpart of RemoveTempoAt.
func (m *Map) RemoveMeterAt(p *Point) bool {
	m.mu.Lock()
	if i := m.indexOf(p); i <= 0 || !p.IsExplicitMeter() {
		m.mu.Unlock()
		return false
	}
	start := p.Sample()
	p.flags &^= ExplicitMeter
	if !p.IsExplicit() {
		m.erase(p)
	}
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(start, maxSample)
	return true
}

// RemoveExplicitPoint erases the explicit point at exactly the given sample
// position. The anchor is immovable.
func (m *Map) RemoveExplicitPoint(samples int64) bool {
	m.mu.Lock()
	sc := m.samplesToSuperclock(samples)
	i, err := m.iteratorAt(sc)
	if err != nil || i == 0 || m.points[i].sclock != sc {
		m.mu.Unlock()
		return false
	}
	m.erase(m.points[i])
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(samples, maxSample)
	return true
}

func (m *Map) erase(p *Point) {
	for i, q := range m.points {
		if q == p {
			m.points = append(m.points[:i], m.points[i+1:]...)
			return
		}
	}
}

// MoveTo relocates the explicit point at currentSamples to destSamples. With
// push, later points shift by the same delta; without it, a move that would
// reorder points is rejected. The anchor never moves.
func (m *Map) MoveTo(currentSamples, destSamples int64, push bool) bool {
	m.mu.Lock()
	cur := m.samplesToSuperclock(currentSamples)
	dest := m.samplesToSuperclock(destSamples)
	i, err := m.iteratorAt(cur)
	if err != nil || i == 0 || m.points[i].sclock != cur || dest <= 0 {
		m.mu.Unlock()
		return false
	}
	p := m.points[i]
	// the point behind the moved one never shifts, so a destination at or
	// before it would reorder the map regardless of push
	if m.points[i-1].sclock >= dest {
		m.mu.Unlock()
		return false
	}
	delta := dest - cur
	if push {
		// the moved point and every later point shift by the same
		// delta, forward or backward
		for _, later := range m.points[i:] {
			later.sclock += delta
		}
	} else {
		if i+1 < len(m.points) && m.points[i+1].sclock <= dest {
			m.mu.Unlock()
			return false
		}
		p.sclock = dest
	}
	m.rebuild(-1)
	m.mu.Unlock()
	start := currentSamples
	if destSamples < start {
		start = destSamples
	}
	m.emitChanged(start, maxSample)
	return true
}

// IsInitialTempo reports whether the tempo equals the anchor's.
func (m *Map) IsInitialTempo(t Tempo) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points) > 0 && m.points[0].metric.Tempo.Equal(t)
}

// IsInitialMeter reports whether the meter equals the anchor's.
func (m *Map) IsInitialMeter(mt Meter) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points) > 0 && m.points[0].metric.Meter.Equal(mt)
}

// CanRemoveTempo is false only for the anchor's tempo.
func (m *Map) CanRemoveTempo(t Tempo) bool { return !m.IsInitialTempo(t) }

// CanRemoveMeter is false only for the anchor's meter.
func (m *Map) CanRemoveMeter(mt Meter) bool { return !m.IsInitialMeter(mt) }
