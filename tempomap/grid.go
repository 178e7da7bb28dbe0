package tempomap

import (
	"golang.org/x/exp/slices"

	"github.com/robmorgan/pulse/timeline"
)

/* Grid generation for rulers and sequencers. */

// GetGrid emits points every resolution beats within [startSamples,
// endSamples]. With a zero resolution the returned points are implicit
// views borrowing from the map and are valid only until the next mutation;
// otherwise every returned point is standalone and owns a metric copy.
func (m *Map) GetGrid(startSamples, endSamples int64, resolution timeline.Beats) ([]*Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.points) == 0 {
		return nil, ErrEmptyMap
	}

	startSC := m.samplesToSuperclock(startSamples)
	endSC := m.samplesToSuperclock(endSamples)

	if resolution.IsZero() {
		// implicit views over the map's own points in range
		var out []*Point
		for i, p := range m.points {
			if p.sclock < startSC || p.sclock > endSC {
				continue
			}
			ref := i
			if p.IsExplicit() {
				// borrow from itself: the view still resolves
				// its metric through the map
				out = append(out, newImplicitPoint(m, ref, p.sclock, p.quarters, p.bbt))
			} else {
				out = append(out, newImplicitPoint(m, p.ref, p.sclock, p.quarters, p.bbt))
			}
		}
		return out, nil
	}

	startQ, err := m.quartersAtSuperclockLocked(startSC)
	if err != nil {
		return nil, err
	}
	// snap up to the next multiple of resolution
	rt := resolution.TotalTicks()
	qt := startQ.TotalTicks()
	if rem := qt % rt; rem != 0 {
		qt += rt - rem
	}

	var out []*Point
	for q := timeline.BeatsFromTicks(qt); ; q = q.Add(resolution) {
		sc, err := m.superclockAtQuartersLocked(q)
		if err != nil {
			return nil, err
		}
		if sc > endSC {
			break
		}
		i, err := m.iteratorAt(sc)
		if err != nil {
			return nil, err
		}
		src := m.points[i]
		np := newExplicitPoint(nil, ExplicitPosition, src.Metric().Tempo, src.Metric().Meter,
			sc, q, timeline.BBT{})
		np.bbt = src.metric.BBTAdd(src.bbt, src.metric.OffsetFromQuarters(q.Sub(src.quarters)))
		np.metric.cPerQuarter = src.metric.cPerQuarter
		np.metric.cPerSuperclock = src.metric.cPerSuperclock
		np.dirty = false
		out = append(out, np)
	}
	return out, nil
}

// GetBarGrid emits one standalone point per barGap bars within
// [startSamples, endSamples]. A meter change mid-range introduces an extra
// point at the change itself.
func (m *Map) GetBarGrid(startSamples, endSamples int64, barGap int32) ([]*Point, error) {
	if barGap < 1 {
		barGap = 1
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.points) == 0 {
		return nil, ErrEmptyMap
	}

	startSC := m.samplesToSuperclock(startSamples)
	endSC := m.samplesToSuperclock(endSamples)

	startBBT, err := m.bbtAtSuperclockLocked(startSC)
	if err != nil {
		return nil, err
	}
	// first bar line at or after start
	bar := startBBT.Bars
	if startBBT.Beats != 1 || startBBT.Ticks != 0 {
		bar++
	}

	var out []*Point
	emit := func(bbt timeline.BBT) error {
		sc, err := m.superclockAtBBTLocked(bbt)
		if err != nil {
			return err
		}
		if sc < startSC || sc > endSC {
			return nil
		}
		i, err := m.iteratorAt(sc)
		if err != nil {
			return err
		}
		src := m.points[i]
		dq := src.metric.QuartersAtSuperclock(sc - src.sclock)
		np := newExplicitPoint(nil, ExplicitPosition, src.Metric().Tempo, src.Metric().Meter,
			sc, src.quarters.Add(dq), bbt)
		np.metric.cPerQuarter = src.metric.cPerQuarter
		np.metric.cPerSuperclock = src.metric.cPerSuperclock
		np.dirty = false
		out = append(out, np)
		return nil
	}

	for b := bar; ; b += barGap {
		bbt := timeline.NewBBT(b, 1, 0)
		sc, err := m.superclockAtBBTLocked(bbt)
		if err != nil {
			return nil, err
		}
		if sc > endSC {
			break
		}
		if err := emit(bbt); err != nil {
			return nil, err
		}
	}

	// meter changes inside the range get their own grid line
	for _, p := range m.points {
		if !p.IsExplicitMeter() || p.sclock < startSC || p.sclock > endSC {
			continue
		}
		dup := false
		for _, g := range out {
			if g.sclock == p.sclock {
				dup = true
				break
			}
		}
		if !dup {
			if err := emit(p.bbt); err != nil {
				return nil, err
			}
		}
	}

	slices.SortFunc(out, func(a, b *Point) bool { return a.sclock < b.sclock })
	return out, nil
}

// GetPoints returns copies of all explicit points.
func (m *Map) GetPoints() []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Point, 0, len(m.points))
	for _, p := range m.points {
		if p.IsExplicit() {
			out = append(out, *p)
		}
	}
	return out
}

// GetTempos returns copies of all explicit tempo points.
func (m *Map) GetTempos() []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Point
	for _, p := range m.points {
		if p.IsExplicitTempo() {
			out = append(out, *p)
		}
	}
	return out
}

// GetMeters returns copies of all explicit meter points.
func (m *Map) GetMeters() []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Point
	for _, p := range m.points {
		if p.IsExplicitMeter() {
			out = append(out, *p)
		}
	}
	return out
}
