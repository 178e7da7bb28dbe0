package tempomap

import (
	"fmt"

	"github.com/robmorgan/pulse/timeline"
)

// PointFlag marks which aspects of a point were placed by a user. A point
// with no flags is implicit: a derived entry that borrows its metric from
// the nearest preceding explicit point.
type PointFlag uint32

const (
	ExplicitTempo    PointFlag = 0x1
	ExplicitMeter    PointFlag = 0x2
	ExplicitPosition PointFlag = 0x4
)

func (f PointFlag) String() string {
	if f == 0 {
		return "implicit"
	}
	s := ""
	if f&ExplicitTempo != 0 {
		s += "T"
	}
	if f&ExplicitMeter != 0 {
		s += "M"
	}
	if f&ExplicitPosition != 0 {
		s += "P"
	}
	return s
}

// Point is one entry in a tempo map. Explicit points own a TempoMetric;
// implicit points hold the arena index of the explicit point they borrow
// from. All three coordinate representations are stored and kept coherent
// by the map's rebuild.
type Point struct {
	flags    PointFlag
	metric   TempoMetric // owned; meaningful only when explicit
	ref      int         // arena index of the reference point when implicit
	sclock   timeline.Superclock
	quarters timeline.Beats
	bbt      timeline.BBT
	dirty    bool
	floating bool
	m        *Map
}

func newExplicitPoint(m *Map, f PointFlag, t Tempo, meter Meter, sc timeline.Superclock, q timeline.Beats, bbt timeline.BBT) *Point {
	return &Point{
		flags:  f,
		metric: NewTempoMetric(t, meter),
		ref:    -1,
		sclock: sc, quarters: q, bbt: bbt,
		dirty: true,
		m:     m,
	}
}

func newImplicitPoint(m *Map, ref int, sc timeline.Superclock, q timeline.Beats, bbt timeline.BBT) *Point {
	return &Point{
		flags: 0,
		ref:   ref,
		sclock: sc, quarters: q, bbt: bbt,
		dirty: true,
		m:     m,
	}
}

func (p *Point) Map() *Map        { return p.m }
func (p *Point) Flags() PointFlag { return p.flags }

func (p *Point) IsExplicitTempo() bool    { return p.flags&ExplicitTempo != 0 }
func (p *Point) IsExplicitMeter() bool    { return p.flags&ExplicitMeter != 0 }
func (p *Point) IsExplicitPosition() bool { return p.flags&ExplicitPosition != 0 }
func (p *Point) IsExplicit() bool {
	return p.flags&(ExplicitTempo|ExplicitMeter|ExplicitPosition) != 0
}
func (p *Point) IsImplicit() bool { return p.flags == 0 }

// MakeExplicit copies the currently referenced metric into the owned slot
// and raises the flag. Idempotent for flags already raised.
func (p *Point) MakeExplicit(f PointFlag) {
	if p.flags&f == f {
		return
	}
	if p.IsImplicit() {
		p.metric = p.referenceMetric()
		p.ref = -1
	}
	p.flags |= f
	p.dirty = true
}

// makeImplicit drops all flags and points the entry back at an explicit
// point. Only the rebuild may do this: it is the one place that can prove no
// other point still references this one.
func (p *Point) makeImplicit(ref int) {
	p.flags = 0
	p.ref = ref
	p.dirty = true
}

func (p *Point) referenceMetric() TempoMetric {
	return p.m.points[p.ref].metric
}

// Metric returns the metric in effect at this point, owned or borrowed.
func (p *Point) Metric() TempoMetric {
	if p.IsExplicit() {
		return p.metric
	}
	return p.referenceMetric()
}

// Tempo and Meter are views of Metric.
func (p *Point) Tempo() Tempo { return p.Metric().Tempo }
func (p *Point) Meter() Meter { return p.Metric().Meter }

func (p *Point) Ramped() bool { return p.Metric().Ramped() }

// SuperclocksPerNoteType delegates to the owned or referenced metric.
func (p *Point) SuperclocksPerNoteType(noteType int) timeline.Superclock {
	return p.Metric().SuperclocksPerNoteTypeFor(noteType)
}

func (p *Point) Dirty() bool                    { return p.dirty }
func (p *Point) Sclock() timeline.Superclock    { return p.sclock }
func (p *Point) Quarters() timeline.Beats       { return p.quarters }
func (p *Point) BBT() timeline.BBT              { return p.bbt }

// Sample is the point's audio-time position at the map's sample rate.
func (p *Point) Sample() int64 {
	return timeline.SuperclockToSamples(p.sclock, p.m.sampleRate)
}

// StartFloat and EndFloat bracket a GUI drag of this point.
func (p *Point) StartFloat()    { p.floating = true }
func (p *Point) EndFloat()      { p.floating = false }
func (p *Point) Floating() bool { return p.floating }

// Position setters are only honored on explicit points; an implicit point is
// a pure view and silently ignores them.

func (p *Point) SetSclock(sc timeline.Superclock) {
	if p.IsExplicit() {
		p.sclock = sc
		p.dirty = true
	}
}

func (p *Point) SetQuarters(q timeline.Beats) {
	if p.IsExplicit() {
		p.quarters = q
		p.dirty = true
	}
}

func (p *Point) SetBBT(bbt timeline.BBT) {
	if p.IsExplicit() {
		p.bbt = bbt
		p.dirty = true
	}
}

// ComputeCSuperclock forwards to the owned metric; implicit points have no
// coefficients of their own.
func (p *Point) ComputeCSuperclock(sampleRate int64, endScPerNoteType, duration timeline.Superclock) {
	if p.IsExplicit() {
		p.metric.ComputeCSuperclock(sampleRate, endScPerNoteType, duration)
	}
}

func (p *Point) ComputeCQuarters(sampleRate int64, endScPerNoteType timeline.Superclock, duration timeline.Beats) {
	if p.IsExplicit() {
		p.metric.ComputeCQuarters(sampleRate, endScPerNoteType, duration)
	}
}

// WalkToQuarters converts a superclock distance from this point into beats.
func (p *Point) WalkToQuarters(distance timeline.Superclock) timeline.Beats {
	return p.Metric().QuartersAtSuperclock(distance)
}

// WalkToSuperclock converts a beat distance from this point into
// superclocks.
func (p *Point) WalkToSuperclock(distance timeline.Beats) timeline.Superclock {
	return p.Metric().SuperclockAtQuarters(distance)
}

// QuartersAt answers the beat position of an absolute superclock time using
// this point as the walk origin.
func (p *Point) QuartersAt(sc timeline.Superclock) timeline.Beats {
	return p.quarters.Add(p.WalkToQuarters(sc - p.sclock))
}

// BBTAt answers the structured position of an absolute beat position using
// this point as the walk origin.
func (p *Point) BBTAt(q timeline.Beats) timeline.BBT {
	m := p.Metric()
	return m.BBTAdd(p.bbt, m.OffsetFromQuarters(q.Sub(p.quarters)))
}

func (p *Point) String() string {
	return fmt.Sprintf("[%s] sc=%d q=%s bbt=%s tempo=%.2f/%d meter=%d/%d",
		p.flags, p.sclock, p.quarters, p.bbt,
		p.Tempo().NoteTypesPerMinute(), p.Tempo().NoteType(),
		p.Meter().DivisionsPerBar(), p.Meter().NoteValue())
}
