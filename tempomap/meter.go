package tempomap

import (
	"github.com/robmorgan/pulse/timeline"
)

// Meter is a time signature: how many divisions make a bar, and which note
// value one division represents (4 = quarter, 8 = eighth, ...).
type Meter struct {
	divisionsPerBar int
	noteValue       int
}

// NewMeter builds a meter from divisions-per-bar and note value.
func NewMeter(divisionsPerBar, noteValue int) Meter {
	return Meter{divisionsPerBar: divisionsPerBar, noteValue: noteValue}
}

func (m Meter) DivisionsPerBar() int { return m.divisionsPerBar }
func (m Meter) NoteValue() int       { return m.noteValue }

func (m Meter) Equal(o Meter) bool {
	return m.divisionsPerBar == o.divisionsPerBar && m.noteValue == o.noteValue
}

// ticksPerBar is the length of one bar in division ticks.
func (m Meter) ticksPerBar() int64 {
	return int64(m.divisionsPerBar) * int64(timeline.TicksPerBeat)
}

// linearTicks flattens a BBT position into zero-based division ticks under
// this meter.
func (m Meter) linearTicks(b timeline.BBT) int64 {
	return (int64(b.Bars-1)*int64(m.divisionsPerBar)+int64(b.Beats-1))*int64(timeline.TicksPerBeat) +
		int64(b.Ticks)
}

// offsetTicks flattens a BBT offset into division ticks under this meter.
func (m Meter) offsetTicks(o timeline.BBTOffset) int64 {
	return (int64(o.Bars)*int64(m.divisionsPerBar)+int64(o.Beats))*int64(timeline.TicksPerBeat) +
		int64(o.Ticks)
}

// unflatten turns zero-based division ticks back into a BBT position.
// Negative positions clamp to 1|1|0.
func (m Meter) unflatten(lt int64) timeline.BBT {
	if lt < 0 {
		return timeline.NewBBT(1, 1, 0)
	}
	tpb := m.ticksPerBar()
	bars := lt / tpb
	rem := lt % tpb
	beats := rem / int64(timeline.TicksPerBeat)
	ticks := rem % int64(timeline.TicksPerBeat)
	return timeline.BBT{Bars: int32(bars) + 1, Beats: int32(beats) + 1, Ticks: int32(ticks)}
}

// BBTAdd adds an offset to a position, propagating tick overflow into beats
// and beat overflow into bars under this meter.
func (m Meter) BBTAdd(b timeline.BBT, o timeline.BBTOffset) timeline.BBT {
	return m.unflatten(m.linearTicks(b) + m.offsetTicks(o))
}

// BBTSubtract subtracts an offset from a position, clamping at 1|1|0.
func (m Meter) BBTSubtract(b timeline.BBT, o timeline.BBTOffset) timeline.BBT {
	return m.unflatten(m.linearTicks(b) - m.offsetTicks(o))
}

// BBTDelta returns b - sub as a signed offset under this meter.
func (m Meter) BBTDelta(b, sub timeline.BBT) timeline.BBTOffset {
	d := m.linearTicks(b) - m.linearTicks(sub)
	neg := d < 0
	if neg {
		d = -d
	}
	tpb := m.ticksPerBar()
	off := timeline.BBTOffset{
		Bars:  int32(d / tpb),
		Beats: int32((d % tpb) / int64(timeline.TicksPerBeat)),
		Ticks: int32(d % int64(timeline.TicksPerBeat)),
	}
	if neg {
		off.Bars, off.Beats, off.Ticks = -off.Bars, -off.Beats, -off.Ticks
	}
	return off
}

// RoundToBar snaps a position to the nearest bar start.
func (m Meter) RoundToBar(b timeline.BBT) timeline.BBT {
	if int(b.Beats) > m.divisionsPerBar/2 {
		return timeline.BBT{Bars: b.Bars + 1, Beats: 1, Ticks: 0}
	}
	return timeline.BBT{Bars: b.Bars, Beats: 1, Ticks: 0}
}

// ToQuarters converts a BBT offset under this meter into an exact beat
// count. One division is 4/noteValue quarter notes.
func (m Meter) ToQuarters(o timeline.BBTOffset) timeline.Beats {
	return timeline.BeatsFromTicks(timeline.DivRound(m.offsetTicks(o)*4, int64(m.noteValue)))
}

// OffsetFromQuarters is the inverse of ToQuarters: an exact beat count
// becomes a BBT offset under this meter.
func (m Meter) OffsetFromQuarters(q timeline.Beats) timeline.BBTOffset {
	lt := timeline.DivRound(q.TotalTicks()*int64(m.noteValue), 4)
	neg := lt < 0
	if neg {
		lt = -lt
	}
	tpb := m.ticksPerBar()
	off := timeline.BBTOffset{
		Bars:  int32(lt / tpb),
		Beats: int32((lt % tpb) / int64(timeline.TicksPerBeat)),
		Ticks: int32(lt % int64(timeline.TicksPerBeat)),
	}
	if neg {
		off.Bars, off.Beats, off.Ticks = -off.Bars, -off.Beats, -off.Ticks
	}
	return off
}

// SamplesPerGrid is the duration of one division in samples under the given
// tempo.
func (m Meter) SamplesPerGrid(t Tempo, sampleRate int64) float64 {
	return t.SamplesPerNoteType(sampleRate) * float64(t.NoteType()) / float64(m.noteValue)
}

// SamplesPerBar is the duration of one bar in samples under the given tempo.
func (m Meter) SamplesPerBar(t Tempo, sampleRate int64) float64 {
	return m.SamplesPerGrid(t, sampleRate) * float64(m.divisionsPerBar)
}
