package timeline

import "fmt"

// TicksPerBeat is the sub-beat resolution. One beat is one quarter note.
const TicksPerBeat int32 = 1920

// Beats is an exact quarter-note position or distance: whole beats plus
// sub-beat ticks. The pair is always normalized so that 0 <= ticks <
// TicksPerBeat for non-negative values and -TicksPerBeat < ticks <= 0 for
// negative ones, keeping the lexicographic order total.
type Beats struct {
	beats int32
	ticks int32
}

// NewBeats normalizes the given beat/tick pair.
func NewBeats(beats, ticks int32) Beats {
	return BeatsFromTicks(int64(beats)*int64(TicksPerBeat) + int64(ticks))
}

// BeatsFromTicks builds a Beats from a total tick count.
func BeatsFromTicks(t int64) Beats {
	return Beats{beats: int32(t / int64(TicksPerBeat)), ticks: int32(t % int64(TicksPerBeat))}
}

// BeatsFromFloat rounds a floating-point quarter-note count to the nearest
// tick. Only used to land the results of ramp math back on the grid.
func BeatsFromFloat(qn float64) Beats {
	if qn >= 0 {
		return BeatsFromTicks(int64(qn*float64(TicksPerBeat) + 0.5))
	}
	return BeatsFromTicks(-int64(-qn*float64(TicksPerBeat) + 0.5))
}

func (b Beats) Beats() int32 { return b.beats }
func (b Beats) Ticks() int32 { return b.ticks }

// TotalTicks returns the position as a single tick count.
func (b Beats) TotalTicks() int64 {
	return int64(b.beats)*int64(TicksPerBeat) + int64(b.ticks)
}

// Float returns the position as floating-point quarter notes.
func (b Beats) Float() float64 {
	return float64(b.TotalTicks()) / float64(TicksPerBeat)
}

func (b Beats) Add(o Beats) Beats { return BeatsFromTicks(b.TotalTicks() + o.TotalTicks()) }
func (b Beats) Sub(o Beats) Beats { return BeatsFromTicks(b.TotalTicks() - o.TotalTicks()) }
func (b Beats) Neg() Beats        { return BeatsFromTicks(-b.TotalTicks()) }

func (b Beats) IsZero() bool         { return b.beats == 0 && b.ticks == 0 }
func (b Beats) Less(o Beats) bool    { return b.TotalTicks() < o.TotalTicks() }
func (b Beats) LessEq(o Beats) bool  { return b.TotalTicks() <= o.TotalTicks() }
func (b Beats) Greater(o Beats) bool { return b.TotalTicks() > o.TotalTicks() }
func (b Beats) Equal(o Beats) bool   { return b.beats == o.beats && b.ticks == o.ticks }

// String renders the "beats:ticks" form used by the persisted state.
func (b Beats) String() string {
	return fmt.Sprintf("%d:%d", b.beats, b.ticks)
}

// ParseBeats parses the "beats:ticks" form.
func ParseBeats(s string) (Beats, error) {
	var beats, ticks int32
	if _, err := fmt.Sscanf(s, "%d:%d", &beats, &ticks); err != nil {
		return Beats{}, fmt.Errorf("malformed beats %q: %w", s, err)
	}
	return Beats{beats: beats, ticks: ticks}, nil
}
