package timeline

import "fmt"

// BBT is a structured musical position: bar|beat|tick. Bars and beats are
// one-based; ticks count from zero. What a bar or beat spans depends on the
// meter in effect, so arithmetic on BBT values lives with the meter, not
// here.
type BBT struct {
	Bars  int32
	Beats int32
	Ticks int32
}

// BBTOffset is a signed distance expressed in bars, beats and ticks. All
// three fields are zero-based and may be negative.
type BBTOffset struct {
	Bars  int32
	Beats int32
	Ticks int32
}

// NewBBT clamps to the minimum legal position 1|1|0.
func NewBBT(bars, beats, ticks int32) BBT {
	if bars < 1 {
		bars = 1
	}
	if beats < 1 {
		beats = 1
	}
	if ticks < 0 {
		ticks = 0
	}
	return BBT{Bars: bars, Beats: beats, Ticks: ticks}
}

func (b BBT) Less(o BBT) bool {
	if b.Bars != o.Bars {
		return b.Bars < o.Bars
	}
	if b.Beats != o.Beats {
		return b.Beats < o.Beats
	}
	return b.Ticks < o.Ticks
}

func (b BBT) LessEq(o BBT) bool { return !o.Less(b) }
func (b BBT) Equal(o BBT) bool  { return b == o }

// String renders the "bar|beat|tick" form used by the persisted state.
func (b BBT) String() string {
	return fmt.Sprintf("%d|%d|%d", b.Bars, b.Beats, b.Ticks)
}

// ParseBBT parses the "bar|beat|tick" form.
func ParseBBT(s string) (BBT, error) {
	var bars, beats, ticks int32
	if _, err := fmt.Sscanf(s, "%d|%d|%d", &bars, &beats, &ticks); err != nil {
		return BBT{}, fmt.Errorf("malformed bbt %q: %w", s, err)
	}
	if bars < 1 || beats < 1 || ticks < 0 {
		return BBT{}, fmt.Errorf("bbt %q out of range", s)
	}
	return BBT{Bars: bars, Beats: beats, Ticks: ticks}, nil
}

func (o BBTOffset) IsZero() bool {
	return o.Bars == 0 && o.Beats == 0 && o.Ticks == 0
}
