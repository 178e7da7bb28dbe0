package tempomap

import (
	"math"

	"github.com/robmorgan/pulse/timeline"
)

// TempoMetric is the tempo and meter in effect at one point, plus the
// interpolation coefficients for a ramped segment. For a ramp the
// superclocks-per-quarter S obeys S(q) = S0 * e^(c*q) in the quarter-note
// domain, which makes S linear in superclock time; both walk directions have
// closed forms that are exact inverses of each other.
type TempoMetric struct {
	Tempo
	Meter

	cPerQuarter    float64
	cPerSuperclock float64
}

// NewTempoMetric pairs a tempo and meter with zeroed ramp coefficients.
// Coefficients are derived data, recomputed on rebuild.
func NewTempoMetric(t Tempo, m Meter) TempoMetric {
	return TempoMetric{Tempo: t, Meter: m}
}

func (tm TempoMetric) CPerQuarter() float64    { return tm.cPerQuarter }
func (tm TempoMetric) CPerSuperclock() float64 { return tm.cPerSuperclock }

// ComputeCSuperclock sets the superclock-domain coefficient for a segment of
// the given superclock duration ending at endScPerNoteType. Exactly zero for
// constant tempos and degenerate ramps.
func (tm *TempoMetric) ComputeCSuperclock(sampleRate int64, endScPerNoteType, duration timeline.Superclock) {
	if !tm.Ramped() || duration == 0 || endScPerNoteType == tm.SuperclocksPerNoteType() {
		tm.cPerSuperclock = 0
		return
	}
	tm.cPerSuperclock = math.Log(float64(endScPerNoteType)/float64(tm.SuperclocksPerNoteType())) /
		float64(duration)
}

// ComputeCQuarters sets the quarter-note-domain coefficient for a segment of
// the given beat duration ending at endScPerNoteType.
func (tm *TempoMetric) ComputeCQuarters(sampleRate int64, endScPerNoteType timeline.Superclock, duration timeline.Beats) {
	if !tm.Ramped() || duration.IsZero() || endScPerNoteType == tm.SuperclocksPerNoteType() {
		tm.cPerQuarter = 0
		return
	}
	tm.cPerQuarter = math.Log(float64(endScPerNoteType)/float64(tm.SuperclocksPerNoteType())) /
		duration.Float()
}

// computeRamp derives both coefficients from the segment's superclock
// duration alone. With S exponential in quarters, the per-quarter
// coefficient equals the linear slope (S1-S0)/duration in the superclock
// domain, and the beat duration of the segment follows from it.
func (tm *TempoMetric) computeRamp(sampleRate int64, duration timeline.Superclock) {
	if !tm.Ramped() || duration == 0 ||
		tm.EndSuperclocksPerNoteType() == tm.SuperclocksPerNoteType() {
		tm.cPerQuarter = 0
		tm.cPerSuperclock = 0
		return
	}
	s0 := float64(tm.SuperclocksPerQuarterNote())
	s1 := float64(tm.EndSuperclocksPerQuarterNote())
	tm.cPerQuarter = (s1 - s0) / float64(duration)
	tm.cPerSuperclock = math.Log(s1/s0) / float64(duration)
}

// SuperclockAtQuarters returns the superclock distance spanned by a beat
// distance from the metric's origin.
func (tm TempoMetric) SuperclockAtQuarters(q timeline.Beats) timeline.Superclock {
	sppq := tm.SuperclocksPerQuarterNote()
	if tm.cPerQuarter == 0 {
		return timeline.Superclock(timeline.DivRound(q.TotalTicks()*int64(sppq), int64(timeline.TicksPerBeat)))
	}
	s0 := float64(sppq)
	return timeline.Superclock(math.Round(s0 / tm.cPerQuarter * (math.Exp(tm.cPerQuarter*q.Float()) - 1)))
}

// QuartersAtSuperclock returns the beat distance spanned by a superclock
// distance from the metric's origin. Exact inverse of SuperclockAtQuarters
// up to IEEE-754 rounding.
func (tm TempoMetric) QuartersAtSuperclock(sc timeline.Superclock) timeline.Beats {
	sppq := tm.SuperclocksPerQuarterNote()
	if tm.cPerQuarter == 0 {
		return timeline.BeatsFromTicks(timeline.DivRound(int64(sc)*int64(timeline.TicksPerBeat), int64(sppq)))
	}
	s0 := float64(sppq)
	return timeline.BeatsFromFloat(math.Log1p(tm.cPerQuarter*float64(sc)/s0) / tm.cPerQuarter)
}

// SuperclockPerNoteTypeAtSuperclock is the instantaneous tempo at a
// superclock distance into the segment, in the tempo's own note type.
func (tm TempoMetric) SuperclockPerNoteTypeAtSuperclock(sc timeline.Superclock) timeline.Superclock {
	if tm.cPerQuarter == 0 {
		return tm.SuperclocksPerNoteType()
	}
	sppq := float64(tm.SuperclocksPerQuarterNote()) + tm.cPerQuarter*float64(sc)
	return timeline.Superclock(math.Round(sppq * 4 / float64(tm.NoteType())))
}

// SuperclocksPerBar is the duration of one bar at the metric's start tempo.
func (tm TempoMetric) SuperclocksPerBar(sampleRate int64) timeline.Superclock {
	return tm.SuperclocksPerGrid(sampleRate) * timeline.Superclock(tm.DivisionsPerBar())
}

// SuperclocksPerGrid is the duration of one meter division at the start
// tempo.
func (tm TempoMetric) SuperclocksPerGrid(sampleRate int64) timeline.Superclock {
	return tm.SuperclocksPerNoteType() * timeline.Superclock(tm.NoteType()) /
		timeline.Superclock(tm.Meter.NoteValue())
}
