// Package tempomap implements the tempo map: a mutable, query-optimized
// mapping between audio time (samples / superclocks), linear musical time
// (quarter-note beats) and structured musical time (bars|beats|ticks).
package tempomap

import (
	"github.com/robmorgan/pulse/timeline"
)

// TempoType says whether beat duration is fixed across a segment or ramps
// exponentially from a start to an end value.
type TempoType int

const (
	Constant TempoType = iota
	Ramped
)

func (t TempoType) String() string {
	if t == Ramped {
		return "Ramped"
	}
	return "Constant"
}

// Tempo is the speed at which musical time progresses. It is stored as
// superclocks per note type so that common tempos are exact; BPM floats are
// a display-layer convenience only.
type Tempo struct {
	superclocksPerNoteType    timeline.Superclock
	endSuperclocksPerNoteType timeline.Superclock
	noteType                  int
	active                    bool
	lockedToMeter             bool // name has unclear meaning; persisted but never consulted
	clamped                   bool
	typ                       TempoType
}

// NewTempo builds a constant tempo from note types per minute.
// noteType 4 means the tempo counts quarter notes.
func NewTempo(npm float64, noteType int) Tempo {
	sc := npmToSuperclocks(npm)
	return Tempo{
		superclocksPerNoteType:    sc,
		endSuperclocksPerNoteType: sc,
		noteType:                  noteType,
		active:                    true,
		typ:                       Constant,
	}
}

// NewRampedTempo builds a tempo that ramps from npm to endNpm over the
// segment it governs. Equal endpoints collapse to a constant tempo.
func NewRampedTempo(npm, endNpm float64, noteType int) Tempo {
	t := NewTempo(npm, noteType)
	t.endSuperclocksPerNoteType = npmToSuperclocks(endNpm)
	if t.endSuperclocksPerNoteType != t.superclocksPerNoteType {
		t.typ = Ramped
	}
	return t
}

func npmToSuperclocks(npm float64) timeline.Superclock {
	return timeline.Superclock(float64(timeline.SuperclockTicksPerSecond)*60.0/npm + 0.5)
}

func superclocksToNpm(sc timeline.Superclock) float64 {
	return float64(timeline.SuperclockTicksPerSecond) * 60.0 / float64(sc)
}

// NoteTypesPerMinute returns the tempo in its own note type per minute, the
// number users see.
func (t Tempo) NoteTypesPerMinute() float64 { return superclocksToNpm(t.superclocksPerNoteType) }

// EndNoteTypesPerMinute returns the ramp target in note types per minute.
func (t Tempo) EndNoteTypesPerMinute() float64 { return superclocksToNpm(t.endSuperclocksPerNoteType) }

// QuarterNotesPerMinute returns the tempo coerced to quarter notes.
func (t Tempo) QuarterNotesPerMinute() float64 {
	return float64(timeline.SuperclockTicksPerSecond) * 60.0 * 4.0 /
		(float64(t.noteType) * float64(t.superclocksPerNoteType))
}

// SetNoteTypesPerMinute replaces the starting tempo, keeping the ramp target.
func (t *Tempo) SetNoteTypesPerMinute(npm float64) {
	t.superclocksPerNoteType = npmToSuperclocks(npm)
	if t.typ == Constant {
		t.endSuperclocksPerNoteType = t.superclocksPerNoteType
	}
}

func (t Tempo) NoteType() int { return t.noteType }

func (t Tempo) SuperclocksPerNoteType() timeline.Superclock { return t.superclocksPerNoteType }

func (t Tempo) EndSuperclocksPerNoteType() timeline.Superclock {
	return t.endSuperclocksPerNoteType
}

// SuperclocksPerNoteTypeFor coerces the stored duration to another note
// type: sc' = sc * source / target.
func (t Tempo) SuperclocksPerNoteTypeFor(noteType int) timeline.Superclock {
	return t.superclocksPerNoteType * timeline.Superclock(t.noteType) / timeline.Superclock(noteType)
}

// SuperclocksPerQuarterNote is the stored duration coerced to note type 4.
func (t Tempo) SuperclocksPerQuarterNote() timeline.Superclock {
	return t.SuperclocksPerNoteTypeFor(4)
}

// EndSuperclocksPerQuarterNote is the ramp target coerced to note type 4.
func (t Tempo) EndSuperclocksPerQuarterNote() timeline.Superclock {
	return t.endSuperclocksPerNoteType * timeline.Superclock(t.noteType) / 4
}

// SuperclocksPerPPQN is the duration of one beat tick.
func (t Tempo) SuperclocksPerPPQN() timeline.Superclock {
	return t.SuperclocksPerQuarterNote() / timeline.Superclock(timeline.TicksPerBeat)
}

// SamplesPerNoteType returns the note duration in samples at the given rate.
func (t Tempo) SamplesPerNoteType(sampleRate int64) float64 {
	return float64(t.superclocksPerNoteType) * float64(sampleRate) /
		float64(timeline.SuperclockTicksPerSecond)
}

// SamplesPerQuarterNote returns the quarter-note duration in samples.
func (t Tempo) SamplesPerQuarterNote(sampleRate int64) float64 {
	return float64(t.SuperclocksPerQuarterNote()) * float64(sampleRate) /
		float64(timeline.SuperclockTicksPerSecond)
}

func (t Tempo) Active() bool        { return t.active }
func (t *Tempo) SetActive(yn bool)  { t.active = yn }
func (t Tempo) LockedToMeter() bool { return t.lockedToMeter }
func (t *Tempo) SetLockedToMeter(yn bool) {
	t.lockedToMeter = yn
}
func (t Tempo) Clamped() bool { return t.clamped }
func (t *Tempo) SetClamped(yn bool) bool {
	if t.clamped == yn {
		return false
	}
	t.clamped = yn
	return true
}

func (t Tempo) Type() TempoType { return t.typ }
func (t Tempo) Ramped() bool    { return t.typ != Constant }

// SetRamped toggles ramping. Turning ramping off snaps the end tempo back to
// the start; turning it on only takes effect once the endpoints differ.
func (t *Tempo) SetRamped(yn bool) bool {
	if !yn {
		if t.typ == Constant {
			return false
		}
		t.typ = Constant
		t.endSuperclocksPerNoteType = t.superclocksPerNoteType
		return true
	}
	if t.typ == Ramped || t.endSuperclocksPerNoteType == t.superclocksPerNoteType {
		return false
	}
	t.typ = Ramped
	return true
}

// SetEndNoteTypesPerMinute replaces the ramp target and re-derives the type
// so that Ramped always means the endpoints differ.
func (t *Tempo) SetEndNoteTypesPerMinute(npm float64) {
	t.endSuperclocksPerNoteType = npmToSuperclocks(npm)
	if t.endSuperclocksPerNoteType == t.superclocksPerNoteType {
		t.typ = Constant
	} else {
		t.typ = Ramped
	}
}

func (t Tempo) Equal(o Tempo) bool {
	return t.superclocksPerNoteType == o.superclocksPerNoteType &&
		t.endSuperclocksPerNoteType == o.endSuperclocksPerNoteType &&
		t.noteType == o.noteType
}
