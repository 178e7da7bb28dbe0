// Package mode carries the musical-mode tables used by pad-surface layouts:
// for each scale, the distances from the root expressed in fractional whole
// tones.
package mode

import "math"

// Type identifies a musical mode or scale.
type Type int

const (
	Dorian Type = iota
	Ionian
	Phrygian
	Lydian
	Mixolydian
	Aeolian
	Locrian
	PentatonicMajor
	PentatonicMinor
	MajorChord
	MinorChord
	Min7
	Sus4
	Chromatic
	BluesScale
	NeapolitanMinor
	NeapolitanMajor
	Oriental
	DoubleHarmonic
	Enigmatic
	Hirajoshi
	HungarianMinor
	HungarianMajor
	Kumoi
	Iwato
	Hindu
	Spanish8Tone
	Pelog
	HungarianGypsy
	Overtone
	LeadingWholeTone
	Arabian
	Balinese
	Gypsy
	Mohammedan
	Javanese
	Persian
	Algerian
)

// steps from the root in fractional whole tones, root excluded
var steps = map[Type][]float64{
	Dorian:          {1.0, 1.5, 2.0, 3.0, 4.0, 4.5},
	Ionian:          {1.0, 2.0, 2.5, 3.5, 4.5, 5.5},
	Phrygian:        {0.5, 1.5, 2.5, 3.5, 4.0, 5.0},
	Lydian:          {1.0, 2.0, 3.0, 3.5, 4.5, 5.5},
	Mixolydian:      {1.0, 2.0, 2.5, 3.5, 4.5, 5.0},
	Aeolian:         {1.0, 1.5, 2.5, 3.5, 4.0, 5.0},
	Locrian:         {0.5, 1.5, 2.0, 3.0, 4.0, 5.0},
	PentatonicMajor: {1.0, 2.0, 2.5, 3.5},
	PentatonicMinor: {1.5, 2.5, 3.5, 5.0},
	MajorChord:      {2.0, 3.5},
	MinorChord:      {1.5, 3.5},
	Min7:            {1.5, 3.5, 5.0},
	Sus4:            {2.5, 3.5},
	Chromatic:       {0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.5},
	BluesScale:      {1.0, 1.5, 2.5, 3.0, 3.5, 4.5, 5.0, 5.5},
	// 1 b2 b3 4 5 b6 7
	NeapolitanMinor:  {0.5, 1.5, 2.5, 3.5, 4.0, 5.5},
	NeapolitanMajor:  {0.5, 1.5, 2.5, 3.5, 4.5, 5.5},
	Oriental:         {0.5, 2.0, 2.5, 3.0, 4.5, 5.0},
	DoubleHarmonic:   {0.5, 2.0, 2.5, 3.5, 4.0, 5.5},
	Enigmatic:        {0.5, 2.0, 3.0, 4.0, 5.0, 5.5},
	Hirajoshi:        {1.0, 1.5, 3.5, 4.0},
	HungarianMinor:   {1.0, 1.5, 3.0, 3.5, 4.0, 5.5},
	HungarianMajor:   {1.0, 2.0, 3.0, 3.5, 4.0, 5.0},
	Kumoi:            {0.5, 2.5, 3.5, 4.0},
	Iwato:            {0.5, 2.5, 3.0, 5.0},
	Hindu:            {1.0, 2.0, 2.5, 3.5, 4.0, 5.0},
	Spanish8Tone:     {0.5, 1.5, 2.0, 2.5, 3.0, 4.0, 5.0},
	Pelog:            {0.5, 1.5, 3.5, 5.0},
	HungarianGypsy:   {1.0, 1.5, 3.0, 3.5, 4.0, 5.0},
	Overtone:         {1.0, 2.0, 3.0, 3.5, 4.5, 5.0},
	LeadingWholeTone: {1.0, 2.0, 3.0, 4.0, 5.0, 5.5},
	Arabian:          {1.0, 2.0, 2.5, 3.0, 4.0, 5.0},
	Balinese:         {0.5, 1.5, 3.5, 4.0},
	Gypsy:            {0.5, 2.0, 2.5, 3.5, 4.0, 5.5},
	Mohammedan:       {1.0, 1.5, 2.5, 3.5, 4.0, 5.5},
	Javanese:         {0.5, 1.5, 2.5, 3.5, 4.5, 5.0},
	Persian:          {0.5, 2.0, 2.5, 3.0, 4.0, 5.5},
	Algerian:         {1.0, 1.5, 3.0, 3.5, 4.0, 5.5, 6.0, 7.0, 7.5, 8.5},
}

// Steps returns the mode's distances from the root in whole tones, root
// excluded. The returned slice is shared; don't mutate it.
func Steps(t Type) []float64 {
	return steps[t]
}

// Semitones returns the mode's distances from the root in semitones,
// root included.
func Semitones(t Type) []int {
	out := make([]int, 0, len(steps[t])+1)
	out = append(out, 0)
	for _, s := range steps[t] {
		out = append(out, int(s*2))
	}
	return out
}

// Clamp bounds t to [min,max], tolerating swapped bounds.
func Clamp(t, min, max float64) float64 {
	min, max = math.Min(min, max), math.Max(min, max)
	return math.Max(math.Min(t, max), min)
}

// ToUnitClamp returns a function that scales a number from [rMin,rMax] to
// the unit interval, clamping results that fall outside it.
func ToUnitClamp(rMin, rMax float64) func(v float64) float64 {
	return func(v float64) float64 {
		if rMax == rMin {
			return 0
		}
		return Clamp((v-rMin)/(rMax-rMin), 0, 1)
	}
}
