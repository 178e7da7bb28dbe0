// Package timeline provides the fixed-point units shared by every temporal
// component: the superclock (sample-rate-independent audio time), exact
// musical time in quarter-note beats, and bar|beat|tick coordinates.
package timeline

import "golang.org/x/exp/constraints"

// Superclock is a 64-bit count of superclock ticks. The tick rate is chosen
// so that both every common sample rate and every common note divisor divide
// it evenly, which keeps superclock<->sample and superclock<->note-duration
// conversions exact for the cases that matter.
type Superclock int64

// SuperclockTicksPerSecond is 2^10 * 3^4 * 5^3 * 7^2. Evenly divisible by
// 22050, 24000, 44100, 48000, 88200, 96000, 176400, 192000 and by every
// integer up to 16 except 11 and 13, as well as 28, 32, 63 etc.
const SuperclockTicksPerSecond Superclock = 508032000

// SuperclockToSamples converts a superclock position to a sample position at
// the given sample rate, rounding to the nearest sample.
func SuperclockToSamples(sc Superclock, sampleRate int64) int64 {
	// split to avoid overflowing int64 on long timelines
	whole := int64(sc) / int64(SuperclockTicksPerSecond)
	rem := int64(sc) % int64(SuperclockTicksPerSecond)
	return whole*sampleRate + DivRound(rem*sampleRate, int64(SuperclockTicksPerSecond))
}

// SamplesToSuperclock converts a sample position at the given sample rate to
// superclocks. Exact whenever the rate divides the superclock frequency.
func SamplesToSuperclock(samples int64, sampleRate int64) Superclock {
	whole := samples / sampleRate
	rem := samples % sampleRate
	return Superclock(whole*int64(SuperclockTicksPerSecond) +
		DivRound(rem*int64(SuperclockTicksPerSecond), sampleRate))
}

// DivRound divides n by d rounding to nearest, away from zero on ties.
// d must be positive.
func DivRound[T constraints.Signed](n, d T) T {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
