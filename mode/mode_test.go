package mode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepsAreSortedAndInRange(t *testing.T) {
	t.Parallel()

	for typ, s := range steps {
		require.NotEmpty(t, s, "mode %d", typ)
		prev := 0.0
		for _, step := range s {
			require.Greater(t, step, prev, "mode %d steps must strictly ascend", typ)
			prev = step
		}
	}
}

func TestIonianIsTheMajorScale(t *testing.T) {
	t.Parallel()

	require.Equal(t, []int{0, 2, 4, 5, 7, 9, 11}, Semitones(Ionian))
}

func TestAeolianIsTheNaturalMinorScale(t *testing.T) {
	t.Parallel()

	require.Equal(t, []int{0, 2, 3, 5, 7, 8, 10}, Semitones(Aeolian))
}

func TestNeapolitanMinor(t *testing.T) {
	t.Parallel()

	// 1 b2 b3 4 5 b6 7
	require.Equal(t, []int{0, 1, 3, 5, 7, 8, 11}, Semitones(NeapolitanMinor))
}

func TestChromaticCoversEverySemitone(t *testing.T) {
	t.Parallel()

	require.Len(t, Semitones(Chromatic), 12)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.5, Clamp(0.5, 0, 1))
	require.Equal(t, 1.0, Clamp(3, 0, 1))
	require.Equal(t, 0.0, Clamp(-1, 0, 1))
	// tolerates swapped bounds
	require.Equal(t, 0.5, Clamp(0.5, 1, 0))
}

func TestToUnitClamp(t *testing.T) {
	t.Parallel()

	f := ToUnitClamp(10, 20)
	require.Equal(t, 0.0, f(10))
	require.Equal(t, 1.0, f(20))
	require.Equal(t, 0.5, f(15))
	require.Equal(t, 1.0, f(99))

	// degenerate range collapses to zero
	require.Equal(t, 0.0, ToUnitClamp(5, 5)(5))
}
