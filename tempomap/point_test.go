package tempomap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robmorgan/pulse/timeline"
)

func TestPointFlags(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.PointAtSample(0)
	require.NoError(t, err)
	require.True(t, p.IsExplicit())
	require.False(t, p.IsImplicit())
	require.Equal(t, "TM", p.Flags().String())
}

func TestPointMakeExplicitIdempotent(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)

	before := p.Flags()
	p.MakeExplicit(ExplicitTempo)
	require.Equal(t, before, p.Flags())

	p.MakeExplicit(ExplicitPosition)
	require.True(t, p.IsExplicitPosition())
	require.True(t, p.IsExplicitTempo())
}

func TestImplicitPointIsAPureView(t *testing.T) {
	t.Parallel()

	m := testMap()
	_, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)

	grid, err := m.GetGrid(0, 192000, timeline.Beats{})
	require.NoError(t, err)
	require.NotEmpty(t, grid)

	var view *Point
	for _, g := range grid {
		if g.IsImplicit() {
			view = g
			break
		}
	}
	require.NotNil(t, view)

	// setters are silently ignored on implicit points
	sc, q, bbt := view.Sclock(), view.Quarters(), view.BBT()
	view.SetSclock(sc + 1000)
	view.SetQuarters(q.Add(timeline.NewBeats(1, 0)))
	view.SetBBT(timeline.NewBBT(9, 1, 0))
	require.Equal(t, sc, view.Sclock())
	require.True(t, q.Equal(view.Quarters()))
	require.Equal(t, bbt, view.BBT())

	// and the metric resolves through the reference
	require.NotZero(t, view.Metric().SuperclocksPerQuarterNote())

	// mutating an implicit point's metric is a programmer error
	require.ErrorIs(t, m.ChangeTempo(view, NewTempo(90, 4)), ErrBadTempoMetricLookup)
}

func TestPointFloating(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)

	require.False(t, p.Floating())
	p.StartFloat()
	require.True(t, p.Floating())
	p.EndFloat()
	require.False(t, p.Floating())
}

func TestPointWalkDelegation(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.PointAtSample(0)
	require.NoError(t, err)

	// one second at 120 bpm is two beats
	q := p.WalkToQuarters(timeline.SuperclockTicksPerSecond)
	require.True(t, timeline.NewBeats(2, 0).Equal(q))
	require.Equal(t, timeline.SuperclockTicksPerSecond, p.WalkToSuperclock(q))

	require.True(t, timeline.NewBeats(2, 0).Equal(p.QuartersAt(timeline.SuperclockTicksPerSecond)))
	require.Equal(t, timeline.NewBBT(2, 1, 0), p.BBTAt(timeline.NewBeats(4, 0)))
}
