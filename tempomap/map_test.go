package tempomap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robmorgan/pulse/timeline"
)

func testMap() *Map {
	return New(NewTempo(120, 4), NewMeter(4, 4), 48000)
}

func TestMapAnchor(t *testing.T) {
	t.Parallel()

	m := testMap()
	require.Equal(t, 1, m.NTempos())
	require.Equal(t, 1, m.NMeters())

	p, err := m.PointAtSample(0)
	require.NoError(t, err)
	require.True(t, p.IsExplicitTempo())
	require.True(t, p.IsExplicitMeter())
	require.Equal(t, timeline.Superclock(0), p.Sclock())
	require.Equal(t, timeline.NewBBT(1, 1, 0), p.BBT())
}

func TestMapSampleAtBeatsBasic(t *testing.T) {
	t.Parallel()

	// 120 bpm at 48 kHz: four beats are two seconds
	m := testMap()
	s, err := m.SampleAtBeats(timeline.NewBeats(4, 0))
	require.NoError(t, err)
	require.Equal(t, int64(96000), s)

	b, err := m.QuarterNoteAtSample(96000)
	require.NoError(t, err)
	require.True(t, timeline.NewBeats(4, 0).Equal(b))
}

func TestMapTempoChangeAtBar(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtBBT(NewTempo(60, 4), timeline.NewBBT(2, 1, 0))
	require.NoError(t, err)
	require.NotNil(t, p)
	require.True(t, timeline.NewBeats(4, 0).Equal(p.Quarters()))
	require.Equal(t, timeline.NewBBT(2, 1, 0), p.BBT())

	tempo, err := m.TempoAtBBT(timeline.NewBBT(3, 1, 0))
	require.NoError(t, err)
	require.InDelta(t, 60.0, tempo.NoteTypesPerMinute(), 1e-9)

	bar2, err := m.SampleAtBBT(timeline.NewBBT(2, 1, 0))
	require.NoError(t, err)
	bar3, err := m.SampleAtBBT(timeline.NewBBT(3, 1, 0))
	require.NoError(t, err)
	require.Equal(t, int64(96000), bar2)
	require.Equal(t, bar2+4*48000, bar3)
}

func TestMapRejectsBeforeAnchorAndClamped(t *testing.T) {
	t.Parallel()

	m := testMap()
	_, err := m.SetTempoAtSample(NewTempo(60, 4), -100)
	require.ErrorIs(t, err, ErrBeforeAnchor)

	clamped := NewTempo(100, 4)
	clamped.SetClamped(true)
	_, err = m.SetTempoAtSample(clamped, 96000)
	require.NoError(t, err)

	_, err = m.SetTempoAtSample(NewTempo(80, 4), 96000)
	require.ErrorIs(t, err, ErrClampedPlacement)
	_, err = m.SetMeterAtSample(NewMeter(3, 4), 96000)
	require.ErrorIs(t, err, ErrClampedPlacement)
}

func TestMapRemoveAnchorRejected(t *testing.T) {
	t.Parallel()

	m := testMap()
	anchor, err := m.PointAtSample(0)
	require.NoError(t, err)
	require.False(t, m.RemoveTempoAt(anchor))
	require.False(t, m.RemoveMeterAt(anchor))
	require.False(t, m.CanRemoveTempo(anchor.Tempo()))
	require.False(t, m.CanRemoveMeter(anchor.Meter()))
	require.True(t, m.IsInitialTempo(anchor.Tempo()))
}

func TestMapRemoveTempoErasesBarePoint(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)
	require.Equal(t, 2, m.NTempos())
	require.True(t, m.CanRemoveTempo(p.Tempo()))

	require.True(t, m.RemoveTempoAt(p))
	require.Equal(t, 1, m.NTempos())
	require.Len(t, m.GetPoints(), 1)
}

func TestMapRemoveFlagKeepsDualPoint(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)
	_, err = m.SetMeterAtSample(NewMeter(3, 4), 96000)
	require.NoError(t, err)
	require.True(t, p.IsExplicitTempo())
	require.True(t, p.IsExplicitMeter())

	// clearing the tempo flag leaves the meter point in place, and its
	// tempo reverts to the inherited one
	require.True(t, m.RemoveTempoAt(p))
	require.Len(t, m.GetPoints(), 2)
	tempo, err := m.TempoAtSample(144000)
	require.NoError(t, err)
	require.InDelta(t, 120.0, tempo.NoteTypesPerMinute(), 1e-9)
}

func TestMapChangeTempo(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)

	require.NoError(t, m.ChangeTempo(p, NewTempo(90, 4)))
	tempo, err := m.TempoAtSample(144000)
	require.NoError(t, err)
	require.InDelta(t, 90.0, tempo.NoteTypesPerMinute(), 1e-9)

	foreign := &Point{flags: ExplicitTempo}
	require.ErrorIs(t, m.ChangeTempo(foreign, NewTempo(90, 4)), ErrBadTempoMetricLookup)
}

func TestMapMoveTo(t *testing.T) {
	t.Parallel()

	m := testMap()
	_, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)
	_, err = m.SetTempoAtSample(NewTempo(90, 4), 192000)
	require.NoError(t, err)

	// anchor never moves
	require.False(t, m.MoveTo(0, 48000, false))

	// a move that stays between its neighbours is fine
	require.True(t, m.MoveTo(96000, 120000, false))
	tempo, err := m.TempoAtSample(121000)
	require.NoError(t, err)
	require.InDelta(t, 60.0, tempo.NoteTypesPerMinute(), 1e-9)

	// a move past the next point is rejected without push
	require.False(t, m.MoveTo(120000, 210000, false))

	// with push, later points shift by the same delta
	require.True(t, m.MoveTo(120000, 144000, true))
	pts := m.GetTempos()
	require.Len(t, pts, 3)
	require.Equal(t, int64(144000), pts[1].Sample())
	require.Equal(t, int64(216000), pts[2].Sample())

	// push never reorders a point behind its unmoved predecessor
	require.False(t, m.MoveTo(216000, 100000, true))
	require.False(t, m.MoveTo(216000, 144000, true))
	pts = m.GetTempos()
	require.Equal(t, int64(144000), pts[1].Sample())
	require.Equal(t, int64(216000), pts[2].Sample())

	// a push earlier that stays ahead of the predecessor is fine
	require.True(t, m.MoveTo(216000, 192000, true))
	pts = m.GetTempos()
	require.Equal(t, int64(192000), pts[2].Sample())

	for i := 1; i < len(pts); i++ {
		require.True(t, pts[i-1].Sclock() < pts[i].Sclock())
	}
}

func TestMapIteratorBoundaries(t *testing.T) {
	t.Parallel()

	m := testMap()

	// before the anchor, the initial metric extends backwards
	tempo, err := m.TempoAtSample(-96000)
	require.NoError(t, err)
	require.InDelta(t, 120.0, tempo.NoteTypesPerMinute(), 1e-9)

	b, err := m.QuarterNoteAtSample(-48000)
	require.NoError(t, err)
	require.True(t, timeline.NewBeats(-2, 0).Equal(b))

	// after the last point, its metric extends forwards
	tempo, err = m.TempoAtSample(1 << 40)
	require.NoError(t, err)
	require.InDelta(t, 120.0, tempo.NoteTypesPerMinute(), 1e-9)
}

func TestMapEmptyQueries(t *testing.T) {
	t.Parallel()

	m := &Map{}
	_, err := m.TempoAtSample(0)
	require.ErrorIs(t, err, ErrEmptyMap)
	_, err = m.QuarterNoteAtSample(0)
	require.ErrorIs(t, err, ErrEmptyMap)
	_, err = m.BBTAtSample(0)
	require.ErrorIs(t, err, ErrEmptyMap)
	_, err = m.SampleAtBeats(timeline.NewBeats(1, 0))
	require.ErrorIs(t, err, ErrEmptyMap)
	_, err = m.GetGrid(0, 48000, timeline.NewBeats(1, 0))
	require.ErrorIs(t, err, ErrEmptyMap)
}

func TestMapMeterChange(t *testing.T) {
	t.Parallel()

	m := testMap()
	p, err := m.SetMeterAtBBT(NewMeter(3, 4), timeline.NewBBT(5, 1, 0))
	require.NoError(t, err)
	require.Equal(t, timeline.NewBBT(5, 1, 0), p.BBT())
	require.True(t, timeline.NewBeats(16, 0).Equal(p.Quarters()))

	// round trip through the meter change
	s, err := m.SampleAtBBT(timeline.NewBBT(7, 1, 0))
	require.NoError(t, err)
	bbt, err := m.BBTAtSample(s)
	require.NoError(t, err)
	require.Equal(t, timeline.NewBBT(7, 1, 0), bbt)

	// one beat past the last beat of a 3/4 bar lands on the next bar
	next, err := m.BBTWalk(timeline.NewBBT(5, 3, 0), timeline.BBTOffset{Beats: 1})
	require.NoError(t, err)
	require.Equal(t, timeline.NewBBT(6, 1, 0), next)

	// walking across the meter change from a 4/4 position
	next, err = m.BBTWalk(timeline.NewBBT(4, 4, 0), timeline.BBTOffset{Beats: 1})
	require.NoError(t, err)
	require.Equal(t, timeline.NewBBT(5, 1, 0), next)
}

func TestMapRampScenario(t *testing.T) {
	t.Parallel()

	// ramp from 60 up to 120 bpm across eight quarter notes. The
	// terminator's sample position is derived analytically:
	// d_sc = (S1-S0)/c with c = ln(S1/S0)/8.
	m := New(NewRampedTempo(60, 120, 4), NewMeter(4, 4), 48000)
	endSamples := int64(276997)
	p, err := m.SetTempoAtSample(NewTempo(120, 4), endSamples)
	require.NoError(t, err)

	// the terminator sits eight beats in, within a tick or two
	require.InDelta(t, 8.0, p.Quarters().Float(), 0.01)

	// monotonic in time
	prev := timeline.NewBeats(-1, 0)
	for s := int64(0); s <= endSamples+48000; s += 4800 {
		q, err := m.QuarterNoteAtSample(s)
		require.NoError(t, err)
		require.True(t, prev.Less(q), "not monotonic at sample %d", s)
		prev = q
	}

	// accelerating: fewer beats elapse in the first half of the ramp
	mid, err := m.QuarterNoteAtSample(endSamples / 2)
	require.NoError(t, err)
	require.Greater(t, mid.Float(), 3.0)
	require.Less(t, mid.Float(), 4.0)

	// round trip through the ramp
	for _, b := range []timeline.Beats{
		timeline.NewBeats(1, 0),
		timeline.NewBeats(3, 960),
		timeline.NewBeats(6, 480),
		timeline.NewBeats(7, 1919),
	} {
		s, err := m.SampleAtBeats(b)
		require.NoError(t, err)
		got, err := m.QuarterNoteAtSample(s)
		require.NoError(t, err)
		require.True(t, b.Equal(got), "round trip %s gave %s", b, got)
	}
}

func TestMapRampDeceleratingMidpoint(t *testing.T) {
	t.Parallel()

	// the mirror ramp, 120 down to 60 over eight beats: more than half the
	// beats elapse in the first half of the time span
	m := New(NewRampedTempo(120, 60, 4), NewMeter(4, 4), 48000)
	endSamples := int64(277001)
	_, err := m.SetTempoAtSample(NewTempo(60, 4), endSamples)
	require.NoError(t, err)

	mid, err := m.QuarterNoteAtSample(endSamples / 2)
	require.NoError(t, err)
	require.Greater(t, mid.Float(), 4.0)
	require.Less(t, mid.Float(), 5.0)
}

func TestMapCoordinateCoherence(t *testing.T) {
	t.Parallel()

	// a busy map: ramp, meter change mid-ramp, later tempo and meter points
	m := New(NewRampedTempo(120, 80, 4), NewMeter(4, 4), 48000)
	_, err := m.SetMeterAtSample(NewMeter(3, 4), 96000)
	require.NoError(t, err)
	_, err = m.SetTempoAtSample(NewTempo(80, 4), 192000)
	require.NoError(t, err)
	_, err = m.SetTempoAtBBT(NewTempo(140, 4), timeline.NewBBT(12, 1, 0))
	require.NoError(t, err)
	_, err = m.SetMeterAtBBT(NewMeter(7, 8), timeline.NewBBT(14, 1, 0))
	require.NoError(t, err)

	pts := m.GetPoints()
	require.GreaterOrEqual(t, len(pts), 5)

	for i := 1; i < len(pts); i++ {
		a, b := &pts[i-1], &pts[i]

		// sort order holds in all three domains
		require.True(t, a.Sclock() < b.Sclock())
		require.True(t, a.Quarters().Less(b.Quarters()))
		require.True(t, a.BBT().Less(b.BBT()))

		// walking from the preceding explicit point reproduces the
		// derived coordinates
		dq := a.WalkToQuarters(b.Sclock() - a.Sclock())
		require.True(t, b.Quarters().Sub(a.Quarters()).Equal(dq),
			"quarters mismatch between points %d and %d", i-1, i)

		am := a.Metric()
		require.Equal(t, b.BBT(), am.BBTAdd(a.BBT(), am.OffsetFromQuarters(dq)),
			"bbt mismatch between points %d and %d", i-1, i)
	}
}

func TestMapUpdateMusicTimesGeneration(t *testing.T) {
	t.Parallel()

	m := testMap()
	var b timeline.Beats
	var bbt timeline.BBT

	gen, err := m.UpdateMusicTimes(-1, 96000, &b, &bbt, false)
	require.NoError(t, err)
	require.True(t, timeline.NewBeats(4, 0).Equal(b))
	require.Equal(t, timeline.NewBBT(2, 1, 0), bbt)

	// matching generation is a no-op
	b = timeline.Beats{}
	gen2, err := m.UpdateMusicTimes(gen, 96000, &b, &bbt, false)
	require.NoError(t, err)
	require.Equal(t, gen, gen2)
	require.True(t, b.IsZero())

	// force recomputes regardless
	_, err = m.UpdateMusicTimes(gen, 96000, &b, &bbt, true)
	require.NoError(t, err)
	require.True(t, timeline.NewBeats(4, 0).Equal(b))

	// a mutation bumps the generation
	_, err = m.SetTempoAtSample(NewTempo(60, 4), 192000)
	require.NoError(t, err)
	gen3, err := m.UpdateMusicTimes(gen, 96000, &b, &bbt, false)
	require.NoError(t, err)
	require.NotEqual(t, gen, gen3)
}

func TestMapUpdateSamplesAndBeatTimes(t *testing.T) {
	t.Parallel()

	m := testMap()
	var pos int64
	var b timeline.Beats
	_, err := m.UpdateSamplesAndBeatTimes(-1, timeline.NewBBT(3, 1, 0), &pos, &b, false)
	require.NoError(t, err)
	require.Equal(t, int64(192000), pos)
	require.True(t, timeline.NewBeats(8, 0).Equal(b))

	var bbt timeline.BBT
	_, err = m.UpdateSamplesAndBBTTimes(-1, timeline.NewBeats(8, 0), &pos, &bbt, false)
	require.NoError(t, err)
	require.Equal(t, int64(192000), pos)
	require.Equal(t, timeline.NewBBT(3, 1, 0), bbt)
}

func TestMapChangedSignal(t *testing.T) {
	t.Parallel()

	m := testMap()
	var calls int
	var lastStart int64
	id := m.Subscribe(func(start, end int64) {
		calls++
		lastStart = start
	})

	_, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, int64(96000), lastStart)

	// a rejected mutation emits nothing
	_, err = m.SetTempoAtSample(NewTempo(60, 4), -5)
	require.Error(t, err)
	require.Equal(t, 1, calls)

	m.Unsubscribe(id)
	_, err = m.SetTempoAtSample(NewTempo(90, 4), 192000)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestMapWalkers(t *testing.T) {
	t.Parallel()

	m := testMap()
	_, err := m.SetTempoAtSample(NewTempo(60, 4), 96000)
	require.NoError(t, err)

	// from two beats in, the distance to beat three of bar two spans two
	// beats at 120 and two at 60
	d, err := m.SampleDeltaAsQuarters(48000, 96000+96000-48000)
	require.NoError(t, err)
	require.True(t, timeline.NewBeats(4, 0).Equal(d))

	s, err := m.SamplePlusQuartersAsSamples(0, timeline.NewBeats(6, 0))
	require.NoError(t, err)
	require.Equal(t, int64(96000+2*48000), s)

	s, err = m.SamplePosPlusBBT(0, timeline.BBTOffset{Bars: 1})
	require.NoError(t, err)
	require.Equal(t, int64(96000), s)

	sppq, err := m.SamplesPerQuarterNoteAt(144000)
	require.NoError(t, err)
	require.Equal(t, int64(48000), sppq)

	dur, err := m.BBTDurationAt(96000, timeline.BBTOffset{Beats: 1}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(48000), dur)
}

func TestMapConcurrentReadersAndWriter(t *testing.T) {
	t.Parallel()

	m := testMap()
	const writes = 200
	const readers = 4

	allowed := func(npm float64) bool {
		if npm == 120 {
			return true
		}
		return npm >= 100 && npm < 100+writes
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan float64, readers*16)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tempo, err := m.TempoAtSample(144000)
				if err != nil {
					continue
				}
				npm := tempo.NoteTypesPerMinute()
				// allow for float display rounding
				rounded := float64(int(npm + 0.5))
				if !allowed(rounded) {
					select {
					case errs <- npm:
					default:
					}
				}

				if b, err := m.QuarterNoteAtSample(288000); err == nil {
					if b.Less(timeline.NewBeats(0, 0)) {
						select {
						case errs <- -1:
						default:
						}
					}
				}
			}
		}()
	}

	for i := 0; i < writes; i++ {
		_, err := m.SetTempoAtSample(NewTempo(float64(100+i%writes), 4), 96000)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	close(errs)

	for bad := range errs {
		t.Fatalf("reader observed inconsistent value %v", bad)
	}
}
