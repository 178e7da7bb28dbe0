package tempomap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robmorgan/pulse/timeline"
)

func buildStateTestMap(t *testing.T) *Map {
	t.Helper()
	m := testMap()
	_, err := m.SetTempoAtBBT(NewTempo(60, 4), timeline.NewBBT(3, 1, 0))
	require.NoError(t, err)
	_, err = m.SetTempoAtBBT(NewRampedTempo(90, 120, 4), timeline.NewBBT(5, 1, 0))
	require.NoError(t, err)
	_, err = m.SetMeterAtBBT(NewMeter(3, 4), timeline.NewBBT(7, 1, 0))
	require.NoError(t, err)
	return m
}

func requireSamePoints(t *testing.T, want, got *Map) {
	t.Helper()
	a, b := want.GetPoints(), got.GetPoints()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Flags(), b[i].Flags(), "point %d flags", i)
		require.Equal(t, a[i].Sclock(), b[i].Sclock(), "point %d sclock", i)
		require.True(t, a[i].Quarters().Equal(b[i].Quarters()), "point %d quarters", i)
		require.Equal(t, a[i].BBT(), b[i].BBT(), "point %d bbt", i)
		require.True(t, a[i].Tempo().Equal(b[i].Tempo()), "point %d tempo", i)
		require.True(t, a[i].Meter().Equal(b[i].Meter()), "point %d meter", i)
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	m := buildStateTestMap(t)
	data, err := m.GetState()
	require.NoError(t, err)

	m2 := testMap()
	require.NoError(t, m2.SetState(data, CurrentStateVersion))
	requireSamePoints(t, m, m2)

	// conversions agree after the reload
	for _, samples := range []int64{0, 50000, 250000, 500000, 900000} {
		wantB, err := m.QuarterNoteAtSample(samples)
		require.NoError(t, err)
		gotB, err := m2.QuarterNoteAtSample(samples)
		require.NoError(t, err)
		require.True(t, wantB.Equal(gotB), "quarters at %d", samples)

		wantT, err := m.BBTAtSample(samples)
		require.NoError(t, err)
		gotT, err := m2.BBTAtSample(samples)
		require.NoError(t, err)
		require.Equal(t, wantT, gotT, "bbt at %d", samples)
	}
}

func TestStatePreservesTempoFields(t *testing.T) {
	t.Parallel()

	m := testMap()
	tp := NewTempo(77, 8)
	tp.SetLockedToMeter(true)
	tp.SetClamped(true)
	tp.SetActive(false)
	_, err := m.SetTempoAtSample(tp, 96000)
	require.NoError(t, err)

	data, err := m.GetState()
	require.NoError(t, err)
	m2 := testMap()
	require.NoError(t, m2.SetState(data, CurrentStateVersion))

	pts := m2.GetTempos()
	require.Len(t, pts, 2)
	got := pts[1].Tempo()
	require.True(t, got.LockedToMeter())
	require.True(t, got.Clamped())
	require.False(t, got.Active())
	require.Equal(t, 8, got.NoteType())
}

func TestStateRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	m := buildStateTestMap(t)
	before, err := m.GetState()
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":       "not xml at all <",
		"no points":     `<TempoMap version="1"></TempoMap>`,
		"bad flags":     `<TempoMap version="1"><TempoMapPoint flags="64" sclock="0" quarters="0:0" bbt="1|1|0"/></TempoMap>`,
		"missing tempo": `<TempoMap version="1"><TempoMapPoint flags="3" sclock="0" quarters="0:0" bbt="1|1|0"/></TempoMap>`,
		"bad anchor": `<TempoMap version="1"><TempoMapPoint flags="3" sclock="5" quarters="0:0" bbt="1|1|0">` +
			`<Tempo superclocks-per-note-type="254016000" end-superclocks-per-note-type="254016000" note-type="4" active="true" locked-to-meter="false" clamped="false" type="Constant"></Tempo>` +
			`<Meter note-value="4" divisions-per-bar="4"></Meter></TempoMapPoint></TempoMap>`,
		"bad note type": `<TempoMap version="1"><TempoMapPoint flags="3" sclock="0" quarters="0:0" bbt="1|1|0">` +
			`<Tempo superclocks-per-note-type="254016000" end-superclocks-per-note-type="254016000" note-type="5" active="true" locked-to-meter="false" clamped="false" type="Constant"></Tempo>` +
			`<Meter note-value="4" divisions-per-bar="4"></Meter></TempoMapPoint></TempoMap>`,
		"type mismatch": `<TempoMap version="1"><TempoMapPoint flags="3" sclock="0" quarters="0:0" bbt="1|1|0">` +
			`<Tempo superclocks-per-note-type="254016000" end-superclocks-per-note-type="508032000" note-type="4" active="true" locked-to-meter="false" clamped="false" type="Constant"></Tempo>` +
			`<Meter note-value="4" divisions-per-bar="4"></Meter></TempoMapPoint></TempoMap>`,
	}

	for name, data := range cases {
		err := m.SetState([]byte(data), CurrentStateVersion)
		require.Error(t, err, "case %q", name)

		// the map is left exactly as it was
		after, err := m.GetState()
		require.NoError(t, err)
		require.Equal(t, string(before), string(after), "case %q", name)
	}
}

func TestStateRejectsNewerVersion(t *testing.T) {
	t.Parallel()

	m := buildStateTestMap(t)
	data, err := m.GetState()
	require.NoError(t, err)

	m2 := testMap()
	require.Error(t, m2.SetState(data, CurrentStateVersion+1))
}
