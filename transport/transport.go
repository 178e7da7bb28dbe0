// Package transport turns wall-clock time into musical time by driving a
// tempo map with a running clock.
package transport

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/robmorgan/pulse/tempomap"
	"github.com/robmorgan/pulse/timeline"
)

// Transport is a playhead over a tempo map. The injected clock makes it
// testable without sleeping.
type Transport struct {
	mu        sync.Mutex
	clock     clock.PassiveClock
	tmap      *tempomap.Map
	startTime time.Time
	startPos  int64 // sample position at startTime (last start, stop or locate)
	rolling   bool

	// generation-guarded cache of the last probe
	gen      int
	lastPos  int64
	lastB    timeline.Beats
	lastBBT  timeline.BBT
	haveLast bool
}

// New creates a stopped transport at sample zero.
func New(cl clock.PassiveClock, m *tempomap.Map) *Transport {
	return &Transport{clock: cl, tmap: m, gen: -1}
}

// Start begins rolling from the current locate position.
func (t *Transport) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rolling {
		return
	}
	t.startTime = t.clock.Now()
	t.rolling = true
}

// Stop freezes the playhead at its current position.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.rolling {
		return
	}
	t.startPos = t.sampleLocked()
	t.rolling = false
}

// Locate jumps the playhead to a sample position, rolling or not.
func (t *Transport) Locate(samples int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startPos = samples
	t.startTime = t.clock.Now()
}

// Rolling reports whether the transport is running.
func (t *Transport) Rolling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolling
}

func (t *Transport) sampleLocked() int64 {
	if !t.rolling {
		return t.startPos
	}
	elapsed := t.clock.Now().Sub(t.startTime)
	return t.startPos + elapsed.Nanoseconds()*t.tmap.SampleRate()/int64(time.Second)
}

// Sample returns the playhead's sample position.
func (t *Transport) Sample() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampleLocked()
}

// Snapshot probes the playhead's position in all three coordinate systems.
// Beat and BBT conversions are cached against the map's generation, so a
// snapshot while the map is unchanged and the transport stopped reuses them;
// the tempo and meter are looked up on every call.
type Snapshot struct {
	Sample   int64
	Beats    timeline.Beats
	BBT      timeline.BBT
	Tempo    tempomap.Tempo
	Meter    tempomap.Meter
	Rolling  bool
}

// GetSnapshot probes the current position.
func (t *Transport) GetSnapshot() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.sampleLocked()
	if !t.haveLast || pos != t.lastPos {
		t.gen = -1 // position moved; the cache is stale regardless of map generation
	}
	gen, err := t.tmap.UpdateMusicTimes(t.gen, pos, &t.lastB, &t.lastBBT, !t.haveLast || pos != t.lastPos)
	if err != nil {
		return Snapshot{}, err
	}
	t.gen = gen
	t.lastPos = pos
	t.haveLast = true

	tempo, err := t.tmap.TempoAtSample(pos)
	if err != nil {
		return Snapshot{}, err
	}
	meter, err := t.tmap.MeterAtSample(pos)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Sample:  pos,
		Beats:   t.lastB,
		BBT:     t.lastBBT,
		Tempo:   tempo,
		Meter:   meter,
		Rolling: t.rolling,
	}, nil
}

// IsDownBeat reports whether the snapshot sits on the first beat of a bar.
func (s Snapshot) IsDownBeat() bool {
	return s.BBT.Beats == 1 && s.BBT.Ticks == 0
}

// Marker renders the snapshot position as "bar|beat|tick".
func (s Snapshot) Marker() string {
	return s.BBT.String()
}
