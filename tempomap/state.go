package tempomap

import (
	"encoding/xml"
	"fmt"

	"github.com/gruntwork-io/go-commons/errors"

	"github.com/robmorgan/pulse/timeline"
)

// CurrentStateVersion tags the persisted XML schema.
const CurrentStateVersion = 1

/* Persisted state. The sample rate is deliberately absent: the host supplies
 * it, and superclocks are sample-rate independent.
 */

type tempoState struct {
	XMLName                   xml.Name `xml:"Tempo"`
	SuperclocksPerNoteType    int64    `xml:"superclocks-per-note-type,attr"`
	EndSuperclocksPerNoteType int64    `xml:"end-superclocks-per-note-type,attr"`
	NoteType                  int      `xml:"note-type,attr"`
	Active                    bool     `xml:"active,attr"`
	LockedToMeter             bool     `xml:"locked-to-meter,attr"`
	Clamped                   bool     `xml:"clamped,attr"`
	Type                      string   `xml:"type,attr"`
}

type meterState struct {
	XMLName         xml.Name `xml:"Meter"`
	NoteValue       int      `xml:"note-value,attr"`
	DivisionsPerBar int      `xml:"divisions-per-bar,attr"`
}

type pointState struct {
	XMLName  xml.Name    `xml:"TempoMapPoint"`
	Flags    uint32      `xml:"flags,attr"`
	Sclock   int64       `xml:"sclock,attr"`
	Quarters string      `xml:"quarters,attr"`
	BBT      string      `xml:"bbt,attr"`
	Tempo    *tempoState `xml:"Tempo"`
	Meter    *meterState `xml:"Meter"`
}

type mapState struct {
	XMLName xml.Name     `xml:"TempoMap"`
	Version int          `xml:"version,attr"`
	Points  []pointState `xml:"TempoMapPoint"`
}

func tempoToState(t Tempo) *tempoState {
	return &tempoState{
		SuperclocksPerNoteType:    int64(t.superclocksPerNoteType),
		EndSuperclocksPerNoteType: int64(t.endSuperclocksPerNoteType),
		NoteType:                  t.noteType,
		Active:                    t.active,
		LockedToMeter:             t.lockedToMeter,
		Clamped:                   t.clamped,
		Type:                      t.typ.String(),
	}
}

func tempoFromState(s *tempoState) (Tempo, error) {
	if s.SuperclocksPerNoteType <= 0 || s.EndSuperclocksPerNoteType <= 0 {
		return Tempo{}, fmt.Errorf("tempo superclock values must be positive")
	}
	switch s.NoteType {
	case 1, 2, 4, 8, 16, 32:
	default:
		return Tempo{}, fmt.Errorf("bad tempo note type %d", s.NoteType)
	}
	typ := Constant
	switch s.Type {
	case "Constant":
	case "Ramped":
		typ = Ramped
	default:
		return Tempo{}, fmt.Errorf("bad tempo type %q", s.Type)
	}
	if (typ == Ramped) != (s.SuperclocksPerNoteType != s.EndSuperclocksPerNoteType) {
		return Tempo{}, fmt.Errorf("tempo type %q inconsistent with endpoints", s.Type)
	}
	return Tempo{
		superclocksPerNoteType:    timeline.Superclock(s.SuperclocksPerNoteType),
		endSuperclocksPerNoteType: timeline.Superclock(s.EndSuperclocksPerNoteType),
		noteType:                  s.NoteType,
		active:                    s.Active,
		lockedToMeter:             s.LockedToMeter,
		clamped:                   s.Clamped,
		typ:                       typ,
	}, nil
}

func meterToState(m Meter) *meterState {
	return &meterState{NoteValue: m.noteValue, DivisionsPerBar: m.divisionsPerBar}
}

func meterFromState(s *meterState) (Meter, error) {
	if s.DivisionsPerBar < 1 {
		return Meter{}, fmt.Errorf("meter divisions per bar must be >= 1")
	}
	switch s.NoteValue {
	case 1, 2, 4, 8, 16:
	default:
		return Meter{}, fmt.Errorf("bad meter note value %d", s.NoteValue)
	}
	return Meter{divisionsPerBar: s.DivisionsPerBar, noteValue: s.NoteValue}, nil
}

// GetState serializes the explicit points.
func (m *Map) GetState() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := mapState{Version: CurrentStateVersion}
	for _, p := range m.points {
		if !p.IsExplicit() {
			continue
		}
		ps := pointState{
			Flags:    uint32(p.flags),
			Sclock:   int64(p.sclock),
			Quarters: p.quarters.String(),
			BBT:      p.bbt.String(),
			Tempo:    tempoToState(p.metric.Tempo),
			Meter:    meterToState(p.metric.Meter),
		}
		st.Points = append(st.Points, ps)
	}
	out, err := xml.MarshalIndent(&st, "", "  ")
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return out, nil
}

// SetState replaces the map's contents from serialized state. On any
// failure the map is left exactly as it was.
func (m *Map) SetState(data []byte, version int) error {
	var st mapState
	if err := xml.Unmarshal(data, &st); err != nil {
		return errors.WithStackTrace(err)
	}
	if version > CurrentStateVersion || st.Version > CurrentStateVersion {
		return fmt.Errorf("tempo map state version %d not supported", st.Version)
	}
	if len(st.Points) == 0 {
		return fmt.Errorf("tempo map state has no points")
	}

	// validate into a fresh point list before touching the live one
	pts := make([]*Point, 0, len(st.Points))
	var prevSC timeline.Superclock = -1
	for i, ps := range st.Points {
		flags := PointFlag(ps.Flags)
		if flags == 0 || flags&^(ExplicitTempo|ExplicitMeter|ExplicitPosition) != 0 {
			return fmt.Errorf("point %d: bad flags %#x", i, ps.Flags)
		}
		if ps.Tempo == nil || ps.Meter == nil {
			return fmt.Errorf("point %d: explicit point lacks embedded tempo/meter", i)
		}
		t, err := tempoFromState(ps.Tempo)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		mt, err := meterFromState(ps.Meter)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		q, err := timeline.ParseBeats(ps.Quarters)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		bbt, err := timeline.ParseBBT(ps.BBT)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		sc := timeline.Superclock(ps.Sclock)
		if sc <= prevSC {
			return fmt.Errorf("point %d: superclock order violated", i)
		}
		if i == 0 && sc != 0 {
			return fmt.Errorf("first point must anchor at superclock 0")
		}
		prevSC = sc
		pts = append(pts, newExplicitPoint(m, flags, t, mt, sc, q, bbt))
	}

	m.mu.Lock()
	m.points = pts
	m.rebuild(-1)
	m.mu.Unlock()
	m.emitChanged(0, maxSample)
	return nil
}
