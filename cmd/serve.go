package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robmorgan/pulse/tempomap"
	"github.com/robmorgan/pulse/timeline"
)

var serveAddr string

var errMissingPosition = errors.New("one of samples, beats or bbt is required")

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tempo map conversions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMap()
		if err != nil {
			return err
		}
		return serve(m)
	},
}

type positionResponse struct {
	Samples int64  `json:"samples"`
	Beats   string `json:"beats"`
	BBT     string `json:"bbt"`
	Tempo   float64 `json:"tempo"`
	Meter   string `json:"meter"`
}

type pointResponse struct {
	Flags   string `json:"flags"`
	Samples int64  `json:"samples"`
	Beats   string `json:"beats"`
	BBT     string `json:"bbt"`
	Tempo   float64 `json:"tempo"`
	Meter   string `json:"meter"`
}

type setTempoRequest struct {
	QPM    float64 `json:"qpm"`
	EndQPM float64 `json:"end_qpm,omitempty"`
	BBT    string  `json:"bbt"`
}

type setMeterRequest struct {
	DivisionsPerBar int    `json:"divisions_per_bar"`
	NoteValue       int    `json:"note_value"`
	BBT             string `json:"bbt"`
}

type errorResponse struct {
	Error string `json:"detail"`
}

func writeErr(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func positionOf(m *tempomap.Map, samples int64) (positionResponse, error) {
	b, err := m.QuarterNoteAtSample(samples)
	if err != nil {
		return positionResponse{}, err
	}
	bbt, err := m.BBTAtSample(samples)
	if err != nil {
		return positionResponse{}, err
	}
	t, err := m.TempoAtSample(samples)
	if err != nil {
		return positionResponse{}, err
	}
	mt, err := m.MeterAtSample(samples)
	if err != nil {
		return positionResponse{}, err
	}
	return positionResponse{
		Samples: samples,
		Beats:   b.String(),
		BBT:     bbt.String(),
		Tempo:   t.QuarterNotesPerMinute(),
		Meter:   strconv.Itoa(mt.DivisionsPerBar()) + "/" + strconv.Itoa(mt.NoteValue()),
	}, nil
}

func serve(m *tempomap.Map) error {
	log := cfg.Logger

	sub := m.Subscribe(func(start, end int64) {
		log.WithFields(logrus.Fields{"start": start, "end": end}).Debug("map changed")
	})
	defer m.Unsubscribe(sub)

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/map", func(w http.ResponseWriter, r *http.Request) {
		pts := m.GetPoints()
		out := make([]pointResponse, 0, len(pts))
		for i := range pts {
			p := &pts[i]
			out = append(out, pointResponse{
				Flags:   p.Flags().String(),
				Samples: p.Sample(),
				Beats:   p.Quarters().String(),
				BBT:     p.BBT().String(),
				Tempo:   p.Tempo().QuarterNotesPerMinute(),
				Meter: strconv.Itoa(p.Meter().DivisionsPerBar()) + "/" +
					strconv.Itoa(p.Meter().NoteValue()),
			})
		}
		json.NewEncoder(w).Encode(out)
	}).Methods("GET")

	router.HandleFunc("/convert", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var samples int64
		var err error
		switch {
		case q.Get("samples") != "":
			samples, err = strconv.ParseInt(q.Get("samples"), 10, 64)
		case q.Get("beats") != "":
			var b timeline.Beats
			if b, err = timeline.ParseBeats(q.Get("beats")); err == nil {
				samples, err = m.SampleAtBeats(b)
			}
		case q.Get("bbt") != "":
			var bbt timeline.BBT
			if bbt, err = timeline.ParseBBT(q.Get("bbt")); err == nil {
				samples, err = m.SampleAtBBT(bbt)
			}
		default:
			writeErr(w, http.StatusBadRequest, errMissingPosition)
			return
		}
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		resp, err := positionOf(m, samples)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		json.NewEncoder(w).Encode(resp)
	}).Methods("GET")

	router.HandleFunc("/tempo", func(w http.ResponseWriter, r *http.Request) {
		var req setTempoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		bbt, err := timeline.ParseBBT(req.BBT)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		t := tempomap.NewTempo(req.QPM, 4)
		if req.EndQPM != 0 {
			t = tempomap.NewRampedTempo(req.QPM, req.EndQPM, 4)
		}
		if _, err := m.SetTempoAtBBT(t, bbt); err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		if err := saveMap(m); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")

	router.HandleFunc("/meter", func(w http.ResponseWriter, r *http.Request) {
		var req setMeterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		bbt, err := timeline.ParseBBT(req.BBT)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if _, err := m.SetMeterAtBBT(tempomap.NewMeter(req.DivisionsPerBar, req.NoteValue), bbt); err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		if err := saveMap(m); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")

	router.HandleFunc("/grid", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("start"), 10, 64)
		end, err := strconv.ParseInt(q.Get("end"), 10, 64)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		res := timeline.NewBeats(1, 0)
		if q.Get("resolution") != "" {
			if res, err = timeline.ParseBeats(q.Get("resolution")); err != nil {
				writeErr(w, http.StatusBadRequest, err)
				return
			}
		}
		grid, err := m.GetGrid(start, end, res)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out := make([]positionResponse, 0, len(grid))
		for _, p := range grid {
			out = append(out, positionResponse{
				Samples: timeline.SuperclockToSamples(p.Sclock(), cfg.SampleRate),
				Beats:   p.Quarters().String(),
				BBT:     p.BBT().String(),
				Tempo:   p.Tempo().QuarterNotesPerMinute(),
			})
		}
		json.NewEncoder(w).Encode(out)
	}).Methods("GET")

	handler := cors.Default().Handler(router)
	log.WithFields(logrus.Fields{"addr": serveAddr}).Info("serving tempo map")
	return http.ListenAndServe(serveAddr, handler)
}
