package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/robmorgan/pulse/timeline"
)

var (
	clickOut  string
	clickBars int32
)

func init() {
	clickCmd.Flags().StringVarP(&clickOut, "out", "o", "click.mid", "output SMF path")
	clickCmd.Flags().Int32Var(&clickBars, "bars", 16, "number of bars to render")
	rootCmd.AddCommand(clickCmd)
}

// click renders a conductor track (tempo + meter meta events) and a click
// track (one note per beat, accented on downbeats) from the map's grid.
var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Write a Standard MIDI File click track from the tempo map",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMap()
		if err != nil {
			return err
		}

		end, err := m.SampleAtBBT(timeline.NewBBT(clickBars+1, 1, 0))
		if err != nil {
			return err
		}

		const ppq = 960
		s := smf.New()
		s.TimeFormat = smf.MetricTicks(ppq)

		// conductor track: one meta event per explicit tempo/meter point
		var conductor smf.Track
		conductor.Add(0, smf.MetaTrackSequenceName("conductor"))
		lastTick := int64(0)
		for _, p := range m.GetPoints() {
			tick := p.Quarters().TotalTicks() * ppq / int64(timeline.TicksPerBeat)
			delta := uint32(tick - lastTick)
			wrote := false
			if p.IsExplicitTempo() {
				conductor.Add(delta, smf.MetaTempo(p.Tempo().QuarterNotesPerMinute()))
				delta, wrote = 0, true
			}
			if p.IsExplicitMeter() {
				conductor.Add(delta, smf.MetaMeter(uint8(p.Meter().DivisionsPerBar()), uint8(p.Meter().NoteValue())))
				wrote = true
			}
			if wrote {
				lastTick = tick
			}
		}
		conductor.Close(0)
		s.Add(conductor)

		// click track from the beat grid
		grid, err := m.GetGrid(0, end, timeline.NewBeats(1, 0))
		if err != nil {
			return err
		}
		var click smf.Track
		click.Add(0, smf.MetaTrackSequenceName("click"))
		lastTick = 0
		for _, p := range grid {
			tick := p.Quarters().TotalTicks() * ppq / int64(timeline.TicksPerBeat)
			key := uint8(42)
			vel := uint8(90)
			if p.BBT().Beats == 1 && p.BBT().Ticks == 0 {
				key, vel = 49, 120 // downbeat accent
			}
			click.Add(uint32(tick-lastTick), midi.NoteOn(9, key, vel))
			click.Add(ppq/8, midi.NoteOff(9, key))
			lastTick = tick + ppq/8
		}
		click.Close(0)
		s.Add(click)

		if err := s.WriteFile(clickOut); err != nil {
			return err
		}
		cfg.Logger.WithFields(logrus.Fields{
			"out":  clickOut,
			"bars": clickBars,
		}).Info("click track written")
		return nil
	},
}
