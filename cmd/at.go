package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robmorgan/pulse/timeline"
)

var atDomain string

func init() {
	atCmd.Flags().StringVar(&atDomain, "from", "samples",
		"domain of the position: samples, beats or bbt")
	rootCmd.AddCommand(atCmd)
}

var atCmd = &cobra.Command{
	Use:   "at <position>",
	Short: "Convert one position between time domains",
	Long: `Convert a position to all three time domains.
Positions read as samples (integer), beats ("beats:ticks") or bbt
("bar|beat|tick") depending on --from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMap()
		if err != nil {
			return err
		}

		var samples int64
		switch atDomain {
		case "samples":
			samples, err = strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
		case "beats":
			b, err := timeline.ParseBeats(args[0])
			if err != nil {
				return err
			}
			samples, err = m.SampleAtBeats(b)
			if err != nil {
				return err
			}
		case "bbt":
			bbt, err := timeline.ParseBBT(args[0])
			if err != nil {
				return err
			}
			samples, err = m.SampleAtBBT(bbt)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown domain %q", atDomain)
		}

		b, err := m.QuarterNoteAtSample(samples)
		if err != nil {
			return err
		}
		bbt, err := m.BBTAtSample(samples)
		if err != nil {
			return err
		}
		tempo, err := m.TempoAtSample(samples)
		if err != nil {
			return err
		}
		meter, err := m.MeterAtSample(samples)
		if err != nil {
			return err
		}

		fmt.Printf("samples: %d\n", samples)
		fmt.Printf("beats:   %s\n", b)
		fmt.Printf("bbt:     %s\n", bbt)
		fmt.Printf("tempo:   %.3f (note type %d)\n", tempo.NoteTypesPerMinute(), tempo.NoteType())
		fmt.Printf("meter:   %d/%d\n", meter.DivisionsPerBar(), meter.NoteValue())
		return nil
	},
}
