package cmd

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/robmorgan/pulse/mode"
	"github.com/robmorgan/pulse/timeline"
)

var (
	curveBars  int32
	curveWidth int
)

func init() {
	curveCmd.Flags().Int32Var(&curveBars, "bars", 16, "number of bars to render")
	curveCmd.Flags().IntVar(&curveWidth, "width", 72, "columns")
	rootCmd.AddCommand(curveCmd)
}

// curve renders the tempo over a bar range as a colored strip, blue for the
// slowest tempo in range through red for the fastest.
var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Render the tempo curve as a colored terminal strip",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMap()
		if err != nil {
			return err
		}

		end, err := m.SampleAtBBT(timeline.NewBBT(curveBars+1, 1, 0))
		if err != nil {
			return err
		}

		qpm := make([]float64, curveWidth)
		lo, hi := 0.0, 0.0
		for i := 0; i < curveWidth; i++ {
			pos := end * int64(i) / int64(curveWidth)
			sppq, err := m.SamplesPerQuarterNoteAt(pos)
			if err != nil {
				return err
			}
			qpm[i] = 60.0 * float64(cfg.SampleRate) / float64(sppq)
			if i == 0 || qpm[i] < lo {
				lo = qpm[i]
			}
			if i == 0 || qpm[i] > hi {
				hi = qpm[i]
			}
		}

		slow := colorful.Hsv(240, 0.8, 0.9)
		fast := colorful.Hsv(0, 0.8, 0.9)
		unit := mode.ToUnitClamp(lo, hi)
		for i := 0; i < curveWidth; i++ {
			c := slow.BlendHcl(fast, unit(qpm[i])).Clamped()
			r, g, b := c.RGB255()
			fmt.Printf("\x1b[38;2;%d;%d;%dm█\x1b[0m", r, g, b)
		}
		fmt.Printf("\n%.1f..%.1f qpm over %d bars\n", lo, hi, curveBars)
		return nil
	},
}
