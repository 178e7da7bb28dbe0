package cmd

import (
	"fmt"

	"github.com/fogleman/ease"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robmorgan/pulse/tempomap"
	"github.com/robmorgan/pulse/timeline"
)

func tempoFromQPM(qpm float64) tempomap.Tempo {
	return tempomap.NewTempo(qpm, 4)
}

var (
	tweenFrom  float64
	tweenTo    float64
	tweenBar   int32
	tweenBars  int32
	tweenSteps int
	tweenShape string
)

// easing shapes on offer for tempo transitions
var shapes = map[string]func(float64) float64{
	"linear":    ease.Linear,
	"inquad":    ease.InQuad,
	"outquad":   ease.OutQuad,
	"inoutquad": ease.InOutQuad,
	"incubic":   ease.InCubic,
	"outcubic":  ease.OutCubic,
	"inexpo":    ease.InExpo,
	"outexpo":   ease.OutExpo,
	"insine":    ease.InSine,
	"outsine":   ease.OutSine,
}

func init() {
	tweenCmd.Flags().Float64Var(&tweenFrom, "from", 120, "starting tempo (qpm)")
	tweenCmd.Flags().Float64Var(&tweenTo, "to", 90, "target tempo (qpm)")
	tweenCmd.Flags().Int32Var(&tweenBar, "bar", 1, "bar the transition starts at")
	tweenCmd.Flags().Int32Var(&tweenBars, "bars", 4, "length of the transition in bars")
	tweenCmd.Flags().IntVar(&tweenSteps, "steps", 8, "number of stepped tempo points")
	tweenCmd.Flags().StringVar(&tweenShape, "shape", "linear", "easing shape of the transition")
	rootCmd.AddCommand(tweenCmd)
}

// tween approximates an arbitrary tempo curve with stepped constant tempo
// points, one per step, following the chosen easing shape. The map's own
// ramps are exponential; this is for shapes the ramp can't express.
var tweenCmd = &cobra.Command{
	Use:   "tween",
	Short: "Approximate an eased tempo transition with stepped tempo points",
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, ok := shapes[tweenShape]
		if !ok {
			return fmt.Errorf("unknown easing shape %q", tweenShape)
		}
		if tweenSteps < 2 {
			return fmt.Errorf("need at least 2 steps")
		}

		m, err := loadMap()
		if err != nil {
			return err
		}

		// one point per step, spaced evenly in bars
		for i := 0; i < tweenSteps; i++ {
			t := float64(i) / float64(tweenSteps-1)
			qpm := tweenFrom + (tweenTo-tweenFrom)*shape(t)
			barPos := float64(tweenBar) + float64(tweenBars)*t
			bar := int32(barPos)
			beatFrac := barPos - float64(bar)

			mt, err := m.MeterAtBBT(timeline.NewBBT(bar, 1, 0))
			if err != nil {
				return err
			}
			beat := int32(beatFrac*float64(mt.DivisionsPerBar())) + 1
			bbt := timeline.NewBBT(bar, beat, 0)

			if _, err := m.SetTempoAtBBT(tempoFromQPM(qpm), bbt); err != nil {
				return fmt.Errorf("placing step %d at %s: %w", i, bbt, err)
			}
		}

		if err := saveMap(m); err != nil {
			return err
		}
		cfg.Logger.WithFields(logrus.Fields{
			"from": tweenFrom, "to": tweenTo,
			"steps": tweenSteps, "shape": tweenShape,
		}).Info("tempo transition written")
		return nil
	},
}
