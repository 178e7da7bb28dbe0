package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/robmorgan/pulse/config"
	"github.com/robmorgan/pulse/tempomap"
)

var (
	cfg       config.PulseConfig
	cfgPath   string
	statePath string
	rate      int64
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Tempo map tooling",
	Long:  `Inspect, edit and serve a DAW tempo map.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			cfg, err = config.LoadPulseConfig(cfgPath)
		} else {
			cfg, err = config.NewPulseConfig()
		}
		if err != nil {
			return err
		}
		if statePath != "" {
			cfg.StatePath = statePath
		}
		if rate != 0 {
			cfg.SampleRate = rate
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "yaml config file")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "tempo map state file (XML)")
	rootCmd.PersistentFlags().Int64Var(&rate, "rate", 0, "sample rate override")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadMap reads the state file, or starts a fresh 120 bpm 4/4 map when the
// file doesn't exist yet.
func loadMap() (*tempomap.Map, error) {
	m := tempomap.New(tempomap.NewTempo(120, 4), tempomap.NewMeter(4, 4), cfg.SampleRate)
	data, err := os.ReadFile(cfg.StatePath)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := m.SetState(data, tempomap.CurrentStateVersion); err != nil {
		return nil, err
	}
	return m, nil
}

func saveMap(m *tempomap.Map) error {
	data, err := m.GetState()
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.StatePath, data, 0644)
}
