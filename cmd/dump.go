package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the tempo map's points",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMap()
		if err != nil {
			return err
		}
		m.Dump(os.Stdout)
		return nil
	},
}
