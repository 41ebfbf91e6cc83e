package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.json>...",
	Short: "Check scenario files without running them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, filename := range args {
			s, err := LoadScenario(filename)
			if err != nil {
				return err
			}

			if err := s.Validate(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: ok (%d-bit slave, %d-bit master, %d transactions)\n",
				filename, s.Bridge.Slave.DataWidth, s.Bridge.Master.DataWidth,
				len(s.Script))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
