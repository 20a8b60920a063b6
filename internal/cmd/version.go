package cmd

import (
	"github.com/spf13/cobra"

	"github.com/infrahq/trustlist/internal"
)

func newVersionCmd(cli *CLI) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the trustlist version",
		Args:  cobra.NoArgs,
		// version must work without a valid environment
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				cli.Output(internal.FullVersion())
				return nil
			}
			cli.Table([]internal.BuildInfo{internal.GetBuildInfo()})
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show build details")
	return cmd
}
