package cmd

import (
	"github.com/spf13/cobra"
)

type issuerRow struct {
	Name         string `header:"ISSUER"`
	Certificates int    `header:"CERTIFICATES"`
	LoadedFrom   string `header:"LOADED FROM"`
	LastSuccess  string `header:"LAST SUCCESS"`
	NextRefresh  string `header:"NEXT REFRESH"`
	LastError    string `header:"LAST ERROR"`
}

func newStatusCmd(cli *CLI) *cobra.Command {
	serverURL := "http://localhost:8080"

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the refresh status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(serverURL)
			issuers, err := client.ListIssuers(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]issuerRow, 0, len(issuers))
			for _, issuer := range issuers {
				loadedFrom := issuer.LoadedFrom
				if loadedFrom == "" {
					loadedFrom = "-"
				}
				rows = append(rows, issuerRow{
					Name:         issuer.Name,
					Certificates: issuer.Certificates,
					LoadedFrom:   loadedFrom,
					LastSuccess:  issuer.LastSuccess.String(),
					NextRefresh:  issuer.NextRefresh.String(),
					LastError:    issuer.LastError,
				})
			}
			if len(rows) == 0 {
				cli.Output("No issuers found")
				return nil
			}
			cli.Table(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", serverURL, "URL of a running trustlist server")
	return cmd
}
