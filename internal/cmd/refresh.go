package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/certcache"
)

type refreshRow struct {
	Issuer       string `header:"ISSUER"`
	Certificates int    `header:"CERTIFICATES"`
	Result       string `header:"RESULT"`
}

func newRefreshCmd(cli *CLI, opts *rootOptions) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "refresh [ISSUER...]",
		Short: "Fetch certificate lists now and replace the snapshots",
		Long: `Fetch the certificate lists of the named issuers, or of every configured
issuer, and replace their snapshots. With --server the running server is asked
to refresh, which also publishes the new lists.`,
		Example: `# refresh every issuer in the configuration file
trustlist refresh -f trustlist.yaml

# ask a running server to refresh one issuer
trustlist refresh --server http://localhost:8080 de`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				return refreshRemote(cmd.Context(), cli, serverURL, args)
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			st, err := cfg.NewStorage()
			if err != nil {
				return fmt.Errorf("creating storage: %w", err)
			}
			group, err := cfg.NewGroup(st)
			if err != nil {
				return err
			}
			defer group.Shutdown()

			issuers, err := selectIssuers(group, args)
			if err != nil {
				return err
			}

			var (
				rows []refreshRow
				errs error
			)
			for _, e := range issuers {
				row := refreshRow{Issuer: e.Issuer(), Result: "ok"}
				if err := e.Refresh(cmd.Context()); err != nil {
					row.Result = err.Error()
					errs = multierr.Append(errs, err)
				}
				row.Certificates = len(e.Certificates())
				rows = append(rows, row)
			}
			cli.Table(rows)
			return errs
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "URL of a running trustlist server")
	return cmd
}

func selectIssuers(group *certcache.Group, names []string) ([]*certcache.Engine, error) {
	if len(names) == 0 {
		names = group.Issuers()
	}

	engines := make([]*certcache.Engine, 0, len(names))
	for _, name := range names {
		e, err := group.Get(name)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return engines, nil
}

func newAPIClient(serverURL string) api.Client {
	return api.Client{
		URL:  serverURL,
		HTTP: http.Client{Timeout: 2 * time.Minute},
	}
}

func refreshRemote(ctx context.Context, cli *CLI, serverURL string, names []string) error {
	client := newAPIClient(serverURL)

	if len(names) == 0 {
		issuers, err := client.ListIssuers(ctx)
		if err != nil {
			return err
		}
		for _, issuer := range issuers {
			names = append(names, issuer.Name)
		}
	}

	var (
		rows []refreshRow
		errs error
	)
	for _, name := range names {
		row := refreshRow{Issuer: name, Result: "ok"}
		issuer, err := client.RefreshIssuer(ctx, name)
		switch {
		case err != nil:
			row.Result = err.Error()
			errs = multierr.Append(errs, err)
		default:
			row.Certificates = issuer.Certificates
		}
		rows = append(rows, row)
	}
	cli.Table(rows)
	return errs
}
