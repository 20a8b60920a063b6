package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/logging"
)

type certificateRow struct {
	Issuer   string `header:"ISSUER"`
	KeyID    string `header:"KID"`
	Country  string `header:"COUNTRY"`
	Subject  string `header:"SUBJECT"`
	NotAfter string `header:"NOT AFTER"`
	Expired  string `header:"EXPIRED"`
}

func newListCmd(cli *CLI, opts *rootOptions) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "list [ISSUER...]",
		Short: "List the cached certificates of issuers",
		Long: `List the certificates of the named issuers, or of every configured issuer.
The snapshot is used when one exists, otherwise the issuer is fetched. Issuers
that could not be loaded are reported after the table, and the command fails.
With --server the lists published by a running server are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				return listRemote(cmd.Context(), cli, serverURL, args)
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

			now := time.Now()
			var (
				rows []certificateRow
				errs error
			)
			for _, e := range issuers {
				if err := e.Initialize(cmd.Context()); err != nil {
					logging.S.Warnf("loading %s: %v", e.Issuer(), err)
					errs = multierr.Append(errs, err)
				}
				rows = append(rows, certificateRows(e, now)...)
			}
			printCertificates(cli, rows)
			return errs
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "URL of a running trustlist server")
	return cmd
}

func certificateRows(e *certcache.Engine, now time.Time) []certificateRow {
	certs := e.Certificates()
	rows := make([]certificateRow, 0, len(certs))
	for _, cert := range certs {
		rows = append(rows, certificateRow{
			Issuer:   e.Issuer(),
			KeyID:    cert.KeyID,
			Country:  cert.Country,
			Subject:  cert.Subject(),
			NotAfter: api.Time(cert.NotAfter()).String(),
			Expired:  strconv.FormatBool(cert.Expired(now)),
		})
	}
	return rows
}

func listRemote(ctx context.Context, cli *CLI, serverURL string, names []string) error {
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

	var rows []certificateRow
	for _, name := range names {
		certs, err := client.ListCertificates(ctx, name)
		if err != nil {
			return err
		}
		for _, cert := range certs {
			rows = append(rows, certificateRow{
				Issuer:   name,
				KeyID:    cert.KeyID,
				Country:  cert.Country,
				Subject:  cert.Subject,
				NotAfter: cert.NotAfter.String(),
				Expired:  strconv.FormatBool(cert.Expired),
			})
		}
	}
	printCertificates(cli, rows)
	return nil
}

func printCertificates(cli *CLI, rows []certificateRow) {
	if len(rows) == 0 {
		cli.Output("No certificates found")
		return
	}
	cli.Table(rows)
}
