package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/noah-isme/fleet-ops-api/internal/app"
	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func newExpiryCmd() *cobra.Command {
	var (
		window string
		kind   string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Print or export certificates in an expiry window",
		Example: `  fleetctl expiry --window 14-days
  fleetctl expiry --window expired --format pdf --out expired.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := models.ExpiryWindow(strings.ToLower(window))
			if !w.Valid() {
				return fmt.Errorf("window must be one of expired, 14-days, 30-days")
			}
			return withContainer(func(c *app.Container) error {
				ctx := cmd.Context()
				if strings.EqualFold(format, "table") {
					rows, err := c.Services.Expiry.Window(ctx, w, models.SubjectKind(strings.ToUpper(kind)))
					if err != nil {
						return err
					}
					return writeOutput(out, cmd.OutOrStdout(), func(dst io.Writer) error {
						_, err := fmt.Fprintln(dst, renderExpiryTable(rows))
						return err
					})
				}
				file, err := c.Services.Expiry.Export(ctx, w, format)
				if err != nil {
					return err
				}
				if out == "" {
					out = file.FileName
				}
				if err := os.WriteFile(out, file.Body, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(file.Body))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", string(models.Window30Days), "expired, 14-days or 30-days")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "restrict to DRIVER, ASSISTANT or VEHICLE")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "table, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout for table, generated name otherwise)")
	return cmd
}

func renderExpiryTable(rows []models.ExpiringCertificate) string {
	if len(rows) == 0 {
		return "no certificates in this window"
	}
	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		body = append(body, []string{
			string(r.SubjectKind),
			r.SubjectName,
			r.CertificateType,
			r.ExpiryDate.Format("2006-01-02"),
			strconv.Itoa(r.DaysRemaining),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "NAME", "CERTIFICATE", "EXPIRY", "DAYS").
		Rows(body...).
		String()
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
