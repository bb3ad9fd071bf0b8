package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/export"
	"github.com/hiresignal/scout-cli/internal/model"
	"github.com/hiresignal/scout-cli/internal/store"
)

var (
	exportOut      string
	exportFormat   string
	exportMinScore float64
	exportSince    string
	exportStatus   string
	exportSourceF  string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored leads to an XLSX workbook or CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format := exportFormat
		if format == "" {
			if strings.EqualFold(filepath.Ext(exportOut), ".xlsx") {
				format = "xlsx"
			} else {
				format = "csv"
			}
		}
		if format != "csv" && format != "xlsx" {
			return eris.Errorf("export: --format must be csv or xlsx (got %q)", format)
		}

		filter := store.LeadFilter{
			Status:   model.LeadStatus(exportStatus),
			Source:   exportSourceF,
			MinScore: exportMinScore,
			Limit:    exportLimit,
		}
		if exportSince != "" {
			since, err := parseSince(exportSince)
			if err != nil {
				return err
			}
			filter.Since = &since
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "export: list leads")
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return eris.Wrap(err, "export: create output file")
		}

		switch format {
		case "csv":
			err = export.WriteCSV(f, leads)
		case "xlsx":
			err = export.WriteXLSX(f, leads)
		}
		if err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "export: close output file")
		}

		zap.L().Info("export complete",
			zap.String("file", exportOut),
			zap.String("format", format),
			zap.Int("leads", len(leads)),
		)
		fmt.Printf("Exported %d leads to %s\n", len(leads), exportOut)
		return nil
	},
}

// parseSince accepts a date (2024-07-01) or full RFC 3339 timestamp.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Errorf("export: --since must be YYYY-MM-DD or RFC 3339 (got %q)", s)
	}
	return t.UTC(), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format, csv or xlsx (default: from --out extension)")
	exportCmd.Flags().Float64Var(&exportMinScore, "min-score", 0, "only export leads at or above this score")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only export leads captured on or after this date")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by lead status (new, alerted, digested)")
	exportCmd.Flags().StringVar(&exportSourceF, "source", "", "filter by source name")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "cap exported rows (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
