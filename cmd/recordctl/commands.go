package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/records/internal/exchange"
	"github.com/JonMunkholm/records/internal/record"
)

func (a *app) exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record to a CSV or Excel file",
		Example: `  recordctl export --format csv
  recordctl export --format xlsx --out backup.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}

			export, err := a.service.Export(cmd.Context(), f)
			if err != nil {
				return userError(err)
			}

			path := out
			if path == "" {
				path = export.FileName
			}
			if err := os.WriteFile(path, export.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", export.Records, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: export name from config)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import FILE",
		Short:   "Import records from a CSV or Excel file",
		Long:    "The format is chosen from the file extension: .csv, .xlsx or .xls.",
		Example: "  recordctl import records.csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, err := a.service.Import(cmd.Context(), exchange.Upload{
				FileName: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				return userError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entities successfully (batch %s)\n", result.Imported, result.BatchID)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.repo.FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			for _, r := range recs {
				fmt.Fprintf(w, "%d\t%s\t%s\n", *r.ID, r.Name, summarize(r))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.repo.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func parseFormat(s string) (exchange.Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return exchange.FormatCSV, nil
	case "xlsx", "excel":
		return exchange.FormatWorkbook, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv or xlsx)", s)
	}
}

// userError adds the mapped user message to err for terminal output.
func userError(err error) error {
	if !exchange.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", exchange.FormatUserError(err), err)
}

// summarize renders attributes as name=value pairs.
func summarize(r record.Record) string {
	parts := make([]string, len(r.Attributes))
	for i, a := range r.Attributes {
		parts[i] = a.Name + "=" + a.Value
	}
	return strings.Join(parts, ", ")
}
