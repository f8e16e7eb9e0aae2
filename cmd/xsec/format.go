package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/usecase"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTablesText formats stored tables as aligned columns.
func formatTablesText(w io.Writer, tables []store.TableInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMOL\tISO\tNUMIN\tNUMAX\tLINES\tFETCHED")
	for _, t := range tables {
		fetched := "-"
		if !t.FetchedAt.IsZero() {
			fetched = t.FetchedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%g\t%g\t%d\t%s\n",
			t.Name, t.MoleculeID, t.IsotopologueID, t.NuMin, t.NuMax, t.NumLines, fetched)
	}
	tw.Flush()
}

// formatPeaksText prints a spectrum summary and its peaks.
func formatPeaksText(w io.Writer, resp *usecase.SpectrumResponse) {
	fmt.Fprintf(w, "Table: %s (%d lines, %d points, %s)\n", resp.Table, resp.NumLines, len(resp.Nu), resp.Units)
	if len(resp.Peaks) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NU\tCOEF")
	for _, p := range resp.Peaks {
		fmt.Fprintf(tw, "%.6f\t%.6e\n", p.Nu, p.Coef)
	}
	tw.Flush()
}
