package main

import (
	"github.com/spf13/cobra"

	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/usecase"
)

var (
	fetchWindow windowFlags
	fetchTable  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download lines into a stored table",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	fetchWindow.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchTable, "table", "", "table name (default: derived from the window)")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	info, err := a.UseCase.Fetch(cmd.Context(), usecase.FetchRequest{
		MoleculeID:     fetchWindow.molecule,
		IsotopologueID: fetchWindow.isotopologue,
		NuMin:          fetchWindow.numin,
		NuMax:          fetchWindow.numax,
		Table:          fetchTable,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(w, info)
	}
	formatTablesText(w, []store.TableInfo{*info})
	return nil
}
