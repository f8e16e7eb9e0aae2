package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List stored line tables",
	Args:  cobra.NoArgs,
	RunE:  runTablesList,
}

var tablesDropCmd = &cobra.Command{
	Use:   "drop <name>...",
	Short: "Remove stored line tables",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTablesDrop,
}

func init() {
	tablesCmd.AddCommand(tablesDropCmd)
}

func runTablesList(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	tables, err := a.UseCase.ListTables(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(w, tables)
	}
	formatTablesText(w, tables)
	return nil
}

func runTablesDrop(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	for _, name := range args {
		if err := a.UseCase.DropTable(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Dropped table: %s\n", name)
	}
	return nil
}
