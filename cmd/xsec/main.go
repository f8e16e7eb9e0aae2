// Command xsec queries HITRAN cross sections and manages local line tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.ngs.io/xsec-api/internal/app"
	"go.ngs.io/xsec-api/internal/config"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/logging"
)

var (
	flagFormat  string
	flagEnvFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "xsec",
	Short:         "HITRAN absorption cross sections",
	Long:          "xsec fetches HITRAN line lists into local tables, computes Lorentz absorption coefficients and interpolates cross sections.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env", ".env", "optional .env file with configuration")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(compareCmd)
}

func validateFormat(f string) error {
	switch f {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be json or text", f)
	}
}

// openApp loads configuration from the environment and wires the pipeline.
func openApp() (*app.App, error) {
	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	return app.New(cfg)
}

// closeApp releases the line store and logs any failure.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logging.Error("Failed to close line store", "error", err)
	}
}

// windowFlags selects lines of one isotopologue over a wavenumber window.
type windowFlags struct {
	molecule     int
	isotopologue int
	numin        float64
	numax        float64
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&w.molecule, "molecule", "m", 0, "HITRAN molecule id (e.g. 5 for CO)")
	cmd.Flags().IntVarP(&w.isotopologue, "iso", "i", 1, "local isotopologue id")
	cmd.Flags().Float64Var(&w.numin, "numin", 0, "lower wavenumber bound in cm-1")
	cmd.Flags().Float64Var(&w.numax, "numax", 0, "upper wavenumber bound in cm-1")
	_ = cmd.MarkFlagRequired("molecule")
	_ = cmd.MarkFlagRequired("numin")
	_ = cmd.MarkFlagRequired("numax")
}

// environmentFlags holds the gas state.
type environmentFlags struct {
	temperature float64
	pressure    float64
}

func (e *environmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&e.temperature, "temperature", "T", domain.TRef, "temperature in K")
	cmd.Flags().Float64VarP(&e.pressure, "pressure", "p", domain.PRef, "pressure in atm")
}
