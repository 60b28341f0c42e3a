package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/subhanUmer/secureweb-engine/internal/engine"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

var (
	extConfigFile string
	extManifest   string
	extStatePath  string
)

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "Scan installed extensions for risk and changes",
	Long: `Run one extension scan pass against an exported extension manifest.
Profiles persist in the state database, so successive runs detect
permission grants, host expansions, and risk score jumps.`,
	RunE: runExtensions,
}

func init() {
	extensionsCmd.Flags().StringVar(&extConfigFile, "config", "", "Path to config YAML file")
	extensionsCmd.Flags().StringVar(&extManifest, "manifest", "", "Path to exported extension manifest JSON (required)")
	extensionsCmd.Flags().StringVar(&extStatePath, "state", "", "Path to SQLite state database (empty keeps profiles in memory)")
	extensionsCmd.MarkFlagRequired("manifest")
}

func runExtensions(cmd *cobra.Command, args []string) error {
	configFile = extConfigFile
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	var st store.Store
	if extStatePath != "" {
		st, err = store.OpenSQLite(extStatePath)
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
	} else {
		st = store.NewMemory()
	}
	defer st.Close()

	eng := engine.New(engine.Options{
		Config:     cfg,
		Log:        logger,
		Store:      st,
		Enumerator: &extscan.FileEnumerator{Path: extManifest},
	})

	anomalies, err := eng.ScanExtensions(cmd.Context())
	if err != nil {
		return fmt.Errorf("scanning extensions: %w", err)
	}

	out, _ := json.MarshalIndent(anomalies, "", "  ")
	fmt.Fprintf(os.Stdout, "%s\n", out)

	if len(anomalies) == 0 {
		fmt.Fprintln(os.Stderr, "\n  No anomalies detected.")
		return nil
	}

	fmt.Fprintf(os.Stderr, "\n  %d anomaly(ies) detected:\n", len(anomalies))
	for _, a := range anomalies {
		fmt.Fprintf(os.Stderr, "  - %s  severity=%s  recommendation=%s\n",
			a.Target, a.Severity, a.Recommendation)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}
