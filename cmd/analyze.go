package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/engine"
)

var (
	analyzeConfigFile string
	analyzeDeep       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Analyze one or more URLs and show the verdict",
	Long: `Run the layered URL heuristics on the given URLs and display the
verdict, confidence, and triggered indicators. With --deep, each URL is
also loaded in a headless Chrome session and its observed behavior is
reported to the baseline detector.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigFile, "config", "", "Path to config YAML file")
	analyzeCmd.Flags().BoolVar(&analyzeDeep, "deep", false, "Load each URL in headless Chrome and report its behavior")
}

func newOneShotEngine(cfgPath string, collector collect.Collector) (*engine.Engine, error) {
	configFile = cfgPath
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)
	return engine.New(engine.Options{Config: cfg, Log: logger, Collector: collector}), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var collector collect.Collector
	if analyzeDeep {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		collector = collect.NewChromeCollector(logger, 30*time.Second)
	}
	eng, err := newOneShotEngine(analyzeConfigFile, collector)
	if err != nil {
		return err
	}

	flagged := 0
	for _, raw := range args {
		result := eng.AnalyzeURL(cmd.Context(), raw)

		fmt.Fprintf(os.Stderr, "\n=== %s ===\n\n", raw)
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintf(os.Stdout, "%s\n", out)

		fmt.Fprintf(os.Stderr, "\n  Verdict:    %s\n", result.Verdict)
		fmt.Fprintf(os.Stderr, "  Confidence: %.2f\n", result.Confidence)
		if result.Reason != "" {
			fmt.Fprintf(os.Stderr, "  Reason:     %s\n", result.Reason)
		}
		fmt.Fprintln(os.Stderr)

		if result.Verdict != "safe" {
			flagged++
		}

		if analyzeDeep {
			obs, anomaly, err := eng.CollectAndReport(cmd.Context(), raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  deep collection failed: %v\n\n", err)
				continue
			}
			if obs != nil {
				fmt.Fprintf(os.Stderr, "  Observed:   %d script(s), %d request(s)\n",
					len(obs.Scripts), len(obs.Requests))
			}
			if anomaly != nil {
				fmt.Fprintf(os.Stderr, "  Anomaly:    %s (%s)\n\n",
					anomaly.Severity, anomaly.Recommendation)
				flagged++
			} else {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	if flagged > 0 {
		return fmt.Errorf("%d of %d URL(s) flagged", flagged, len(args))
	}
	return nil
}
