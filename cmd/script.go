package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	scriptConfigFile string
	scriptSourceURL  string
)

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "Inspect a JavaScript file for malicious patterns",
	Long:  "Scan the given JavaScript file (or stdin when no file is given) against the pattern rules and display matches and the block decision.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&scriptConfigFile, "config", "", "Path to config YAML file")
	scriptCmd.Flags().StringVar(&scriptSourceURL, "source", "", "Source URL to attribute the script to")
}

func runScript(cmd *cobra.Command, args []string) error {
	var code []byte
	var err error
	if len(args) == 1 {
		code, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading script: %w", err)
		}
	} else {
		code, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	eng, err := newOneShotEngine(scriptConfigFile, nil)
	if err != nil {
		return err
	}

	result := eng.AnalyzeScript(string(code), scriptSourceURL)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintf(os.Stdout, "%s\n", out)

	fmt.Fprintf(os.Stderr, "\n  Suspicious: %v\n", result.Suspicious)
	fmt.Fprintf(os.Stderr, "  Block:      %v\n", result.ShouldBlock)
	for _, m := range result.Matched {
		fmt.Fprintf(os.Stderr, "  Matched:    %s (%s)\n", m.ID, m.Severity)
	}
	fmt.Fprintln(os.Stderr)

	if result.ShouldBlock {
		return fmt.Errorf("script would be blocked")
	}
	return nil
}
