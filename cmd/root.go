package cmd

import "github.com/spf13/cobra"

// Version is set at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "secureweb",
	Short: "SecureWeb — client-side threat detection engine",
	Long: `SecureWeb is a browsing protection engine. It scores URLs with
layered heuristics, blocks malicious script patterns before they
execute, learns per-site behavior baselines to catch compromised
pages, and watches installed extensions for permission escalation.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(extensionsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("secureweb v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
