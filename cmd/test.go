package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subhanUmer/secureweb-engine/internal/urlscan"
)

var testConfigFile string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run built-in detection scenarios",
	Long:  "Run a suite of malicious and benign URLs and scripts through the engine to verify detection behavior.",
	RunE:  runTest,
}

func init() {
	testCmd.Flags().StringVar(&testConfigFile, "config", "", "Path to config YAML file")
}

type urlCase struct {
	name    string
	url     string
	flagged bool
}

type scriptCase struct {
	name    string
	code    string
	blocked bool
}

var urlCases = []urlCase{
	// Should be flagged
	{
		name:    "raw_ip_login_path",
		url:     "http://203.0.113.7/login/verify",
		flagged: true,
	},
	{
		name:    "phishing_host_stack",
		url:     "https://secure-login-verify.account-update.xyz/signin",
		flagged: true,
	},
	{
		name:    "shortener",
		url:     "http://bit.ly/3xYzAb",
		flagged: true,
	},
	{
		name:    "credential_harvest_query",
		url:     "http://update-billing.info/confirm?password=1&account=2",
		flagged: true,
	},

	// Should pass
	{
		name:    "benign_wikipedia",
		url:     "https://en.wikipedia.org/wiki/Phishing",
		flagged: false,
	},
	{
		name:    "benign_github",
		url:     "https://github.com/golang/go",
		flagged: false,
	},
	{
		name:    "benign_docs",
		url:     "https://pkg.go.dev/net/http",
		flagged: false,
	},
}

var scriptCases = []scriptCase{
	{
		name:    "coinhive_miner",
		code:    `var miner = new CoinHive.Anonymous('SITE_KEY'); miner.start();`,
		blocked: true,
	},
	{
		name:    "benign_dom_update",
		code:    `const el = document.getElementById("price"); el.textContent = total.toFixed(2);`,
		blocked: false,
	},
}

func runTest(cmd *cobra.Command, args []string) error {
	eng, err := newOneShotEngine(testConfigFile, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n=== SecureWeb Detection Scenarios ===\n\n")

	passed := 0
	failed := 0

	for _, tc := range urlCases {
		result := eng.AnalyzeURL(cmd.Context(), tc.url)
		actual := result.Verdict != urlscan.VerdictSafe

		status := "PASS"
		if actual != tc.flagged {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Fprintf(os.Stderr, "  [%s] url    %-28s want flagged=%-5v got verdict=%s\n",
			status, tc.name, tc.flagged, result.Verdict)
	}

	for _, tc := range scriptCases {
		result := eng.AnalyzeScript(tc.code, "")

		status := "PASS"
		if result.ShouldBlock != tc.blocked {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Fprintf(os.Stderr, "  [%s] script %-28s want blocked=%-5v got blocked=%v\n",
			status, tc.name, tc.blocked, result.ShouldBlock)
	}

	fmt.Fprintf(os.Stderr, "\n  Results: %d passed, %d failed, %d total\n\n",
		passed, failed, passed+failed)

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}
