package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/subhanUmer/secureweb-engine/internal/audit"
	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/config"
	"github.com/subhanUmer/secureweb-engine/internal/dashboard"
	"github.com/subhanUmer/secureweb-engine/internal/engine"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/metrics"
	"github.com/subhanUmer/secureweb-engine/internal/server"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

var (
	configFile   string
	listenAddr   string
	auditFile    string
	statePath    string
	manifestPath string
	noDashboard  bool
	withChrome   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the detection engine and its HTTP API",
	Long:  "Start the HTTP server exposing URL analysis, script inspection, behavior reporting, extension scanning, and the real-time dashboard.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configFile, "config", "", "Path to config YAML file (default: built-in defaults)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&auditFile, "audit-log", "", "Path to audit log file (overrides config)")
	serveCmd.Flags().StringVar(&statePath, "state", "", "Path to SQLite state database (overrides config; empty keeps state in memory)")
	serveCmd.Flags().StringVar(&manifestPath, "extensions-manifest", "", "Path to exported extension manifest JSON to watch")
	serveCmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "Disable the real-time dashboard")
	serveCmd.Flags().BoolVar(&withChrome, "with-chrome", false, "Collect page behavior through a headless Chrome session")
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("component", "secureweb").Logger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if auditFile != "" {
		cfg.Audit.Path = auditFile
	}
	if statePath != "" {
		cfg.Store.Path = statePath
	}
	if noDashboard {
		cfg.Server.Dashboard = false
	}

	logger.Info().
		Bool("enabled", cfg.Enabled).
		Str("url_sensitivity", cfg.URL.Sensitivity).
		Str("script_mode", cfg.Scripts.Mode).
		Msg("config loaded")

	var st store.Store
	if cfg.Store.Path != "" {
		st, err = store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		logger.Info().Str("path", cfg.Store.Path).Msg("persistent state enabled")
	} else {
		st = store.NewMemory()
	}
	defer st.Close()

	var auditLogger *audit.Logger
	if cfg.Audit.Path != "" {
		auditLogger, err = audit.NewFileLogger(cfg.Audit.Path)
		if err != nil {
			return fmt.Errorf("creating audit logger: %w", err)
		}
		logger.Info().Str("path", cfg.Audit.Path).Msg("audit log enabled")
	} else {
		auditLogger = audit.NewStderrLogger()
	}

	var collector collect.Collector
	if withChrome {
		collector = collect.NewChromeCollector(logger, 30*time.Second)
	}

	var enumerator extscan.Enumerator
	if manifestPath != "" {
		enumerator = &extscan.FileEnumerator{Path: manifestPath}
	}

	eng := engine.New(engine.Options{
		Config:     cfg,
		Log:        logger,
		Store:      st,
		Audit:      auditLogger,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		Collector:  collector,
		Enumerator: enumerator,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *dashboard.Hub
	if cfg.Server.Dashboard {
		hub = dashboard.NewHub(cfg)
		eng.AddObserver(func(ev engine.Event) {
			hub.OnEvent(dashboard.EngineEvent{
				Kind:      ev.Kind,
				Target:    ev.Target,
				Verdict:   ev.Verdict,
				Severity:  ev.Severity,
				Score:     ev.Score,
				Blocked:   ev.Blocked,
				Detail:    ev.Detail,
				Timestamp: ev.Timestamp,
			})
		})
		dashboard.Run(ctx, hub)
	}

	eng.StartSweep(ctx)

	srv := server.New(eng, hub, logger)
	httpSrv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info().Str("listen", cfg.Server.ListenAddr).Msg("starting secureweb engine")

	fmt.Fprintf(os.Stderr, "\n  SecureWeb v%s\n", Version)
	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", cfg.Server.ListenAddr)
	if cfg.Server.Dashboard {
		dashAddr := cfg.Server.ListenAddr
		if strings.HasPrefix(dashAddr, ":") {
			dashAddr = "localhost" + dashAddr
		}
		fmt.Fprintf(os.Stderr, "  Dashboard: http://%s/_secureweb/\n", dashAddr)
	}
	fmt.Fprintln(os.Stderr)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
