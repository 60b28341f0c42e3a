// Package engine wires the detectors, the dispatcher, and their
// collaborators into the inspection flow the server and CLI drive.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/audit"
	"github.com/subhanUmer/secureweb-engine/internal/behavior"
	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/config"
	"github.com/subhanUmer/secureweb-engine/internal/dispatch"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/jsblock"
	"github.com/subhanUmer/secureweb-engine/internal/metrics"
	"github.com/subhanUmer/secureweb-engine/internal/mlscore"
	"github.com/subhanUmer/secureweb-engine/internal/notify"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
	"github.com/subhanUmer/secureweb-engine/internal/urlscan"
)

// EventObserver is a callback function that receives engine events.
type EventObserver func(event Event)

// Event represents a single detection event for observers.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "url", "script", "anomaly"
	Target    string    `json:"target"`
	Verdict   string    `json:"verdict,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Score     float64   `json:"score"`
	Blocked   bool      `json:"blocked"`
	Detail    string    `json:"detail,omitempty"`
}

// Options collects the engine's collaborators. Config, Store, Audit,
// Metrics, Collector, Classifier, Enumerator, Notifier, and Controller
// are all optional; missing ones degrade to in-memory or no-op behavior.
type Options struct {
	Config     *config.Config
	Log        zerolog.Logger
	Store      store.Store
	Audit      *audit.Logger
	Metrics    *metrics.Metrics
	Collector  collect.Collector
	Classifier mlscore.Classifier
	Enumerator extscan.Enumerator
	Notifier   notify.Notifier
	Controller dispatch.ExtensionController
}

// Engine runs the URL, script, behavior, and extension detectors and
// routes their anomalies through the dispatcher.
type Engine struct {
	cfg        *config.Config
	log        zerolog.Logger
	analyzer   *urlscan.Analyzer
	blocker    *jsblock.Blocker
	detector   *behavior.Detector
	scanner    *extscan.Scanner
	dispatcher *dispatch.Dispatcher
	collector  collect.Collector
	classifier mlscore.Classifier
	auditLog   *audit.Logger
	metrics    *metrics.Metrics

	observerMu sync.RWMutex
	observers  []EventObserver

	cacheMu    sync.Mutex
	lastHits   uint64
	lastMisses uint64
}

// New creates an Engine from its collaborators.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	auditLog := opts.Audit
	if auditLog == nil {
		auditLog = audit.NopLogger()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = mlscore.Noop{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(opts.Log)
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}

	analyzer := urlscan.New(urlscan.Options{
		Sensitivity:    urlscan.Sensitivity(cfg.URL.Sensitivity),
		BlockThreshold: cfg.URL.BlockThreshold,
		CacheSize:      cfg.URL.CacheSize,
		CacheTTL:       cfg.URL.CacheTTL.Std(),
		AllowedDomains: cfg.URL.AllowDomains,
	})

	blocker := jsblock.New(jsblock.Mode(cfg.Scripts.Mode), cfg.Scripts.AllowedSources)
	blocker.SetEnabled(cfg.Enabled && cfg.Scripts.Enabled)

	detector := behavior.NewDetector(behavior.Params{
		LearnVisits: cfg.Behavior.LearnVisits,
		Alpha:       cfg.Behavior.EMAAlpha,
		StdDevFloor: cfg.Behavior.StdDevFloor,
		ZScoreCap:   cfg.Behavior.ZScoreCap,
		ZThreshold:  cfg.Behavior.ZScoreThreshold,
	}, st, opts.Log)

	var scanner *extscan.Scanner
	if opts.Enumerator != nil {
		scanner = extscan.NewScanner(opts.Enumerator, st, opts.Log)
		scanner.RiskDelta = cfg.Extensions.RiskDelta
	}

	return &Engine{
		cfg:        cfg,
		log:        opts.Log,
		analyzer:   analyzer,
		blocker:    blocker,
		detector:   detector,
		scanner:    scanner,
		dispatcher: dispatch.New(opts.Log, notifier, opts.Controller, st),
		collector:  opts.Collector,
		classifier: classifier,
		auditLog:   auditLog,
		metrics:    opts.Metrics,
	}
}

// AddObserver registers a callback for detection events.
func (e *Engine) AddObserver(fn EventObserver) {
	e.observerMu.Lock()
	e.observers = append(e.observers, fn)
	e.observerMu.Unlock()
}

func (e *Engine) notify(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	e.observerMu.RLock()
	observers := make([]EventObserver, len(e.observers))
	copy(observers, e.observers)
	e.observerMu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// AnalyzeURL scores a URL with the heuristic analyzer and folds in the
// classifier signal when a model is loaded. A malicious classifier hit on
// a heuristically safe URL upgrades the verdict to suspicious rather than
// overriding the heuristics outright.
func (e *Engine) AnalyzeURL(ctx context.Context, raw string) *urlscan.Result {
	if !e.cfg.Enabled {
		return &urlscan.Result{
			URL:       raw,
			Verdict:   urlscan.VerdictSafe,
			Reason:    "protection disabled",
			CreatedAt: time.Now().UTC(),
		}
	}

	res := e.analyzer.Analyze(raw)

	if mlRes, err := e.classifier.Classify(ctx, mlscore.Features(raw)); err != nil {
		e.log.Debug().Err(err).Msg("classifier unavailable, skipping ML signal")
	} else if mlRes != nil && mlRes.Malicious {
		e.dispatchAnomaly(ctx, dispatch.FromML(raw, *mlRes, time.Now().UTC()))
		if res.Verdict == urlscan.VerdictSafe {
			res = escalateFromClassifier(res, mlRes)
		}
	}

	if e.metrics != nil {
		e.metrics.URLsAnalyzed.WithLabelValues(string(res.Verdict)).Inc()
		e.syncCacheMetrics()
	}
	e.auditLog.Log(audit.Entry{
		Event:      audit.EventURLVerdict,
		Target:     res.URL,
		Verdict:    string(res.Verdict),
		Confidence: res.Confidence,
		Detail:     res.Reason,
	})
	e.notify(Event{
		Kind:    "url",
		Target:  res.URL,
		Verdict: string(res.Verdict),
		Score:   res.Confidence,
		Blocked: res.Verdict == urlscan.VerdictMalicious,
		Detail:  res.Reason,
	})
	return res
}

// escalateFromClassifier copies the cached heuristic result before
// amending it; cached entries are shared and must stay immutable.
func escalateFromClassifier(res *urlscan.Result, mlRes *mlscore.Result) *urlscan.Result {
	amended := *res
	amended.Verdict = urlscan.VerdictSuspicious
	amended.Reason = "flagged by classifier"
	amended.Indicators = append(append([]rules.Indicator{}, res.Indicators...), rules.Indicator{
		Category:    "ml_classifier",
		Severity:    rules.SeverityMedium,
		Description: "classifier scored URL as malicious",
		Score:       mlRes.Score,
	})
	if amended.Confidence < mlRes.Score {
		amended.Confidence = mlRes.Score
	}
	return &amended
}

// AnalyzeScript runs script text through the pattern blocker.
func (e *Engine) AnalyzeScript(code, sourceURL string) jsblock.Result {
	res := e.blocker.Analyze(code, sourceURL)
	if !res.ShouldBlock {
		return res
	}

	top := res.Matched[0]
	for _, r := range res.Matched[1:] {
		if r.Severity.Rank() > top.Severity.Rank() {
			top = r
		}
	}

	if e.metrics != nil {
		e.metrics.ScriptsBlocked.Inc()
	}
	e.auditLog.Log(audit.Entry{
		Event:      audit.EventScriptBlock,
		Target:     sourceURL,
		Severity:   string(top.Severity),
		Confidence: res.Confidence,
		RuleID:     top.ID,
		Detail:     top.Name,
	})
	e.notify(Event{
		Kind:     "script",
		Target:   sourceURL,
		Severity: string(top.Severity),
		Score:    res.Confidence,
		Blocked:  true,
		Detail:   top.Name,
	})
	return res
}

// ReportPage folds a page observation into the behavior detector and
// dispatches any resulting anomaly.
func (e *Engine) ReportPage(ctx context.Context, obs *collect.PageBehavior) *dispatch.Anomaly {
	if !e.cfg.Enabled {
		return nil
	}
	anomaly := e.detector.ObservePage(obs)
	if anomaly == nil {
		return nil
	}
	env := dispatch.FromBehavior(anomaly)
	e.dispatchAnomaly(ctx, env)
	return &env
}

// CollectAndReport observes a live page through the collector and reports
// it. A denied or failed collection produces no signal.
func (e *Engine) CollectAndReport(ctx context.Context, target string) (*collect.PageBehavior, *dispatch.Anomaly, error) {
	if e.collector == nil {
		return nil, nil, nil
	}
	obs, err := e.collector.Collect(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	if obs == nil {
		return nil, nil, nil
	}
	return obs, e.ReportPage(ctx, obs), nil
}

// ScanExtensions runs one extension scan pass and dispatches anomalies.
func (e *Engine) ScanExtensions(ctx context.Context) ([]dispatch.Anomaly, error) {
	if e.scanner == nil || !e.cfg.Enabled {
		return nil, nil
	}
	found, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var dispatched []dispatch.Anomaly
	for _, a := range found {
		env := dispatch.FromExtension(a)
		e.auditLog.Log(audit.Entry{
			Event:          audit.EventExtScan,
			Target:         a.ExtensionID,
			Severity:       string(a.Severity),
			Confidence:     a.Confidence,
			AnomalyID:      env.ID,
			Recommendation: string(a.Recommendation),
		})
		e.dispatchAnomaly(ctx, env)
		dispatched = append(dispatched, env)
	}
	return dispatched, nil
}

// StartSweep launches the periodic extension sweep in the background.
func (e *Engine) StartSweep(ctx context.Context) {
	if e.scanner == nil || !e.cfg.Enabled {
		return
	}
	go e.scanner.StartSweep(ctx, e.cfg.Extensions.ScanInterval.Std(), func(a extscan.Anomaly) {
		e.dispatchAnomaly(ctx, dispatch.FromExtension(a))
	})
}

func (e *Engine) dispatchAnomaly(ctx context.Context, env dispatch.Anomaly) {
	if e.metrics != nil {
		e.metrics.Anomalies.WithLabelValues(string(env.Kind), string(env.Severity)).Inc()
		e.metrics.Actions.WithLabelValues(string(env.Recommendation)).Inc()
	}
	e.auditLog.Log(audit.Entry{
		Event:          audit.EventAnomaly,
		Target:         env.Target,
		Severity:       string(env.Severity),
		Confidence:     env.Confidence,
		AnomalyID:      env.ID,
		Recommendation: string(env.Recommendation),
	})
	e.dispatcher.Handle(ctx, env)
	e.auditLog.Log(audit.Entry{
		Event:          audit.EventAction,
		Target:         env.Target,
		AnomalyID:      env.ID,
		Recommendation: string(env.Recommendation),
	})
	e.notify(Event{
		Kind:     "anomaly",
		Target:   env.Target,
		Severity: string(env.Severity),
		Score:    env.Confidence,
		Blocked:  env.Recommendation == rules.RecommendBlock,
		Detail:   string(env.Recommendation),
	})
}

// syncCacheMetrics folds the analyzer's cumulative cache totals into the
// Prometheus counters as deltas.
func (e *Engine) syncCacheMetrics() {
	stats := e.analyzer.Stats()
	e.cacheMu.Lock()
	hits := stats.CacheHits - e.lastHits
	misses := stats.CacheMisses - e.lastMisses
	e.lastHits = stats.CacheHits
	e.lastMisses = stats.CacheMisses
	e.cacheMu.Unlock()

	e.metrics.CacheHits.Add(float64(hits))
	e.metrics.CacheMisses.Add(float64(misses))
}

// Anomalies returns dispatched anomalies, newest first.
func (e *Engine) Anomalies() []dispatch.Anomaly { return e.dispatcher.History() }

// BlockedScripts returns the script block history, newest first.
func (e *Engine) BlockedScripts() []jsblock.BlockedScript { return e.blocker.History() }

// URLStats returns the URL analyzer's running totals.
func (e *Engine) URLStats() urlscan.Stats { return e.analyzer.Stats() }

// AnomaliesHandled returns the total number of dispatched anomalies.
func (e *Engine) AnomaliesHandled() uint64 { return e.dispatcher.Handled() }

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }
