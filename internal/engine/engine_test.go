package engine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/audit"
	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/config"
	"github.com/subhanUmer/secureweb-engine/internal/dispatch"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/mlscore"
	"github.com/subhanUmer/secureweb-engine/internal/urlscan"
)

type maliciousClassifier struct {
	features [mlscore.FeatureCount]float64
}

func (c *maliciousClassifier) Classify(_ context.Context, f [mlscore.FeatureCount]float64) (*mlscore.Result, error) {
	c.features = f
	return &mlscore.Result{Score: 0.95, Malicious: true, Label: "phishing"}, nil
}

type stubEnumerator struct {
	infos []extscan.ExtensionInfo
}

func (s *stubEnumerator) List(context.Context) ([]extscan.ExtensionInfo, error) {
	return s.infos, nil
}
func (s *stubEnumerator) SelfID() string { return "" }

type nilCollector struct{}

func (nilCollector) Collect(context.Context, string) (*collect.PageBehavior, error) {
	return nil, nil
}

func TestAnalyzeURL_DisabledEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Enabled = false
	e := New(Options{Config: cfg, Log: zerolog.Nop()})

	res := e.AnalyzeURL(context.Background(), "http://paypa1-login.tk/verify")
	if res.Verdict != urlscan.VerdictSafe {
		t.Errorf("disabled engine must not flag, got %s", res.Verdict)
	}
	if res.Reason != "protection disabled" {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestAnalyzeURL_EmitsEventAndAudit(t *testing.T) {
	var buf bytes.Buffer
	e := New(Options{Log: zerolog.Nop(), Audit: audit.NewLogger(&buf)})

	var events []Event
	e.AddObserver(func(ev Event) { events = append(events, ev) })

	res := e.AnalyzeURL(context.Background(), "http://192.168.1.1/login")
	if res.Verdict == urlscan.VerdictSafe {
		t.Fatal("IP-host login URL should not be safe")
	}

	if len(events) != 1 || events[0].Kind != "url" {
		t.Fatalf("expected one url event, got %v", events)
	}
	if !strings.Contains(buf.String(), "url_verdict") {
		t.Error("audit log missing url_verdict entry")
	}
}

func TestAnalyzeURL_ClassifierEscalatesSafeVerdict(t *testing.T) {
	cls := &maliciousClassifier{}
	e := New(Options{Log: zerolog.Nop(), Classifier: cls})

	res := e.AnalyzeURL(context.Background(), "https://google.com/search")
	if res.Verdict != urlscan.VerdictSuspicious {
		t.Errorf("expected classifier escalation to suspicious, got %s", res.Verdict)
	}
	if cls.features != mlscore.Features("https://google.com/search") {
		t.Error("classifier did not receive the extracted feature vector")
	}

	anomalies := e.Anomalies()
	if len(anomalies) != 1 || anomalies[0].Kind != dispatch.KindML {
		t.Fatalf("expected one ML anomaly, got %v", anomalies)
	}

	// The cached heuristic result must not carry the escalation: each
	// call re-amends a copy, so the indicator never accumulates.
	again := e.AnalyzeURL(context.Background(), "https://google.com/search")
	if len(again.Indicators) != 1 {
		t.Errorf("escalation leaked into the analyzer cache: %v", again.Indicators)
	}
}

func TestAnalyzeScript_BlockRecordsHistory(t *testing.T) {
	var buf bytes.Buffer
	e := New(Options{Log: zerolog.Nop(), Audit: audit.NewLogger(&buf)})

	var events []Event
	e.AddObserver(func(ev Event) { events = append(events, ev) })

	code := `var miner = new CoinHive.Anonymous('SITE_KEY'); miner.start();`
	res := e.AnalyzeScript(code, "https://evil.example.net/m.js")
	if !res.ShouldBlock {
		t.Fatal("miner bootstrap code should block in moderate mode")
	}

	blocked := e.BlockedScripts()
	if len(blocked) != 1 {
		t.Fatalf("expected one blocked script, got %d", len(blocked))
	}
	if len(events) != 1 || events[0].Kind != "script" || !events[0].Blocked {
		t.Fatalf("expected one blocked script event, got %v", events)
	}
	if !strings.Contains(buf.String(), "script_block") {
		t.Error("audit log missing script_block entry")
	}
}

func TestReportPage_DispatchesBehaviorAnomaly(t *testing.T) {
	var buf bytes.Buffer
	e := New(Options{Log: zerolog.Nop(), Audit: audit.NewLogger(&buf)})

	page := func() *collect.PageBehavior {
		return &collect.PageBehavior{
			Domain: "games.example.org",
			Scripts: []collect.ScriptInfo{
				{URL: "https://games.example.org/app.js", Host: "games.example.org"},
			},
		}
	}

	for i := 0; i < 5; i++ {
		if a := e.ReportPage(context.Background(), page()); a != nil {
			t.Fatalf("learning visit %d produced anomaly", i+1)
		}
	}

	hostile := page()
	hostile.Scripts = append(hostile.Scripts, collect.ScriptInfo{
		URL: "https://coinhive.com/lib/coinhive.min.js", Host: "coinhive.com",
	})
	hostile.HasWebGL = true

	anomaly := e.ReportPage(context.Background(), hostile)
	if anomaly == nil {
		t.Fatal("expected mining anomaly")
	}
	if anomaly.Kind != dispatch.KindBehavior {
		t.Errorf("expected behavior anomaly, got %s", anomaly.Kind)
	}
	if e.AnomaliesHandled() != 1 {
		t.Errorf("expected 1 handled anomaly, got %d", e.AnomaliesHandled())
	}

	// Dispatching audits the detection and the executed action as
	// separate entries.
	if !strings.Contains(buf.String(), `"event":"anomaly"`) {
		t.Error("audit log missing anomaly entry")
	}
	if !strings.Contains(buf.String(), `"event":"action"`) {
		t.Error("audit log missing action entry")
	}
	if !strings.Contains(buf.String(), `"recommendation":"block"`) {
		t.Error("action entry missing the executed recommendation")
	}
}

func TestScanExtensions_DispatchesAnomalies(t *testing.T) {
	enum := &stubEnumerator{infos: []extscan.ExtensionInfo{{
		ID: "abc", Name: "Helper", Version: "1.0.0", Permissions: []string{"storage"},
	}}}
	e := New(Options{Log: zerolog.Nop(), Enumerator: enum})

	if _, err := e.ScanExtensions(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	enum.infos = []extscan.ExtensionInfo{{
		ID: "abc", Name: "Helper", Version: "1.0.0",
		Permissions: []string{"storage", "debugger"},
	}}

	dispatched, err := e.ScanExtensions(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(dispatched) != 1 || dispatched[0].Kind != dispatch.KindExtension {
		t.Fatalf("expected one extension anomaly, got %v", dispatched)
	}
}

func TestCollectAndReport_DeniedCollection(t *testing.T) {
	e := New(Options{Log: zerolog.Nop(), Collector: nilCollector{}})

	obs, anomaly, err := e.CollectAndReport(context.Background(), "https://example.com")
	if obs != nil || anomaly != nil || err != nil {
		t.Errorf("denied collection must be silent, got (%v, %v, %v)", obs, anomaly, err)
	}
}
