package urlscan

import (
	"testing"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

func hasIndicator(res *Result, category string, sev rules.Severity) bool {
	for _, ind := range res.Indicators {
		if ind.Category == category && ind.Severity == sev {
			return true
		}
	}
	return false
}

func TestAnalyze_AllowListedAlwaysSafe(t *testing.T) {
	urls := []string{
		"https://google.com",
		"https://www.google.com/search?q=test",
		"https://github.com/owner/repo",
		"http://sub.deep.wikipedia.org/wiki/Go",
	}
	for _, sens := range []Sensitivity{SensitivityLow, SensitivityMedium, SensitivityHigh} {
		a := New(Options{Sensitivity: sens})
		for _, u := range urls {
			res := a.Analyze(u)
			if res.Verdict != VerdictSafe {
				t.Errorf("sensitivity %s: expected safe for %s, got %s", sens, u, res.Verdict)
			}
			if res.Confidence != 0 {
				t.Errorf("sensitivity %s: expected confidence 0 for %s, got %f", sens, u, res.Confidence)
			}
		}
	}
}

func TestAnalyze_IPHost(t *testing.T) {
	a := New(Options{})
	res := a.Analyze("http://192.168.13.37/admin")
	if !hasIndicator(res, "ip_address", rules.SeverityHigh) {
		t.Error("expected high-severity ip_address indicator for dotted-quad host")
	}
}

func TestAnalyze_MalformedURL(t *testing.T) {
	a := New(Options{})
	res := a.Analyze("http://%zz%%/")
	if res.Verdict != VerdictSuspicious {
		t.Errorf("expected suspicious verdict for malformed URL, got %s", res.Verdict)
	}
	if len(res.Indicators) != 1 || res.Indicators[0].Category != "malformed_url" {
		t.Errorf("expected a single malformed_url indicator, got %+v", res.Indicators)
	}
	if res.Indicators[0].Severity != rules.SeverityHigh {
		t.Error("expected high severity for malformed URL indicator")
	}
}

func TestAnalyze_CacheIdempotence(t *testing.T) {
	a := New(Options{})
	first := a.Analyze("http://paypa1-login.example.net/verify")
	second := a.Analyze("http://paypa1-login.example.net/verify")

	if first != second {
		t.Error("expected the cached result pointer on the second call")
	}

	stats := a.Stats()
	if stats.CacheHits != 1 {
		t.Errorf("expected exactly 1 cache hit, got %d", stats.CacheHits)
	}
	if stats.CacheMisses != 1 {
		t.Errorf("expected exactly 1 cache miss, got %d", stats.CacheMisses)
	}
}

func TestAnalyze_ShortenerAndPort(t *testing.T) {
	a := New(Options{})

	res := a.Analyze("https://bit.ly/3xYz")
	if !hasIndicator(res, "url_shortener", rules.SeverityMedium) {
		t.Error("expected url_shortener indicator for bit.ly")
	}

	res = a.Analyze("http://example-site.net:4444/cb")
	if !hasIndicator(res, "suspicious_port", rules.SeverityHigh) {
		t.Error("expected high suspicious_port indicator for port 4444")
	}
}

func TestAnalyze_SubdomainDepthAndDashes(t *testing.T) {
	a := New(Options{})

	res := a.Analyze("http://a.b.c.d.e.f.example-zone.net/")
	if !hasIndicator(res, "subdomain_depth", rules.SeverityMedium) {
		t.Error("expected subdomain_depth indicator")
	}

	res = a.Analyze("http://super--discount--store.net/")
	if !hasIndicator(res, "excessive_dashes", rules.SeverityLow) {
		t.Error("expected excessive_dashes indicator")
	}
}

func TestAnalyze_EndToEndPhishing(t *testing.T) {
	a := New(Options{})
	res := a.Analyze("http://paypa1-secure-login.tk/verify?password=x")

	if res.Verdict != VerdictMalicious {
		t.Fatalf("expected malicious verdict, got %s (reason: %s)", res.Verdict, res.Reason)
	}

	wantCategories := []string{"suspicious_tld", "typosquatting", "suspicious_path", "suspicious_param"}
	for _, cat := range wantCategories {
		found := false
		for _, ind := range res.Indicators {
			if ind.Category == cat {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s indicator, got %+v", cat, res.Indicators)
		}
	}

	critical := false
	for _, ind := range res.Indicators {
		if ind.Severity == rules.SeverityCritical {
			critical = true
		}
	}
	if !critical {
		t.Error("expected at least one critical indicator")
	}

	if res.Reason == "" || res.Reason == "no indicators" {
		t.Error("expected a populated reason string")
	}
}

func TestAnalyze_SensitivityScaling(t *testing.T) {
	low := New(Options{Sensitivity: SensitivityLow})
	high := New(Options{Sensitivity: SensitivityHigh})

	url := "http://update-account.example-host.net/login"
	lowRes := low.Analyze(url)
	highRes := high.Analyze(url)

	if lowRes.Confidence >= highRes.Confidence {
		t.Errorf("expected high sensitivity to score above low: low=%f high=%f",
			lowRes.Confidence, highRes.Confidence)
	}
}

func TestAnalyze_StatsVerdictCounts(t *testing.T) {
	a := New(Options{})
	a.Analyze("https://google.com")
	a.Analyze("http://faceb00k.com")

	stats := a.Stats()
	if stats.Safe != 1 {
		t.Errorf("expected 1 safe verdict, got %d", stats.Safe)
	}
	if stats.Malicious != 1 {
		t.Errorf("expected 1 malicious verdict, got %d", stats.Malicious)
	}
	if stats.Analyzed != 2 {
		t.Errorf("expected 2 analyzed, got %d", stats.Analyzed)
	}
}
