package urlscan

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// Verdict is the tri-state outcome of URL analysis.
type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictMalicious  Verdict = "malicious"
)

// Sensitivity scales the final score before verdict assignment.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Result is the immutable outcome of analyzing one URL.
type Result struct {
	URL        string            `json:"url"`
	Verdict    Verdict           `json:"verdict"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
	Indicators []rules.Indicator `json:"indicators,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Options configures an Analyzer.
type Options struct {
	Sensitivity    Sensitivity
	BlockThreshold float64
	CacheSize      int
	CacheTTL       time.Duration
	AllowedDomains []string
}

// defaults fills in zero-valued options.
func (o *Options) defaults() {
	if o.Sensitivity == "" {
		o.Sensitivity = SensitivityMedium
	}
	if o.BlockThreshold == 0 {
		o.BlockThreshold = 0.7
	}
	if o.CacheSize == 0 {
		o.CacheSize = 1000
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = time.Hour
	}
}

// Analyzer scores URLs against structural and lexical heuristics.
// Results are cached by normalized URL with a TTL.
type Analyzer struct {
	opts  Options
	allow []string
	cache *expirable.LRU[string, *Result]
	stats *statsAccumulator
}

// New creates an Analyzer. Allow-listed domains are the union of the
// built-in safe list and any configured domains.
func New(opts Options) *Analyzer {
	opts.defaults()

	allow := make([]string, 0, len(rules.SafeDomains)+len(opts.AllowedDomains))
	allow = append(allow, rules.SafeDomains...)
	allow = append(allow, opts.AllowedDomains...)

	return &Analyzer{
		opts:  opts,
		allow: allow,
		cache: expirable.NewLRU[string, *Result](opts.CacheSize, nil, opts.CacheTTL),
		stats: newStatsAccumulator(),
	}
}

// Analyze runs the full heuristic pipeline on a single URL. A cache hit
// within the TTL returns the previously computed result unchanged.
func (a *Analyzer) Analyze(raw string) *Result {
	start := time.Now()

	normalized, u, ok := normalize(raw)
	if !ok {
		res := a.malformed(raw)
		a.stats.record(res.Verdict, false, time.Since(start))
		return res
	}

	if cached, hit := a.cache.Get(normalized); hit {
		a.stats.record(cached.Verdict, true, time.Since(start))
		return cached
	}

	host := strings.ToLower(u.Hostname())

	var res *Result
	if a.allowListed(host) {
		res = &Result{
			URL:        normalized,
			Verdict:    VerdictSafe,
			Confidence: 0,
			Reason:     "allow-listed domain",
			CreatedAt:  time.Now().UTC(),
		}
	} else {
		indicators := a.runChecks(u, host)
		res = a.assemble(normalized, indicators)
	}

	a.cache.Add(normalized, res)
	a.stats.record(res.Verdict, false, time.Since(start))
	return res
}

// Stats returns a snapshot of the running totals.
func (a *Analyzer) Stats() Stats {
	return a.stats.snapshot()
}

// normalize lower-cases the host, strips a trailing slash, and parses
// the URL. A missing scheme is tolerated by assuming http.
func normalize(raw string) (string, *url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		u, err = url.Parse("http://" + raw)
		if err != nil || u.Hostname() == "" {
			return "", nil, false
		}
	}

	u.Host = strings.ToLower(u.Host)
	normalized := strings.TrimSuffix(u.String(), "/")
	return normalized, u, true
}

// malformed produces the degraded result for unparsable input. Parse
// failures are never hard errors, only a suspicion signal.
func (a *Analyzer) malformed(raw string) *Result {
	ind := rules.Indicator{
		Category:    "malformed_url",
		Severity:    rules.SeverityHigh,
		Description: "URL could not be parsed",
		Score:       rules.SeverityHigh.Weight(),
		Evidence:    raw,
	}
	return &Result{
		URL:        raw,
		Verdict:    VerdictSuspicious,
		Confidence: ind.Score,
		Reason:     ind.Description,
		Indicators: []rules.Indicator{ind},
		CreatedAt:  time.Now().UTC(),
	}
}

// allowListed reports whether host matches an allow-listed domain
// exactly or as a subdomain.
func (a *Analyzer) allowListed(host string) bool {
	for _, d := range a.allow {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// runChecks unions the indicators of every independent check.
func (a *Analyzer) runChecks(u *url.URL, host string) []rules.Indicator {
	var indicators []rules.Indicator

	checks := [][]rules.Indicator{
		checkIPHost(host),
		checkSuspiciousTLD(host),
		checkSubdomainDepth(host),
		checkTyposquat(host),
		checkHomograph(host),
		checkPathSegments(u.Path),
		checkQueryParams(u),
		checkShortener(host),
		checkPort(u),
		checkHostKeywords(host),
		checkDashes(host),
	}
	for _, c := range checks {
		indicators = append(indicators, c...)
	}
	return indicators
}

// assemble turns indicators into a scored, graded result.
func (a *Analyzer) assemble(normalized string, indicators []rules.Indicator) *Result {
	score := a.score(indicators)

	res := &Result{
		URL:        normalized,
		Confidence: score,
		Indicators: indicators,
		Verdict:    a.verdict(score, indicators),
		Reason:     reason(indicators),
		CreatedAt:  time.Now().UTC(),
	}
	return res
}

// score computes sum(weights)/count compressed sub-linearly, then
// applies the sensitivity scaling. The compression keeps a single
// low-severity hit from dominating while multiple hits still escalate.
func (a *Analyzer) score(indicators []rules.Indicator) float64 {
	if len(indicators) == 0 {
		return 0
	}

	var sum float64
	for _, ind := range indicators {
		sum += ind.Severity.Weight()
	}
	raw := sum / float64(len(indicators))
	score := math.Pow(raw, 0.8)

	switch a.opts.Sensitivity {
	case SensitivityLow:
		score *= 0.8
	case SensitivityHigh:
		score *= 1.2
		if score > 1.0 {
			score = 1.0
		}
	}
	return score
}

// verdict applies the grading policy: critical indicators and stacked
// high indicators override the numeric threshold.
func (a *Analyzer) verdict(score float64, indicators []rules.Indicator) Verdict {
	highs := 0
	for _, ind := range indicators {
		switch ind.Severity {
		case rules.SeverityCritical:
			return VerdictMalicious
		case rules.SeverityHigh:
			highs++
		}
	}
	if highs >= 2 {
		return VerdictMalicious
	}
	if score >= a.opts.BlockThreshold {
		return VerdictMalicious
	}
	if score >= 0.4 {
		return VerdictSuspicious
	}
	return VerdictSafe
}

// reason builds a human explanation from the top three indicators
// ranked by severity.
func reason(indicators []rules.Indicator) string {
	if len(indicators) == 0 {
		return "no indicators"
	}

	ranked := make([]rules.Indicator, len(indicators))
	copy(ranked, indicators)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	parts := make([]string, len(ranked))
	for i, ind := range ranked {
		parts[i] = ind.Description
	}
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return parts[0] + ", " + parts[1] + ", and " + parts[2]
	}
}
