// Package jsblock matches script text against the detection rule
// catalog and applies the configured blocking mode.
package jsblock

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/subhanUmer/secureweb-engine/internal/ringlog"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// Mode controls how aggressively matches turn into blocks.
type Mode string

const (
	ModeStrict     Mode = "strict"     // block on any match
	ModeModerate   Mode = "moderate"   // block on high or critical
	ModePermissive Mode = "permissive" // block on critical only
)

const (
	historyCapacity = 100
	excerptLength   = 120
	trivialLength   = 30
)

// Result is the outcome of analyzing one script.
type Result struct {
	Suspicious  bool                  `json:"suspicious"`
	Matched     []rules.DetectionRule `json:"matched,omitempty"`
	ShouldBlock bool                  `json:"should_block"`
	Confidence  float64               `json:"confidence"`
}

// BlockedScript records one actual block, whether decided here or
// surfaced by the page-context execution interceptor.
type BlockedScript struct {
	URL       string         `json:"url"`
	Reason    string         `json:"reason"`
	RuleID    string         `json:"rule_id"`
	Severity  rules.Severity `json:"severity"`
	Excerpt   string         `json:"excerpt"`
	Timestamp time.Time      `json:"timestamp"`
}

// Blocker analyzes script text against the full rule catalog.
type Blocker struct {
	mu      sync.RWMutex
	enabled bool
	mode    Mode
	allowed []string

	history *ringlog.Log[BlockedScript]
}

// New creates a Blocker. Allowed domains suffix-match the source host.
func New(mode Mode, allowed []string) *Blocker {
	if mode == "" {
		mode = ModeModerate
	}
	return &Blocker{
		enabled: true,
		mode:    mode,
		allowed: allowed,
		history: ringlog.New[BlockedScript](historyCapacity),
	}
}

// SetEnabled toggles analysis. Disabled, every script passes.
func (b *Blocker) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// SetMode changes the blocking mode.
func (b *Blocker) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// Analyze tests code against every catalog rule and applies the
// mode-dependent block decision. Blocks are appended to the history.
func (b *Blocker) Analyze(code, sourceURL string) Result {
	b.mu.RLock()
	enabled, mode := b.enabled, b.mode
	b.mu.RUnlock()

	if !enabled || b.sourceAllowed(sourceURL) {
		return Result{}
	}

	var matched []rules.DetectionRule
	for _, r := range rules.Catalog() {
		if r.Matches(code) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return Result{}
	}

	res := Result{
		Suspicious:  true,
		Matched:     matched,
		Confidence:  confidence(matched),
		ShouldBlock: shouldBlock(mode, matched),
	}

	if res.ShouldBlock {
		top := topRule(matched)
		b.history.Append(BlockedScript{
			URL:       sourceURL,
			Reason:    top.Name,
			RuleID:    top.ID,
			Severity:  top.Severity,
			Excerpt:   excerpt(code),
			Timestamp: time.Now().UTC(),
		})
	}
	return res
}

// RecordBlocked appends a block event surfaced by the page-context
// interceptor. The interceptor has already scanned the text against its
// reduced rule subset; no duplicate scan happens here.
func (b *Blocker) RecordBlocked(bs BlockedScript) {
	if bs.Timestamp.IsZero() {
		bs.Timestamp = time.Now().UTC()
	}
	bs.Excerpt = excerpt(bs.Excerpt)
	b.history.Append(bs)
}

// History returns blocked scripts newest-first.
func (b *Blocker) History() []BlockedScript {
	return b.history.Newest()
}

// TrivialText reports whether text is short enough and bland enough to
// skip interception entirely. This is the interceptor's false-positive
// guard for tiny snippets like "1+1".
func TrivialText(text string) bool {
	if len(text) >= trivialLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range rules.InterceptGuardKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func (b *Blocker) sourceAllowed(sourceURL string) bool {
	if sourceURL == "" {
		return false
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, d := range b.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// confidence is the strongest match's weight, bumped slightly per
// additional match, capped at 1.
func confidence(matched []rules.DetectionRule) float64 {
	var max float64
	for _, r := range matched {
		if w := r.Severity.Weight(); w > max {
			max = w
		}
	}
	bump := 0.1 * float64(len(matched))
	if bump > 0.3 {
		bump = 0.3
	}
	c := max + bump
	if c > 1.0 {
		c = 1.0
	}
	return c
}

func shouldBlock(mode Mode, matched []rules.DetectionRule) bool {
	max := rules.SeverityLow
	for _, r := range matched {
		if r.Severity.Rank() > max.Rank() {
			max = r.Severity
		}
	}
	switch mode {
	case ModeStrict:
		return true
	case ModePermissive:
		return max == rules.SeverityCritical
	default: // moderate
		return max.Rank() >= rules.SeverityHigh.Rank()
	}
}

func topRule(matched []rules.DetectionRule) rules.DetectionRule {
	top := matched[0]
	for _, r := range matched[1:] {
		if r.Severity.Rank() > top.Severity.Rank() {
			top = r
		}
	}
	return top
}

func excerpt(code string) string {
	if len(code) <= excerptLength {
		return code
	}
	return code[:excerptLength] + "..."
}
