package rules

import "regexp"

// Severity is the ordinal scale used uniformly across rules, indicators,
// and anomalies.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the scoring contribution of an indicator at this severity.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityLow:
		return 0.2
	case SeverityMedium:
		return 0.5
	case SeverityHigh:
		return 0.8
	case SeverityCritical:
		return 1.0
	default:
		return 0.0
	}
}

// Rank returns the ordinal position of the severity, for comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Category groups detection rules by the kind of threat they describe.
type Category string

const (
	CategoryCryptomining Category = "cryptomining"
	CategoryInjection    Category = "injection"
	CategoryObfuscation  Category = "obfuscation"
	CategoryMalware      Category = "malware"
	CategoryTracking     Category = "tracking"
	CategoryNetwork      Category = "network"
	CategoryKeylogger    Category = "keylogger"
	CategoryPhishing     Category = "phishing"
)

// Recommendation is the action verb attached to an anomaly, consumed by
// the dispatcher.
type Recommendation string

const (
	RecommendMonitor   Recommendation = "monitor"
	RecommendWarn      Recommendation = "warn"
	RecommendBlock     Recommendation = "block"
	RecommendDisable   Recommendation = "disable"
	RecommendUninstall Recommendation = "uninstall"
)

// DetectionRule is a single immutable catalog entry. Rules are compiled
// once at process start and never mutated.
type DetectionRule struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Expr     *regexp.Regexp `json:"-"`
	Severity Severity       `json:"severity"`
	Category Category       `json:"category"`
}

// Matches reports whether the rule's expression matches the text.
func (r *DetectionRule) Matches(text string) bool {
	return r.Expr.MatchString(text)
}

// Indicator is one discrete piece of evidence contributing to a score.
// Indicators are produced transiently per analysis call and folded into
// an anomaly or analysis result, never persisted individually.
type Indicator struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Evidence    any      `json:"evidence,omitempty"`
}

// MaxSeverity returns the highest severity among the indicators, or
// SeverityLow for an empty slice.
func MaxSeverity(indicators []Indicator) Severity {
	max := SeverityLow
	for _, ind := range indicators {
		if ind.Severity.Rank() > max.Rank() {
			max = ind.Severity
		}
	}
	return max
}
