// Package dispatch turns anomalies from any detector into exactly one
// response action: monitor, warn, block, disable, or uninstall.
package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/subhanUmer/secureweb-engine/internal/behavior"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/mlscore"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// Kind tags the anomaly union. The dispatcher switches on the tag; exactly
// one payload field is set per kind.
type Kind string

const (
	KindBehavior  Kind = "behavior"
	KindExtension Kind = "extension"
	KindML        Kind = "ml"
)

// Anomaly is the common envelope every detector's finding is wrapped in
// before dispatch.
type Anomaly struct {
	ID             string               `json:"id"`
	Kind           Kind                 `json:"kind"`
	Target         string               `json:"target"`
	Name           string               `json:"name,omitempty"`
	Severity       rules.Severity       `json:"severity"`
	Confidence     float64              `json:"confidence"`
	Recommendation rules.Recommendation `json:"recommendation"`
	Timestamp      time.Time            `json:"timestamp"`

	Behavior  *behavior.Anomaly `json:"behavior,omitempty"`
	Extension *extscan.Anomaly  `json:"extension,omitempty"`
	ML        *MLFinding        `json:"ml,omitempty"`
}

// MLFinding is the classifier payload for ML-flagged URLs.
type MLFinding struct {
	URL    string         `json:"url"`
	Result mlscore.Result `json:"result"`
}

// FromBehavior wraps a behavior anomaly for dispatch.
func FromBehavior(a *behavior.Anomaly) Anomaly {
	return Anomaly{
		ID:             uuid.NewString(),
		Kind:           KindBehavior,
		Target:         a.Domain,
		Name:           a.Domain,
		Severity:       a.Severity,
		Confidence:     a.Confidence,
		Recommendation: a.Recommendation,
		Timestamp:      a.Timestamp,
		Behavior:       a,
	}
}

// FromExtension wraps an extension anomaly for dispatch.
func FromExtension(a extscan.Anomaly) Anomaly {
	return Anomaly{
		ID:             uuid.NewString(),
		Kind:           KindExtension,
		Target:         a.ExtensionID,
		Name:           a.Name,
		Severity:       a.Severity,
		Confidence:     a.Confidence,
		Recommendation: a.Recommendation,
		Timestamp:      a.Timestamp,
		Extension:      &a,
	}
}

// FromML wraps a classifier hit. The classifier has no recommendation
// logic of its own: malicious verdicts warn, everything else monitors.
func FromML(url string, res mlscore.Result, now time.Time) Anomaly {
	severity := rules.SeverityMedium
	recommendation := rules.RecommendMonitor
	if res.Malicious {
		severity = rules.SeverityHigh
		recommendation = rules.RecommendWarn
	}
	return Anomaly{
		ID:             uuid.NewString(),
		Kind:           KindML,
		Target:         url,
		Severity:       severity,
		Confidence:     res.Score,
		Recommendation: recommendation,
		Timestamp:      now,
		ML:             &MLFinding{URL: url, Result: res},
	}
}

// topDescription picks the single most significant indicator or change,
// and reports how many others the anomaly carries.
func (a Anomaly) topDescription() (string, int) {
	switch a.Kind {
	case KindBehavior:
		if a.Behavior == nil || len(a.Behavior.Indicators) == 0 {
			return "unusual site behavior", 0
		}
		top := a.Behavior.Indicators[0]
		for _, ind := range a.Behavior.Indicators[1:] {
			if ind.Score > top.Score {
				top = ind
			}
		}
		return top.Description, len(a.Behavior.Indicators) - 1
	case KindExtension:
		if a.Extension == nil || len(a.Extension.Changes) == 0 {
			return "extension changed", 0
		}
		top := a.Extension.Changes[0]
		for _, c := range a.Extension.Changes[1:] {
			if c.RiskLevel > top.RiskLevel {
				top = c
			}
		}
		return top.Description, len(a.Extension.Changes) - 1
	case KindML:
		if a.ML != nil && a.ML.Result.Label != "" {
			return fmt.Sprintf("classifier flagged URL as %s", a.ML.Result.Label), 0
		}
		return "classifier flagged URL", 0
	}
	return "anomaly detected", 0
}
