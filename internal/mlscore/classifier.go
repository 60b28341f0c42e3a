package mlscore

import "context"

// Result is one classifier verdict. Score is the malicious probability.
type Result struct {
	Score     float64 `json:"score"`
	Malicious bool    `json:"malicious"`
	Label     string  `json:"label"`
}

// Classifier scores a URL feature vector extracted by Features. A nil
// result with a nil error means no model is loaded; callers treat it as
// an absent signal, never a failure.
type Classifier interface {
	Classify(ctx context.Context, features [FeatureCount]float64) (*Result, error)
}

// Noop is the classifier used when no model is configured.
type Noop struct{}

func (Noop) Classify(context.Context, [FeatureCount]float64) (*Result, error) { return nil, nil }
