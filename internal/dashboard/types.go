package dashboard

import (
	"time"

	"github.com/subhanUmer/secureweb-engine/internal/config"
)

// EngineEvent is one detection event rendered on the dashboard.
type EngineEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // "url", "script", "anomaly", "action"
	Target    string    `json:"target"`
	Verdict   string    `json:"verdict,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Score     float64   `json:"score"`
	Blocked   bool      `json:"blocked"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatsSnapshot is a point-in-time snapshot of accumulated statistics.
type StatsSnapshot struct {
	TotalEvents    uint64            `json:"total_events"`
	BlockedCount   uint64            `json:"blocked_count"`
	VerdictCounts  map[string]uint64 `json:"verdict_counts"`
	SeverityCounts map[string]uint64 `json:"severity_counts"`
	KindCounts     map[string]uint64 `json:"kind_counts"`
	AvgScore       float64           `json:"avg_score"`
	ScoreHistogram [10]uint64        `json:"score_histogram"`
	TimeSeries     []TimeSeriesPoint `json:"time_series"`
}

// TimeSeriesPoint is a single point in the 60-minute time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     uint64    `json:"count"`
	Blocked   uint64    `json:"blocked"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	Events []*EngineEvent `json:"events"`
	Stats  *StatsSnapshot `json:"stats"`
	Config *config.Config `json:"config"`
}
