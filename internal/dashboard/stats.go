package dashboard

import (
	"sync"
	"time"
)

const timeSeriesMinutes = 60

// Stats accumulates real-time statistics from engine events.
type Stats struct {
	mu sync.RWMutex

	totalEvents  uint64
	blockedCount uint64
	scoreSum     float64

	verdictCounts  map[string]uint64
	severityCounts map[string]uint64
	kindCounts     map[string]uint64
	scoreHist      [10]uint64 // buckets: [0.0-0.1), [0.1-0.2), ..., [0.9-1.0]

	// Per-minute buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
}

type timeBucket struct {
	minute  time.Time // truncated to minute
	count   uint64
	blocked uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		verdictCounts:  make(map[string]uint64),
		severityCounts: make(map[string]uint64),
		kindCounts:     make(map[string]uint64),
	}
}

// Record ingests a single engine event.
func (s *Stats) Record(event *EngineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalEvents++
	if event.Blocked {
		s.blockedCount++
	}

	s.kindCounts[event.Kind]++
	if event.Verdict != "" {
		s.verdictCounts[event.Verdict]++
	}
	if event.Severity != "" {
		s.severityCounts[event.Severity]++
	}

	s.scoreSum += event.Score

	// Score histogram: bucket index = floor(score * 10), capped at 9
	bucket := int(event.Score * 10)
	if bucket > 9 {
		bucket = 9
	}
	if bucket < 0 {
		bucket = 0
	}
	s.scoreHist[bucket]++

	// Time series
	now := event.Timestamp.Truncate(time.Minute)
	idx := now.Minute() % timeSeriesMinutes
	if s.timeBuckets[idx].minute != now {
		s.timeBuckets[idx] = timeBucket{minute: now}
	}
	s.timeBuckets[idx].count++
	if event.Blocked {
		s.timeBuckets[idx].blocked++
	}
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &StatsSnapshot{
		TotalEvents:    s.totalEvents,
		BlockedCount:   s.blockedCount,
		VerdictCounts:  copyMap(s.verdictCounts),
		SeverityCounts: copyMap(s.severityCounts),
		KindCounts:     copyMap(s.kindCounts),
		ScoreHistogram: s.scoreHist,
	}

	if s.totalEvents > 0 {
		snap.AvgScore = s.scoreSum / float64(s.totalEvents)
	}

	// Build time series from buckets (last 60 minutes, chronological)
	now := time.Now().UTC().Truncate(time.Minute)
	cutoff := now.Add(-timeSeriesMinutes * time.Minute)
	for i := 0; i < timeSeriesMinutes; i++ {
		t := cutoff.Add(time.Duration(i+1) * time.Minute)
		idx := t.Minute() % timeSeriesMinutes
		b := s.timeBuckets[idx]
		if b.minute == t {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{
				Timestamp: b.minute,
				Count:     b.count,
				Blocked:   b.blocked,
			})
		} else {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{
				Timestamp: t,
				Count:     0,
				Blocked:   0,
			})
		}
	}

	return snap
}

func copyMap(m map[string]uint64) map[string]uint64 {
	c := make(map[string]uint64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
