package urlscan

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of the analyzer's running totals.
type Stats struct {
	Analyzed         uint64  `json:"analyzed"`
	Safe             uint64  `json:"safe"`
	Suspicious       uint64  `json:"suspicious"`
	Malicious        uint64  `json:"malicious"`
	CacheHits        uint64  `json:"cache_hits"`
	CacheMisses      uint64  `json:"cache_misses"`
	AvgLatencyMicros float64 `json:"avg_latency_micros"`
}

type statsAccumulator struct {
	mu         sync.Mutex
	analyzed   uint64
	byVerdict  map[Verdict]uint64
	hits       uint64
	misses     uint64
	latencySum time.Duration
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{byVerdict: make(map[Verdict]uint64)}
}

func (s *statsAccumulator) record(v Verdict, cacheHit bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyzed++
	s.byVerdict[v]++
	if cacheHit {
		s.hits++
	} else {
		s.misses++
	}
	s.latencySum += latency
}

func (s *statsAccumulator) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Stats{
		Analyzed:    s.analyzed,
		Safe:        s.byVerdict[VerdictSafe],
		Suspicious:  s.byVerdict[VerdictSuspicious],
		Malicious:   s.byVerdict[VerdictMalicious],
		CacheHits:   s.hits,
		CacheMisses: s.misses,
	}
	if s.analyzed > 0 {
		snap.AvgLatencyMicros = float64(s.latencySum.Microseconds()) / float64(s.analyzed)
	}
	return snap
}
