package extscan

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

const extProfileKeyPrefix = "profile_ext_"

// DefaultSweepInterval is how often the periodic full scan runs.
const DefaultSweepInterval = 6 * time.Hour

// Scanner diffs the installed extension set against stored profiles.
type Scanner struct {
	// RiskDelta overrides the score increase that flags a behavior
	// change; zero keeps DefaultRiskDelta.
	RiskDelta int

	enum  Enumerator
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewScanner builds a scanner. The store may be nil, in which case every
// scan sees every extension as a first observation.
func NewScanner(enum Enumerator, st store.Store, log zerolog.Logger) *Scanner {
	return &Scanner{enum: enum, store: st, log: log, now: time.Now}
}

// Scan enumerates installed extensions, diffs each against its stored
// profile, rewrites the profiles, and returns anomalies for extensions
// whose footprint changed. A denied enumeration skips the cycle without
// error. Profiles of uninstalled extensions are removed.
func (s *Scanner) Scan(ctx context.Context) ([]Anomaly, error) {
	infos, err := s.enum.List(ctx)
	if err != nil {
		return nil, err
	}
	if infos == nil {
		s.log.Debug().Msg("extension enumeration unavailable, skipping scan")
		return nil, nil
	}

	now := s.now()
	selfID := s.enum.SelfID()
	riskDelta := s.RiskDelta
	if riskDelta <= 0 {
		riskDelta = DefaultRiskDelta
	}
	seen := make(map[string]bool, len(infos))

	var anomalies []Anomaly
	for _, info := range infos {
		if info.ID == selfID || info.Type == "theme" {
			continue
		}
		seen[info.ID] = true

		stored := s.loadProfile(info.ID)
		score := RiskScore(info)
		changes := diffProfile(stored, info, score, riskDelta)

		if len(changes) > 0 {
			anomaly := assess(info, changes, now)
			s.log.Warn().
				Str("extension", info.ID).
				Str("name", info.Name).
				Str("severity", string(anomaly.Severity)).
				Int("changes", len(changes)).
				Msg("extension anomaly")
			anomalies = append(anomalies, anomaly)
		}

		s.saveProfile(&Profile{
			ID:              info.ID,
			Name:            info.Name,
			Version:         info.Version,
			Permissions:     info.Permissions,
			HostPermissions: info.HostPermissions,
			RiskScore:       score,
			LastChecked:     now,
		})
	}

	s.pruneUninstalled(seen)
	return anomalies, nil
}

// StartSweep runs Scan on a fixed interval until the context is cancelled,
// delivering each anomaly to emit.
func (s *Scanner) StartSweep(ctx context.Context, interval time.Duration, emit func(Anomaly)) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			anomalies, err := s.Scan(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("extension sweep failed")
				continue
			}
			for _, a := range anomalies {
				emit(a)
			}
		}
	}
}

// assess folds a change set into severity, confidence, and recommendation.
// Host-access changes never reach critical on their own: the riskLevel 10
// wildcard grant is serious, but only a permission grant at that level
// justifies an uninstall push.
func assess(info ExtensionInfo, changes []Change, now time.Time) Anomaly {
	maxLevel := 0
	severity := rules.SeverityLow
	hasPermChange := false
	permLevelNine := false

	for _, c := range changes {
		if c.RiskLevel > maxLevel {
			maxLevel = c.RiskLevel
		}
		band := riskBand(c.RiskLevel)
		if c.Type != ChangePermission && band == rules.SeverityCritical {
			band = rules.SeverityHigh
		}
		if band.Rank() > severity.Rank() {
			severity = band
		}
		if c.Type == ChangePermission {
			hasPermChange = true
			if c.RiskLevel >= 9 {
				permLevelNine = true
			}
		}
	}

	recommendation := rules.RecommendMonitor
	switch {
	case severity == rules.SeverityCritical || permLevelNine:
		recommendation = rules.RecommendUninstall
	case severity == rules.SeverityHigh && hasPermChange:
		recommendation = rules.RecommendDisable
	case severity == rules.SeverityHigh || severity == rules.SeverityMedium:
		recommendation = rules.RecommendWarn
	}

	return Anomaly{
		ExtensionID:    info.ID,
		Name:           info.Name,
		Severity:       severity,
		Confidence:     float64(maxLevel) / 10,
		Changes:        changes,
		Recommendation: recommendation,
		Timestamp:      now,
	}
}

func riskBand(level int) rules.Severity {
	switch {
	case level >= 9:
		return rules.SeverityCritical
	case level >= 7:
		return rules.SeverityHigh
	case level >= 4:
		return rules.SeverityMedium
	default:
		return rules.SeverityLow
	}
}

func (s *Scanner) loadProfile(id string) *Profile {
	if s.store == nil {
		return nil
	}
	data, err := s.store.Get(extProfileKeyPrefix + id)
	if err != nil {
		if err != store.ErrNotFound {
			s.log.Warn().Err(err).Str("extension", id).Msg("extension profile load failed")
		}
		return nil
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn().Err(err).Str("extension", id).Msg("extension profile corrupt, starting fresh")
		return nil
	}
	return &p
}

func (s *Scanner) saveProfile(p *Profile) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.log.Warn().Err(err).Str("extension", p.ID).Msg("extension profile encode failed")
		return
	}
	if err := s.store.Put(extProfileKeyPrefix+p.ID, data); err != nil {
		s.log.Warn().Err(err).Str("extension", p.ID).Msg("extension profile persist failed")
	}
}

func (s *Scanner) pruneUninstalled(seen map[string]bool) {
	if s.store == nil {
		return
	}
	keys, err := s.store.List(extProfileKeyPrefix)
	if err != nil {
		s.log.Warn().Err(err).Msg("extension profile listing failed")
		return
	}
	for _, key := range keys {
		id := key[len(extProfileKeyPrefix):]
		if seen[id] {
			continue
		}
		if err := s.store.Delete(key); err != nil {
			s.log.Warn().Err(err).Str("extension", id).Msg("extension profile prune failed")
		}
	}
}
