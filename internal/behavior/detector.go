package behavior

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

const profileKeyPrefix = "profile_site_"

// Params tunes the learning and detection behavior. Zero values are
// replaced with defaults by NewDetector.
type Params struct {
	// LearnVisits is the number of visits consumed before the baseline
	// locks and detection begins.
	LearnVisits int
	// Alpha is the EMA smoothing factor applied during learning.
	Alpha float64
	// StdDevFloor prevents near-zero variance estimates from making
	// every later visit look anomalous.
	StdDevFloor float64
	// ZScoreCap bounds the deviation score contribution.
	ZScoreCap float64
	// ZThreshold is the minimum z-score treated as a deviation.
	ZThreshold float64
}

func (p Params) withDefaults() Params {
	if p.LearnVisits <= 0 {
		p.LearnVisits = 5
	}
	if p.Alpha <= 0 {
		p.Alpha = 0.3
	}
	if p.StdDevFloor <= 0 {
		p.StdDevFloor = 0.5
	}
	if p.ZScoreCap <= 0 {
		p.ZScoreCap = 10
	}
	if p.ZThreshold <= 0 {
		p.ZThreshold = 2.5
	}
	return p
}

// Anomaly is a flagged deviation from a site's learned baseline.
type Anomaly struct {
	Domain         string               `json:"domain"`
	Severity       rules.Severity       `json:"severity"`
	Confidence     float64              `json:"confidence"`
	Indicators     []rules.Indicator    `json:"indicators"`
	Recommendation rules.Recommendation `json:"recommendation"`
	Timestamp      time.Time            `json:"timestamp"`
}

// Detector owns the per-domain profiles. Observations for the same domain
// are serialized; different domains proceed concurrently.
type Detector struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	locks    map[string]*sync.Mutex

	params Params
	miner  *minerMatcher
	store  store.Store
	log    zerolog.Logger
	now    func() time.Time
}

// NewDetector builds a detector. The store may be nil, in which case
// profiles live only in memory.
func NewDetector(params Params, st store.Store, log zerolog.Logger) *Detector {
	return &Detector{
		profiles: make(map[string]*Profile),
		locks:    make(map[string]*sync.Mutex),
		params:   params.withDefaults(),
		miner:    newMinerMatcher(),
		store:    st,
		log:      log,
		now:      time.Now,
	}
}

// ObservePage folds one page load into the domain's profile. During the
// learning window it returns nil and updates the baseline; once the
// baseline is locked it evaluates the observation against the frozen
// baseline first, so an anomalous visit cannot contaminate the profile
// it is judged against. A nil observation never mutates any profile.
func (d *Detector) ObservePage(obs *collect.PageBehavior) *Anomaly {
	if obs == nil || obs.Domain == "" {
		return nil
	}

	unlock := d.lockDomain(obs.Domain)
	defer unlock()

	p := d.profile(obs.Domain)
	now := d.now()

	var anomaly *Anomaly
	if p.BaselineLocked {
		anomaly = d.detect(p, obs, now)
	}

	p.VisitCount++
	p.LastVisit = now

	if !p.BaselineLocked {
		d.learn(p, obs, now)
		if p.VisitCount >= d.params.LearnVisits {
			p.BaselineLocked = true
			d.log.Info().
				Str("domain", p.Domain).
				Int("visits", p.VisitCount).
				Float64("mean_scripts", p.Baseline.MeanScripts).
				Msg("behavior baseline locked")
		}
	}

	d.persist(p)
	return anomaly
}

// ProfileSnapshot returns a serializable copy of a domain's profile, or
// nil when the domain has never been observed.
func (d *Detector) ProfileSnapshot(domain string) *Profile {
	unlock := d.lockDomain(domain)
	defer unlock()

	d.mu.Lock()
	p, ok := d.profiles[domain]
	d.mu.Unlock()
	if !ok {
		if p = d.load(domain); p == nil {
			return nil
		}
	}

	snap := *p
	snap.ScriptURLs = toSet(sortedKeys(p.ScriptURLs))
	snap.ScriptDomains = toSet(sortedKeys(p.ScriptDomains))
	snap.InlineHashes = toSet(sortedKeys(p.InlineHashes))
	snap.NetworkDomains = toSet(sortedKeys(p.NetworkDomains))
	return &snap
}

func (d *Detector) lockDomain(domain string) func() {
	d.mu.Lock()
	lock, ok := d.locks[domain]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[domain] = lock
	}
	d.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// profile must be called with the domain lock held.
func (d *Detector) profile(domain string) *Profile {
	d.mu.Lock()
	p, ok := d.profiles[domain]
	d.mu.Unlock()
	if ok {
		return p
	}

	if p = d.load(domain); p == nil {
		p = newProfile(domain, d.now())
	}
	d.mu.Lock()
	d.profiles[domain] = p
	d.mu.Unlock()
	return p
}

func (d *Detector) load(domain string) *Profile {
	if d.store == nil {
		return nil
	}
	data, err := d.store.Get(profileKeyPrefix + domain)
	if err != nil {
		if err != store.ErrNotFound {
			d.log.Warn().Err(err).Str("domain", domain).Msg("behavior profile load failed")
		}
		return nil
	}
	p, err := decodeProfile(data)
	if err != nil {
		d.log.Warn().Err(err).Str("domain", domain).Msg("behavior profile corrupt, starting fresh")
		return nil
	}
	return p
}

func (d *Detector) persist(p *Profile) {
	if d.store == nil {
		return
	}
	data, err := p.encode()
	if err != nil {
		d.log.Warn().Err(err).Str("domain", p.Domain).Msg("behavior profile encode failed")
		return
	}
	if err := d.store.Put(profileKeyPrefix+p.Domain, data); err != nil {
		d.log.Warn().Err(err).Str("domain", p.Domain).Msg("behavior profile persist failed")
	}
}

func (d *Detector) learn(p *Profile, obs *collect.PageBehavior, now time.Time) {
	for _, s := range obs.Scripts {
		if s.URL != "" {
			p.ScriptURLs[s.URL] = struct{}{}
			if dom := s.Host; dom != "" {
				p.ScriptDomains[dom] = struct{}{}
			}
		}
		if s.Hash != "" {
			p.InlineHashes[s.Hash] = struct{}{}
		}
	}
	for _, r := range obs.Requests {
		if r.Host != "" {
			p.NetworkDomains[r.Host] = struct{}{}
		}
	}

	scripts := float64(len(obs.Scripts))
	requests := float64(len(obs.Requests))

	if p.VisitCount == 1 {
		p.Baseline.MeanScripts = scripts
		p.Baseline.MeanRequests = requests
		p.Baseline.StdDevScripts = d.params.StdDevFloor
		p.Baseline.StdDevRequests = d.params.StdDevFloor
	} else {
		a := d.params.Alpha
		p.Baseline.MeanScripts = a*scripts + (1-a)*p.Baseline.MeanScripts
		p.Baseline.MeanRequests = a*requests + (1-a)*p.Baseline.MeanRequests
		p.Baseline.StdDevScripts = math.Max(
			math.Sqrt(math.Abs(scripts-p.Baseline.MeanScripts)), d.params.StdDevFloor)
		p.Baseline.StdDevRequests = math.Max(
			math.Sqrt(math.Abs(requests-p.Baseline.MeanRequests)), d.params.StdDevFloor)
	}
	p.Baseline.UpdatedAt = now
}

func (d *Detector) detect(p *Profile, obs *collect.PageBehavior, now time.Time) *Anomaly {
	var indicators []rules.Indicator

	if ind := d.checkNewScripts(p, obs); ind != nil {
		indicators = append(indicators, *ind)
	}
	if ind := d.checkNewNetworkDomains(p, obs); ind != nil {
		indicators = append(indicators, *ind)
	}
	if ind := d.checkScriptCountDeviation(p, obs); ind != nil {
		indicators = append(indicators, *ind)
	}
	if ind := d.miner.check(obs); ind != nil {
		indicators = append(indicators, *ind)
	}

	// Fingerprinting APIs alone are too common to flag, but alongside
	// other deviations they sharpen the picture.
	if len(indicators) > 0 && (obs.HasWebRTC || obs.HasAudioContext) {
		indicators = append(indicators, rules.Indicator{
			Category:    "suspicious_api",
			Severity:    rules.SeverityLow,
			Description: "fingerprinting-capable API active during anomalous visit",
			Score:       2,
		})
	}

	if len(indicators) == 0 {
		return nil
	}

	maxScore := 0.0
	for _, ind := range indicators {
		if ind.Score > maxScore {
			maxScore = ind.Score
		}
	}

	severity := rules.SeverityLow
	switch {
	case rules.MaxSeverity(indicators) == rules.SeverityCritical:
		severity = rules.SeverityCritical
	case maxScore > 5:
		severity = rules.SeverityHigh
	case maxScore > 3:
		severity = rules.SeverityMedium
	}

	recommendation := rules.RecommendMonitor
	switch severity {
	case rules.SeverityCritical:
		recommendation = rules.RecommendBlock
	case rules.SeverityHigh:
		recommendation = rules.RecommendWarn
	}

	return &Anomaly{
		Domain:         p.Domain,
		Severity:       severity,
		Confidence:     math.Min(maxScore/10, 1.0),
		Indicators:     indicators,
		Recommendation: recommendation,
		Timestamp:      now,
	}
}

func (d *Detector) checkNewScripts(p *Profile, obs *collect.PageBehavior) *rules.Indicator {
	var novel []string
	for _, s := range obs.Scripts {
		switch {
		case s.URL != "":
			if len(p.ScriptURLs) > 0 {
				if _, known := p.ScriptURLs[s.URL]; !known {
					novel = append(novel, s.URL)
				}
			} else if s.Host != "" {
				// No URL history recorded; fall back to domain novelty.
				if _, known := p.ScriptDomains[s.Host]; !known {
					novel = append(novel, s.Host)
				}
			}
		case s.Hash != "":
			if _, known := p.InlineHashes[s.Hash]; !known {
				novel = append(novel, "inline:"+s.Hash[:12])
			}
		}
	}
	if len(novel) == 0 {
		return nil
	}

	score := 2 * float64(len(novel))
	return &rules.Indicator{
		Category:    "new_scripts",
		Severity:    scoreSeverity(score),
		Description: fmt.Sprintf("%d script(s) not seen during baseline", len(novel)),
		Score:       score,
		Evidence:    novel,
	}
}

func (d *Detector) checkNewNetworkDomains(p *Profile, obs *collect.PageBehavior) *rules.Indicator {
	seen := make(map[string]struct{})
	var novel []string
	for _, r := range obs.Requests {
		if r.Host == "" {
			continue
		}
		if _, dup := seen[r.Host]; dup {
			continue
		}
		seen[r.Host] = struct{}{}
		if _, known := p.NetworkDomains[r.Host]; !known {
			novel = append(novel, r.Host)
		}
	}
	if len(novel) == 0 {
		return nil
	}

	score := float64(len(novel))
	return &rules.Indicator{
		Category:    "new_network_domains",
		Severity:    scoreSeverity(score),
		Description: fmt.Sprintf("%d network domain(s) not seen during baseline", len(novel)),
		Score:       score,
		Evidence:    novel,
	}
}

func (d *Detector) checkScriptCountDeviation(p *Profile, obs *collect.PageBehavior) *rules.Indicator {
	stddev := p.Baseline.StdDevScripts
	if stddev < d.params.StdDevFloor {
		stddev = d.params.StdDevFloor
	}

	z := math.Abs(float64(len(obs.Scripts))-p.Baseline.MeanScripts) / stddev
	if z > d.params.ZScoreCap {
		z = d.params.ZScoreCap
	}
	if z <= d.params.ZThreshold {
		return nil
	}

	return &rules.Indicator{
		Category: "script_count_deviation",
		Severity: scoreSeverity(z),
		Description: fmt.Sprintf("script count %d deviates from baseline mean %.1f (z=%.1f)",
			len(obs.Scripts), p.Baseline.MeanScripts, z),
		Score: z,
	}
}

func scoreSeverity(score float64) rules.Severity {
	switch {
	case score > 5:
		return rules.SeverityHigh
	case score > 3:
		return rules.SeverityMedium
	default:
		return rules.SeverityLow
	}
}
