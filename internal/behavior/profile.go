// Package behavior learns per-site activity baselines from observed page
// loads and flags statistically unusual or known-hostile deviations once a
// baseline is established.
package behavior

import (
	"encoding/json"
	"sort"
	"time"
)

// Baseline holds the learned activity statistics for a site.
type Baseline struct {
	MeanScripts    float64   `json:"mean_scripts"`
	StdDevScripts  float64   `json:"stddev_scripts"`
	MeanRequests   float64   `json:"mean_requests"`
	StdDevRequests float64   `json:"stddev_requests"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the accumulated behavioral history for one domain. Membership
// sets record what the site loaded during the learning window; once
// BaselineLocked is set the sets and statistics are frozen and later visits
// are judged against them.
type Profile struct {
	Domain         string
	FirstSeen      time.Time
	LastVisit      time.Time
	VisitCount     int
	BaselineLocked bool

	ScriptURLs     map[string]struct{}
	ScriptDomains  map[string]struct{}
	InlineHashes   map[string]struct{}
	NetworkDomains map[string]struct{}

	Baseline Baseline
}

func newProfile(domain string, now time.Time) *Profile {
	return &Profile{
		Domain:         domain,
		FirstSeen:      now,
		ScriptURLs:     make(map[string]struct{}),
		ScriptDomains:  make(map[string]struct{}),
		InlineHashes:   make(map[string]struct{}),
		NetworkDomains: make(map[string]struct{}),
	}
}

// storedProfile is the serialized form; sets become sorted slices so the
// encoding is stable across runs.
type storedProfile struct {
	Domain         string    `json:"domain"`
	FirstSeen      time.Time `json:"first_seen"`
	LastVisit      time.Time `json:"last_visit"`
	VisitCount     int       `json:"visit_count"`
	BaselineLocked bool      `json:"baseline_locked"`
	ScriptURLs     []string  `json:"script_urls"`
	ScriptDomains  []string  `json:"script_domains"`
	InlineHashes   []string  `json:"inline_hashes"`
	NetworkDomains []string  `json:"network_domains"`
	Baseline       Baseline  `json:"baseline"`
}

func (p *Profile) encode() ([]byte, error) {
	return json.Marshal(storedProfile{
		Domain:         p.Domain,
		FirstSeen:      p.FirstSeen,
		LastVisit:      p.LastVisit,
		VisitCount:     p.VisitCount,
		BaselineLocked: p.BaselineLocked,
		ScriptURLs:     sortedKeys(p.ScriptURLs),
		ScriptDomains:  sortedKeys(p.ScriptDomains),
		InlineHashes:   sortedKeys(p.InlineHashes),
		NetworkDomains: sortedKeys(p.NetworkDomains),
		Baseline:       p.Baseline,
	})
}

func decodeProfile(data []byte) (*Profile, error) {
	var sp storedProfile
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, err
	}
	return &Profile{
		Domain:         sp.Domain,
		FirstSeen:      sp.FirstSeen,
		LastVisit:      sp.LastVisit,
		VisitCount:     sp.VisitCount,
		BaselineLocked: sp.BaselineLocked,
		ScriptURLs:     toSet(sp.ScriptURLs),
		ScriptDomains:  toSet(sp.ScriptDomains),
		InlineHashes:   toSet(sp.InlineHashes),
		NetworkDomains: toSet(sp.NetworkDomains),
		Baseline:       sp.Baseline,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
