package behavior

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

func newTestDetector(st store.Store) *Detector {
	return NewDetector(Params{}, st, zerolog.Nop())
}

// steadyPage builds an observation matching the shape used during baseline
// learning in these tests: three external scripts, two network requests.
func steadyPage(domain string) *collect.PageBehavior {
	return &collect.PageBehavior{
		Domain: domain,
		Scripts: []collect.ScriptInfo{
			{URL: "https://" + domain + "/app.js", Host: domain},
			{URL: "https://" + domain + "/vendor.js", Host: domain},
			{URL: "https://cdn.shared-assets.net/ui.js", Host: "cdn.shared-assets.net"},
		},
		Requests: []collect.RequestInfo{
			{URL: "https://" + domain + "/api/session", Host: domain},
			{URL: "https://cdn.shared-assets.net/ui.js", Host: "cdn.shared-assets.net"},
		},
	}
}

func learnBaseline(t *testing.T, d *Detector, domain string) {
	t.Helper()
	for i := 0; i < 5; i++ {
		anomaly := d.ObservePage(steadyPage(domain))
		require.Nil(t, anomaly, "visit %d falls inside the learning window", i+1)
	}
	p := d.ProfileSnapshot(domain)
	require.NotNil(t, p)
	require.True(t, p.BaselineLocked, "baseline must lock after the learning window")
}

func TestObservePage_LearningWindowNeverFlags(t *testing.T) {
	d := newTestDetector(nil)

	// Even a blatantly hostile page produces no anomaly before the
	// baseline exists.
	hostile := steadyPage("news.example.org")
	hostile.Scripts = append(hostile.Scripts, collect.ScriptInfo{
		URL: "https://coinhive.com/lib/miner.min.js", Host: "coinhive.com",
	})
	hostile.HasWebGL = true

	assert.Nil(t, d.ObservePage(hostile))

	p := d.ProfileSnapshot("news.example.org")
	require.NotNil(t, p)
	assert.Equal(t, 1, p.VisitCount)
	assert.False(t, p.BaselineLocked)
}

func TestObservePage_SteadyStateStaysQuiet(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "news.example.org")

	assert.Nil(t, d.ObservePage(steadyPage("news.example.org")),
		"a visit matching the baseline must not flag")
}

func TestObservePage_NilObservationDoesNotMutate(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "news.example.org")
	before := d.ProfileSnapshot("news.example.org").VisitCount

	assert.Nil(t, d.ObservePage(nil))
	assert.Nil(t, d.ObservePage(&collect.PageBehavior{}))

	assert.Equal(t, before, d.ProfileSnapshot("news.example.org").VisitCount)
}

func TestObservePage_NovelScriptFlags(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "news.example.org")

	obs := steadyPage("news.example.org")
	obs.Scripts = append(obs.Scripts, collect.ScriptInfo{
		URL: "https://evil-tracker.example.net/t.js", Host: "evil-tracker.example.net",
	})

	anomaly := d.ObservePage(obs)
	require.NotNil(t, anomaly)
	assert.Equal(t, "news.example.org", anomaly.Domain)
	assert.Equal(t, rules.RecommendMonitor, anomaly.Recommendation)

	categories := indicatorCategories(anomaly)
	assert.Contains(t, categories, "new_scripts")
}

func TestObservePage_LockedBaselineIsNotContaminated(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "news.example.org")

	obs := steadyPage("news.example.org")
	obs.Scripts = append(obs.Scripts, collect.ScriptInfo{
		URL: "https://evil-tracker.example.net/t.js", Host: "evil-tracker.example.net",
	})

	require.NotNil(t, d.ObservePage(obs))

	// The same novel script must flag again: an anomalous visit never
	// folds into the locked baseline it was judged against.
	second := d.ObservePage(obs)
	require.NotNil(t, second)
	assert.Contains(t, indicatorCategories(second), "new_scripts")
}

func TestObservePage_ScriptCountDeviation(t *testing.T) {
	d := newTestDetector(nil)

	inlinePage := func(n int) *collect.PageBehavior {
		obs := &collect.PageBehavior{Domain: "blog.example.org"}
		for i := 0; i < n; i++ {
			obs.Scripts = append(obs.Scripts, collect.ScriptInfo{Inline: true, Length: 10})
		}
		return obs
	}

	for i := 0; i < 5; i++ {
		require.Nil(t, d.ObservePage(inlinePage(4)))
	}

	anomaly := d.ObservePage(inlinePage(12))
	require.NotNil(t, anomaly)
	assert.Contains(t, indicatorCategories(anomaly), "script_count_deviation")
	assert.Equal(t, rules.SeverityHigh, anomaly.Severity)
	assert.Equal(t, rules.RecommendWarn, anomaly.Recommendation)
	assert.InDelta(t, 1.0, anomaly.Confidence, 1e-9, "capped z-score saturates confidence")
}

func TestObservePage_MinerComposite(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "games.example.org")

	obs := steadyPage("games.example.org")
	obs.Scripts = append(obs.Scripts, collect.ScriptInfo{
		URL: "https://coinhive.com/lib/coinhive.min.js", Host: "coinhive.com",
	})
	obs.HasWebGL = true

	anomaly := d.ObservePage(obs)
	require.NotNil(t, anomaly)
	assert.Equal(t, rules.SeverityCritical, anomaly.Severity)
	assert.Equal(t, rules.RecommendBlock, anomaly.Recommendation)
	assert.Contains(t, indicatorCategories(anomaly), string(rules.CategoryCryptomining))
}

func TestObservePage_WebGLAloneIsNotMining(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "games.example.org")

	obs := steadyPage("games.example.org")
	obs.HasWebGL = true

	assert.Nil(t, d.ObservePage(obs),
		"WebGL without a corroborating signal must not flag")
}

func TestObservePage_ProfilePersistsAcrossRestart(t *testing.T) {
	st := store.NewMemory()

	first := newTestDetector(st)
	learnBaseline(t, first, "news.example.org")

	// A fresh detector sharing the store sees the locked baseline.
	second := newTestDetector(st)
	obs := steadyPage("news.example.org")
	obs.Scripts = append(obs.Scripts, collect.ScriptInfo{
		URL: "https://evil-tracker.example.net/t.js", Host: "evil-tracker.example.net",
	})

	anomaly := second.ObservePage(obs)
	require.NotNil(t, anomaly)
	assert.Contains(t, indicatorCategories(anomaly), "new_scripts")
}

func TestObservePage_DomainsAreIndependent(t *testing.T) {
	d := newTestDetector(nil)
	learnBaseline(t, d, "a.example.org")

	for i := 0; i < 3; i++ {
		require.Nil(t, d.ObservePage(steadyPage(fmt.Sprintf("site%d.example.org", i))))
	}

	p := d.ProfileSnapshot("a.example.org")
	assert.Equal(t, 5, p.VisitCount, "other domains must not advance this profile")
}

func indicatorCategories(a *Anomaly) []string {
	out := make([]string, 0, len(a.Indicators))
	for _, ind := range a.Indicators {
		out = append(out, ind.Category)
	}
	return out
}
