package behavior

import (
	"strings"

	ac "github.com/anknown/ahocorasick"

	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// minerMatcher detects browser cryptomining by combining several weak
// signals. No single signal is enough: WebGL is everywhere, WebSockets
// are everywhere, but a miner needs the combination.
type minerMatcher struct {
	keywords *ac.Machine
}

func newMinerMatcher() *minerMatcher {
	dict := make([][]rune, 0, len(rules.MinerKeywords))
	for _, kw := range rules.MinerKeywords {
		dict = append(dict, []rune(strings.ToLower(kw)))
	}
	m := new(ac.Machine)
	if err := m.Build(dict); err != nil {
		// The dictionary is a compile-time constant; a build failure is
		// a programming error.
		panic("behavior: miner keyword automaton: " + err.Error())
	}
	return &minerMatcher{keywords: m}
}

func (m *minerMatcher) check(obs *collect.PageBehavior) *rules.Indicator {
	var signals []string

	if obs.HasWebGL {
		signals = append(signals, "webgl")
	}
	if m.keywordHit(obs) {
		signals = append(signals, "miner_keyword")
	}
	if m.domainHit(obs) {
		signals = append(signals, "miner_domain")
	}
	if obs.HasWebGL && hasWebSocket(obs) {
		signals = append(signals, "websocket_webgl")
	}

	if len(signals) < 2 {
		return nil
	}

	return &rules.Indicator{
		Category:    string(rules.CategoryCryptomining),
		Severity:    rules.SeverityCritical,
		Description: "cryptomining signal combination on page",
		Score:       8,
		Evidence:    signals,
	}
}

func (m *minerMatcher) keywordHit(obs *collect.PageBehavior) bool {
	for _, s := range obs.Scripts {
		if s.URL != "" && m.matches(s.URL) {
			return true
		}
	}
	for _, r := range obs.Requests {
		if m.matches(r.URL) {
			return true
		}
	}
	return false
}

func (m *minerMatcher) matches(text string) bool {
	hits := m.keywords.MultiPatternSearch([]rune(strings.ToLower(text)), true)
	return len(hits) > 0
}

func (m *minerMatcher) domainHit(obs *collect.PageBehavior) bool {
	for _, r := range obs.Requests {
		for _, d := range rules.MinerDomains {
			if r.Host == d || strings.HasSuffix(r.Host, "."+d) {
				return true
			}
		}
	}
	return false
}

func hasWebSocket(obs *collect.PageBehavior) bool {
	for _, r := range obs.Requests {
		if r.IsWebSocket() {
			return true
		}
	}
	return false
}
