// Package mlscore is the integration point for an external URL classifier.
// The engine extracts a fixed-width feature vector; inference itself is a
// collaborator that may be absent, in which case the signal is skipped.
package mlscore

import (
	"math"
	"net"
	"net/url"
	"strings"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// FeatureCount is the width of the classifier input vector. The trained
// model is bound to this exact layout; reordering or resizing it requires
// retraining.
const FeatureCount = 20

// Features extracts the deterministic feature vector for a URL. Unparsable
// input yields the zero vector: the classifier then contributes no signal,
// matching how every other detector degrades.
func Features(raw string) [FeatureCount]float64 {
	var f [FeatureCount]float64

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return f
	}

	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()
	labels := strings.Split(host, ".")

	f[0] = capRatio(float64(len(raw)), 100)
	f[1] = capRatio(float64(len(host)), 50)
	f[2] = capRatio(float64(len(path)), 100)
	f[3] = capRatio(float64(max(len(labels)-2, 0)), 5)
	f[4] = charRatio(host, isDigit)
	f[5] = charRatio(raw, isSpecial)
	if net.ParseIP(host) != nil {
		f[6] = 1
	}
	for _, tld := range rules.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			f[7] = 1
			break
		}
	}
	f[8] = capRatio(float64(strings.Count(host, "-")), 5)
	f[9] = capRatio(float64(len(u.Query())), 10)
	f[10] = capRatio(float64(strings.Count(strings.Trim(path, "/"), "/")), 10)
	f[11] = capRatio(entropy(host), 5)
	if strings.Contains(raw, "@") {
		f[12] = 1
	}
	if u.Port() != "" {
		f[13] = 1
	}
	if u.Scheme == "https" {
		f[14] = 1
	}
	f[15] = charRatio(path, isHex)
	f[16] = capRatio(float64(longestLabel(labels)), 63)
	for _, h := range rules.ShortenerHosts {
		if host == h {
			f[17] = 1
			break
		}
	}
	for _, kw := range rules.SuspiciousHostKeywords {
		if strings.Contains(host, kw) {
			f[18] = 1
			break
		}
	}
	f[19] = capRatio(float64(strings.Count(raw, "%")), 10)

	return f
}

func capRatio(v, max float64) float64 {
	if v >= max {
		return 1
	}
	return v / max
}

func charRatio(s string, pred func(rune) bool) float64 {
	if len(s) == 0 {
		return 0
	}
	hits := 0
	total := 0
	for _, r := range s {
		total++
		if pred(r) {
			hits++
		}
	}
	return float64(hits) / float64(total)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isSpecial(r rune) bool {
	switch r {
	case '-', '_', '~', '%', '=', '&', '?', '@', '!', '$':
		return true
	}
	return false
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func longestLabel(labels []string) int {
	longest := 0
	for _, l := range labels {
		if len(l) > longest {
			longest = len(l)
		}
	}
	return longest
}
