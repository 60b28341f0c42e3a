package urlscan

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// checkTyposquat compares the hostname against the protected brand list.
// Two independent sub-checks run per brand: normalized edit distance and
// lookalike character substitution.
func checkTyposquat(host string) []rules.Indicator {
	base := baseLabel(host)
	tokens := hostTokens(host)

	var out []rules.Indicator
	for _, brand := range rules.ProtectedBrands {
		// The brand's own registrable domain is exempt, including www.
		if base == brand {
			continue
		}

		flaggedHigh, flaggedCritical := false, false
		for _, tok := range tokens {
			if !flaggedHigh && editSimilar(tok, brand) {
				out = append(out, indicator("typosquatting", rules.SeverityHigh,
					fmt.Sprintf("domain resembles brand %q", brand), tok))
				flaggedHigh = true
			}
			if !flaggedCritical && lookalikeMatch(tok, brand) {
				out = append(out, indicator("typosquatting", rules.SeverityCritical,
					fmt.Sprintf("lookalike characters impersonating brand %q", brand), tok))
				flaggedCritical = true
			}
		}
	}
	return out
}

// baseLabel returns the first label of the registrable domain, so both
// "facebook.com" and "www.facebook.com" reduce to "facebook".
func baseLabel(host string) string {
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if i := strings.IndexByte(etld1, '.'); i > 0 {
			return etld1[:i]
		}
		return etld1
	}
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// hostTokens splits every label of the host on dashes, so a host like
// "paypa1-secure-login.tk" is checked token by token.
func hostTokens(host string) []string {
	var tokens []string
	for _, label := range strings.Split(host, ".") {
		for _, tok := range strings.Split(label, "-") {
			if len(tok) >= 4 {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// editSimilar reports whether the token is within the typosquatting
// window of the brand: similarity above 0.8 and absolute distance of at
// most 2.
func editSimilar(tok, brand string) bool {
	d := levenshtein(tok, brand)
	maxLen := len(tok)
	if len(brand) > maxLen {
		maxLen = len(brand)
	}
	if maxLen == 0 {
		return false
	}
	similarity := 1.0 - float64(d)/float64(maxLen)
	return similarity > 0.8 && d <= 2
}

// lookalikeMatch reports whether tok is obtainable from brand by
// substituting lookalike characters: at least one substitution, at
// least 80% of positions matching or lookalike-matching, and a length
// difference of at most 2.
func lookalikeMatch(tok, brand string) bool {
	diff := len(tok) - len(brand)
	if diff < -2 || diff > 2 {
		return false
	}

	tr, br := []rune(tok), []rune(brand)
	n := len(tr)
	if len(br) < n {
		n = len(br)
	}
	matched, substituted := 0, 0
	for i := 0; i < n; i++ {
		switch {
		case tr[i] == br[i]:
			matched++
		case isLookalike(tr[i], br[i]):
			matched++
			substituted++
		}
	}

	maxLen := len(tr)
	if len(br) > maxLen {
		maxLen = len(br)
	}
	return substituted > 0 && float64(matched)/float64(maxLen) >= 0.8
}

// isLookalike checks the substitution table in both directions.
func isLookalike(a, b rune) bool {
	for _, c := range rules.LookalikeChars[b] {
		if c == a {
			return true
		}
	}
	for _, c := range rules.LookalikeChars[a] {
		if c == b {
			return true
		}
	}
	return false
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
