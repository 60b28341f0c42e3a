package urlscan

import (
	"testing"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"facebook", "facebook", 0},
		{"facebok", "facebook", 1},
		{"faceb00k", "facebook", 2},
		{"", "abc", 3},
		{"paypal", "paypa1", 1},
		{"kitten", "sitting", 3},
	}
	for _, tc := range tests {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestCheckTyposquat_LookalikeCritical(t *testing.T) {
	inds := checkTyposquat("faceb00k.com")
	found := false
	for _, ind := range inds {
		if ind.Category == "typosquatting" && ind.Severity == rules.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("expected critical lookalike indicator for faceb00k.com, got %+v", inds)
	}
}

func TestCheckTyposquat_EditDistanceHigh(t *testing.T) {
	inds := checkTyposquat("facebok.com")
	found := false
	for _, ind := range inds {
		if ind.Category == "typosquatting" && ind.Severity == rules.SeverityHigh {
			found = true
		}
		if ind.Severity == rules.SeverityCritical {
			t.Errorf("facebok.com is edit distance 1, not a lookalike substitution: %+v", ind)
		}
	}
	if !found {
		t.Errorf("expected high typosquatting indicator for facebok.com, got %+v", inds)
	}
}

func TestCheckTyposquat_ExactDomainExempt(t *testing.T) {
	for _, host := range []string{"paypal.com", "www.paypal.com"} {
		if inds := checkTyposquat(host); len(inds) != 0 {
			t.Errorf("%s: expected no typosquatting indicators, got %+v", host, inds)
		}
	}
}

func TestCheckTyposquat_SubdomainImpersonation(t *testing.T) {
	// The brand as a subdomain of an unrelated registrable domain is
	// not exempt.
	inds := checkTyposquat("paypal.evil-zone.net")
	if len(inds) == 0 {
		t.Error("expected typosquatting indicator for paypal.evil-zone.net")
	}
}

func TestLookalikeMatch(t *testing.T) {
	tests := []struct {
		tok, brand string
		want       bool
	}{
		{"faceb00k", "facebook", true},
		{"paypa1", "paypal", true},
		{"g00gle", "google", true},
		{"facebook", "facebook", false}, // no substitution at all
		{"zzzzzzzz", "facebook", false},
		{"fb", "facebook", false}, // outside length tolerance
	}
	for _, tc := range tests {
		if got := lookalikeMatch(tc.tok, tc.brand); got != tc.want {
			t.Errorf("lookalikeMatch(%q, %q): expected %v, got %v", tc.tok, tc.brand, got, tc.want)
		}
	}
}

func TestHostTokens(t *testing.T) {
	tokens := hostTokens("paypa1-secure-login.tk")
	want := map[string]bool{"paypa1": true, "secure": true, "login": true}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
		delete(want, tok)
	}
	if len(want) != 0 {
		t.Errorf("missing tokens: %v", want)
	}
}
