package urlscan

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

func indicator(category string, sev rules.Severity, desc string, evidence any) rules.Indicator {
	return rules.Indicator{
		Category:    category,
		Severity:    sev,
		Description: desc,
		Score:       sev.Weight(),
		Evidence:    evidence,
	}
}

// checkIPHost flags hosts that are literal IP addresses.
func checkIPHost(host string) []rules.Indicator {
	if net.ParseIP(host) == nil {
		return nil
	}
	return []rules.Indicator{
		indicator("ip_address", rules.SeverityHigh, "host is a literal IP address", host),
	}
}

// checkSuspiciousTLD flags membership in the abuse-heavy TLD list.
func checkSuspiciousTLD(host string) []rules.Indicator {
	for _, tld := range rules.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return []rules.Indicator{
				indicator("suspicious_tld", rules.SeverityHigh,
					fmt.Sprintf("suspicious top-level domain %q", tld), host),
			}
		}
	}
	return nil
}

// checkSubdomainDepth flags hosts nested more than five labels deep.
func checkSubdomainDepth(host string) []rules.Indicator {
	if strings.Count(host, ".")+1 <= 5 {
		return nil
	}
	return []rules.Indicator{
		indicator("subdomain_depth", rules.SeverityMedium, "excessive subdomain depth", host),
	}
}

// checkHomograph flags hostnames mixing Latin with Cyrillic or Greek
// letters, the classic homograph impersonation trick.
func checkHomograph(host string) []rules.Indicator {
	var latin, confusable bool
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z':
			latin = true
		case unicode.Is(unicode.Cyrillic, r) || unicode.Is(unicode.Greek, r):
			confusable = true
		}
	}
	if !latin || !confusable {
		return nil
	}
	return []rules.Indicator{
		indicator("homograph", rules.SeverityHigh, "mixed-script hostname", host),
	}
}

// checkPathSegments flags credential-harvesting path components.
func checkPathSegments(path string) []rules.Indicator {
	var out []rules.Indicator
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		for _, bad := range rules.SuspiciousPathSegments {
			if seg == bad {
				out = append(out, indicator("suspicious_path", rules.SeverityMedium,
					fmt.Sprintf("suspicious path segment %q", seg), seg))
				break
			}
		}
	}
	return out
}

// checkQueryParams flags query parameter names that should never carry
// plaintext values.
func checkQueryParams(u *url.URL) []rules.Indicator {
	var out []rules.Indicator
	for name := range u.Query() {
		lower := strings.ToLower(name)
		for _, bad := range rules.SuspiciousQueryParams {
			if lower == bad {
				out = append(out, indicator("suspicious_param", rules.SeverityMedium,
					fmt.Sprintf("suspicious query parameter %q", name), name))
				break
			}
		}
	}
	return out
}

// checkShortener flags known URL shortener hosts.
func checkShortener(host string) []rules.Indicator {
	for _, s := range rules.ShortenerHosts {
		if host == s {
			return []rules.Indicator{
				indicator("url_shortener", rules.SeverityMedium, "known URL shortener", host),
			}
		}
	}
	return nil
}

// checkPort flags non-standard ports; a handful of well-known C2 ports
// escalate to high.
func checkPort(u *url.URL) []rules.Indicator {
	port := u.Port()
	if port == "" || port == "80" || port == "443" {
		return nil
	}
	sev := rules.SeverityMedium
	if rules.SuspiciousPorts[port] {
		sev = rules.SeverityHigh
	}
	return []rules.Indicator{
		indicator("suspicious_port", sev, fmt.Sprintf("non-standard port %s", port), port),
	}
}

// checkHostKeywords flags phishing bait words embedded in the hostname.
// All hits fold into a single indicator so a keyword-stuffed host does
// not swamp the average.
func checkHostKeywords(host string) []rules.Indicator {
	var found []string
	for _, kw := range rules.SuspiciousHostKeywords {
		if strings.Contains(host, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return []rules.Indicator{
		indicator("host_keyword", rules.SeverityMedium,
			fmt.Sprintf("suspicious keyword %q in hostname", found[0]), found),
	}
}

// checkDashes flags hostnames with consecutive or excessive dashes.
func checkDashes(host string) []rules.Indicator {
	if !strings.Contains(host, "--") && strings.Count(host, "-") <= 3 {
		return nil
	}
	return []rules.Indicator{
		indicator("excessive_dashes", rules.SeverityLow, "excessive dashes in hostname", host),
	}
}
