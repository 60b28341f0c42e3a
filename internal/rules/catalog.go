package rules

import "regexp"

// rule is a compile-time helper for catalog entries.
func rule(id, name, expr string, sev Severity, cat Category) DetectionRule {
	return DetectionRule{
		ID:       id,
		Name:     name,
		Expr:     regexp.MustCompile(expr),
		Severity: sev,
		Category: cat,
	}
}

// catalog holds every script detection rule. It is populated once at
// process start and treated as read-only afterwards.
var catalog = []DetectionRule{

	// --- Network exfiltration ---

	rule("net-001", "beacon to raw IP", `(?i)(fetch|XMLHttpRequest|sendBeacon)\s*\(?.{0,40}https?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`, SeverityHigh, CategoryNetwork),
	rule("net-002", "form data exfiltration", `(?i)(document\.forms|FormData)\s*[\(\[].{0,80}(fetch|XMLHttpRequest|sendBeacon|\.send)`, SeverityHigh, CategoryNetwork),
	rule("net-003", "cookie exfiltration", `(?i)document\.cookie.{0,80}(fetch|XMLHttpRequest|sendBeacon|\bsrc\s*=|\.send)`, SeverityCritical, CategoryNetwork),
	rule("net-004", "websocket to raw IP", `(?i)new\s+WebSocket\s*\(\s*["']wss?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`, SeverityHigh, CategoryNetwork),
	rule("net-005", "paste site upload", `(?i)(fetch|XMLHttpRequest|\.open)\s*\(.{0,60}(pastebin\.com|paste\.ee|hastebin|dpaste)`, SeverityHigh, CategoryNetwork),
	rule("net-006", "localStorage sweep and send", `(?i)(localStorage|sessionStorage)\s*(\.\w+|\[)[^;]{0,120}(fetch|XMLHttpRequest|sendBeacon)`, SeverityHigh, CategoryNetwork),

	// --- Cryptomining ---

	rule("mine-001", "known miner library", `(?i)\b(coinhive|cryptonight|coinimp|jsecoin|cryptoloot|deepminer|webminerpool|minero\.cc)\b`, SeverityCritical, CategoryCryptomining),
	rule("mine-002", "miner start call", `(?i)\.(start|startMining)\s*\(\s*\)[^;]{0,40};?\s*//?\s*(mine|hash)?|startMining\s*\(`, SeverityCritical, CategoryCryptomining),
	rule("mine-003", "hashrate throttle config", `(?i)\b(throttle|hashesPerSecond|hashRate|siteKey)\b.{0,40}\b(miner|CoinHive|CryptoLoot)\b`, SeverityHigh, CategoryCryptomining),
	rule("mine-004", "wasm miner bootstrap", `(?i)WebAssembly\.(instantiate|instantiateStreaming)\s*\(.{0,80}(miner|hash|cryptonight)`, SeverityHigh, CategoryCryptomining),
	rule("mine-005", "pool stratum endpoint", `(?i)wss?://[^\s"']{0,60}(pool|stratum|xmr|monero)[^\s"']{0,40}`, SeverityHigh, CategoryCryptomining),

	// --- Obfuscation ---

	rule("obf-001", "eval of decoded payload", `(?i)\beval\s*\(\s*(atob|unescape|decodeURIComponent|String\.fromCharCode)\s*\(`, SeverityHigh, CategoryObfuscation),
	rule("obf-002", "function constructor injection", `(?i)new\s+Function\s*\(\s*["']`, SeverityHigh, CategoryObfuscation),
	rule("obf-003", "long charcode chain", `String\.fromCharCode\s*\((\s*\d+\s*,){9,}`, SeverityMedium, CategoryObfuscation),
	rule("obf-004", "hex escaped identifier soup", `(\\x[0-9a-fA-F]{2}){8,}`, SeverityMedium, CategoryObfuscation),
	rule("obf-005", "packed script header", `(?i)eval\s*\(\s*function\s*\(\s*p\s*,\s*a\s*,\s*c\s*,\s*k\s*,\s*e\s*,`, SeverityHigh, CategoryObfuscation),
	rule("obf-006", "base64 blob execution", `(?i)(setTimeout|setInterval)\s*\(\s*atob\s*\(`, SeverityHigh, CategoryObfuscation),

	// --- DOM injection ---

	rule("inj-001", "document.write of script tag", `(?i)document\.write(ln)?\s*\(\s*["'][^"']*<script`, SeverityHigh, CategoryInjection),
	rule("inj-002", "innerHTML script injection", `(?i)\.(innerHTML|outerHTML)\s*[+]?=\s*[^;]{0,60}<script`, SeverityHigh, CategoryInjection),
	rule("inj-003", "dynamic script element to exotic host", `(?i)createElement\s*\(\s*["']script["']\s*\)[^;]{0,200}\.src\s*=\s*["']https?://[^"']+\.(tk|ml|ga|cf|gq|top|xyz)`, SeverityHigh, CategoryInjection),
	rule("inj-004", "iframe smuggling", `(?i)createElement\s*\(\s*["']iframe["']\s*\)[^;]{0,120}(hidden|display\s*:\s*none|visibility\s*:\s*hidden|width\s*=\s*["']?0)`, SeverityMedium, CategoryInjection),
	rule("inj-005", "javascript: URL assignment", `(?i)\.(href|src|action)\s*=\s*["']javascript:`, SeverityMedium, CategoryInjection),

	// --- Malware / keylogging ---

	rule("mal-001", "keystroke capture and send", `(?i)addEventListener\s*\(\s*["']key(down|press|up)["'][^;]{0,200}(fetch|XMLHttpRequest|sendBeacon|\.send|WebSocket)`, SeverityCritical, CategoryKeylogger),
	rule("mal-002", "global key listener buffer", `(?i)(onkey(down|press|up)\s*=|addEventListener\s*\(\s*["']key)[^;]{0,120}(push|\+=|concat)\s*\(?\s*(e|event)\.(key|keyCode|which)`, SeverityHigh, CategoryKeylogger),
	rule("mal-003", "clipboard snoop", `(?i)(navigator\.clipboard\.readText|addEventListener\s*\(\s*["']paste["'])[^;]{0,160}(fetch|XMLHttpRequest|sendBeacon|\.send)`, SeverityHigh, CategoryMalware),
	rule("mal-004", "password field harvest", `(?i)(querySelector(All)?|getElementsByTagName)\s*\([^)]*type\s*=\s*.?password[^;]{0,160}(value|fetch|send)`, SeverityCritical, CategoryKeylogger),
	rule("mal-005", "overlay credential prompt", `(?i)createElement\s*\(\s*["'](div|form)["']\s*\)[^;]{0,200}(password|credential|card\s*number|cvv)`, SeverityHigh, CategoryPhishing),

	// --- Tracking ---

	rule("trk-001", "canvas fingerprinting", `(?i)(toDataURL|getImageData)\s*\([^)]*\)[^;]{0,120}(hash|fingerprint|fp\b)`, SeverityMedium, CategoryTracking),
	rule("trk-002", "font probing loop", `(?i)(measureText|offsetWidth)[^;]{0,120}(font(Family|s)?\s*\[|fontList)`, SeverityLow, CategoryTracking),
	rule("trk-003", "battery or device probing", `(?i)navigator\.(getBattery|deviceMemory|hardwareConcurrency)\b[^;]{0,120}(fetch|send|track)`, SeverityLow, CategoryTracking),
	rule("trk-004", "history sniffing", `(?i)(getComputedStyle|matchMedia)\s*\([^)]*\)[^;]{0,80}visited`, SeverityMedium, CategoryTracking),
	rule("trk-005", "beacon on unload", `(?i)addEventListener\s*\(\s*["'](unload|beforeunload|pagehide)["'][^;]{0,120}sendBeacon`, SeverityLow, CategoryTracking),
}

// Catalog returns every detection rule. Callers must not mutate the
// returned slice.
func Catalog() []DetectionRule {
	return catalog
}

// InterceptCatalog returns the reduced rule subset used by the
// page-context execution interceptor: medium severity and above. The
// interceptor runs on every dynamic-code primitive, so the low tier is
// excluded to keep false positives down.
func InterceptCatalog() []DetectionRule {
	subset := make([]DetectionRule, 0, len(catalog))
	for _, r := range catalog {
		if r.Severity.Rank() >= SeverityMedium.Rank() {
			subset = append(subset, r)
		}
	}
	return subset
}

// ByID returns the rule with the given id, or nil.
func ByID(id string) *DetectionRule {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	return nil
}
