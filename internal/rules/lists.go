package rules

// Static lists consumed by the URL analyzer and the behavior detector.
// Like the rule catalog these are loaded once and never mutated.

// --- Allow-list ---

// SafeDomains are well-known registrable domains that skip full URL
// analysis entirely (exact or subdomain match).
var SafeDomains = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"wikipedia.org",
	"amazon.com",
	"microsoft.com",
	"apple.com",
	"github.com",
	"stackoverflow.com",
	"mozilla.org",
	"cloudflare.com",
	"twitter.com",
	"linkedin.com",
	"reddit.com",
	"netflix.com",
}

// --- Suspicious TLDs ---

// SuspiciousTLDs are top-level domains with a disproportionate share of
// abuse reports. Matched as host suffixes including the dot.
var SuspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq",
	".xyz", ".top", ".club", ".work", ".click",
	".loan", ".racing", ".download", ".stream", ".review",
	".country", ".science", ".gdn", ".men", ".date",
}

// --- URL shorteners ---

// ShortenerHosts hide the final destination of a link.
var ShortenerHosts = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly",
	"is.gd", "buff.ly", "rebrand.ly", "cutt.ly", "shorturl.at",
}

// --- Brand impersonation ---

// ProtectedBrands are the names checked by the typosquatting and
// lookalike sub-checks.
var ProtectedBrands = []string{
	"google", "facebook", "amazon", "apple", "microsoft",
	"paypal", "netflix", "instagram", "whatsapp", "twitter",
	"linkedin", "ebay", "chase", "wellsfargo", "coinbase",
	"binance", "steam", "discord", "dropbox", "adobe",
}

// LookalikeChars maps a character to the characters commonly substituted
// for it in typosquatted domains.
var LookalikeChars = map[rune][]rune{
	'o': {'0'},
	'0': {'o'},
	'l': {'1', 'i', '|'},
	'1': {'l', 'i'},
	'i': {'1', 'l', '!'},
	'e': {'3'},
	'3': {'e'},
	'a': {'@', '4'},
	's': {'5', '$'},
	'5': {'s'},
	'g': {'9', 'q'},
	'b': {'8'},
	't': {'7', '+'},
	'z': {'2'},
	'm': {'n'},
	'n': {'m'},
	'u': {'v'},
	'v': {'u', 'w'},
}

// --- Suspicious URL structure ---

// SuspiciousHostKeywords are phishing bait words inside a hostname.
var SuspiciousHostKeywords = []string{
	"secure", "login", "signin", "verify", "account",
	"update", "confirm", "banking", "support", "webscr",
	"authenticate", "wallet", "recover",
}

// SuspiciousPathSegments are path components typical of credential
// harvesting pages.
var SuspiciousPathSegments = []string{
	"login", "signin", "verify", "secure", "account",
	"update", "confirm", "password", "banking", "webscr",
	"recover", "unlock", "billing",
}

// SuspiciousQueryParams are query parameter names that should never
// carry plaintext values across the wire.
var SuspiciousQueryParams = []string{
	"password", "passwd", "pwd", "pass",
	"ssn", "credit", "card", "cvv", "cvc", "pin",
	"token", "secret", "apikey",
}

// SuspiciousPorts are non-standard ports associated with C2 channels and
// throwaway servers.
var SuspiciousPorts = map[string]bool{
	"1337": true, "4444": true, "6666": true, "8888": true, "31337": true,
}

// --- Cryptomining signals ---

// MinerDomains are hosts known to serve browser miners or act as mining
// pool gateways.
var MinerDomains = []string{
	"coinhive.com", "coin-hive.com", "jsecoin.com",
	"cryptoloot.pro", "crypto-loot.com", "coinimp.com",
	"webminerpool.com", "minero.cc", "authedmine.com",
	"monerominer.rocks", "cryptonoter.com",
}

// MinerKeywords are substrings flagged inside script and request URLs by
// the crypto-mining composite check.
var MinerKeywords = []string{
	"coinhive", "cryptonight", "coinimp", "jsecoin",
	"cryptoloot", "deepminer", "webminerpool", "minero",
	"monero", "stratum", "hashrate",
}

// --- Interceptor false-positive guard ---

// InterceptGuardKeywords disqualify a short text from the trivial-text
// exemption in the execution interceptor. Anything under the trivial
// length containing none of these is allowed without a scan.
var InterceptGuardKeywords = []string{
	"eval", "atob", "fetch", "cookie", "script",
	"window", "document", "location", "iframe",
}
