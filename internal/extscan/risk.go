package extscan

// riskyPermissions are the API permissions that individually raise an
// extension's composite risk score.
var riskyPermissions = map[string]bool{
	"cookies":            true,
	"webRequest":         true,
	"webRequestBlocking": true,
	"proxy":              true,
	"debugger":           true,
	"management":         true,
	"nativeMessaging":    true,
	"desktopCapture":     true,
	"tabCapture":         true,
	"pageCapture":        true,
}

// wildcardHosts match every origin the browser will grant.
var wildcardHosts = map[string]bool{
	"<all_urls>":  true,
	"*://*/*":     true,
	"http://*/*":  true,
	"https://*/*": true,
}

const (
	riskPerRiskyPermission = 20
	riskyPermissionCeiling = 60
	riskWildcardHosts      = 30
	riskManyHosts          = 15
	riskOffChannel         = 25
	riskInterceptAndTabs   = 20
	manyHostsThreshold     = 10
	maxRiskScore           = 100
)

// RiskScore computes the 0..100 composite exposure score for an extension's
// current permission and provenance footprint.
func RiskScore(info ExtensionInfo) int {
	score := 0

	risky := 0
	for _, p := range info.Permissions {
		if riskyPermissions[p] {
			risky += riskPerRiskyPermission
		}
	}
	if risky > riskyPermissionCeiling {
		risky = riskyPermissionCeiling
	}
	score += risky

	if hasWildcardHost(info.HostPermissions) {
		score += riskWildcardHosts
	}
	if len(info.HostPermissions) > manyHostsThreshold {
		score += riskManyHosts
	}
	if offChannel(info.UpdateChannel) {
		score += riskOffChannel
	}
	if hasPermission(info.Permissions, "webRequest") && hasPermission(info.Permissions, "tabs") {
		score += riskInterceptAndTabs
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}

// offChannel reports whether the extension arrived outside the canonical
// update channel. An empty channel is treated as canonical so that an
// enumerator that cannot report provenance does not inflate every score.
func offChannel(channel string) bool {
	switch channel {
	case "", "stable", "normal":
		return false
	}
	return true
}

func hasWildcardHost(hosts []string) bool {
	for _, h := range hosts {
		if wildcardHosts[h] {
			return true
		}
	}
	return false
}

func hasPermission(perms []string, want string) bool {
	for _, p := range perms {
		if p == want {
			return true
		}
	}
	return false
}

// permissionRiskLevel maps a newly granted permission to a 1..10 change
// risk level.
func permissionRiskLevel(perm string) int {
	switch perm {
	case "debugger":
		return 10
	case "proxy", "nativeMessaging":
		return 9
	}
	if riskyPermissions[perm] {
		return 8
	}
	switch perm {
	case "tabs", "history", "downloads", "clipboardRead":
		return 6
	}
	return 4
}
