package extscan

import "fmt"

const (
	hostChangeRiskLevel    = 5
	wildcardHostMultiplier = 2
	versionChangeRiskLevel = 5
	riskIncreaseLevel      = 5

	// DefaultRiskDelta is the score increase that flags a behavior change.
	DefaultRiskDelta = 20
)

// diffProfile compares a stored profile against the current enumeration and
// returns the set of changes. Only additions count: dropping a permission
// is never a threat signal. A nil stored profile means first observation,
// which produces no changes.
func diffProfile(stored *Profile, current ExtensionInfo, newScore, riskDelta int) []Change {
	if stored == nil {
		return nil
	}

	var changes []Change

	known := toLookup(stored.Permissions)
	for _, p := range current.Permissions {
		if known[p] {
			continue
		}
		changes = append(changes, Change{
			Type:        ChangePermission,
			Description: fmt.Sprintf("new permission %q granted", p),
			NewValue:    p,
			RiskLevel:   permissionRiskLevel(p),
		})
	}

	knownHosts := toLookup(stored.HostPermissions)
	hadWildcard := hasWildcardHost(stored.HostPermissions)
	for _, h := range current.HostPermissions {
		if knownHosts[h] {
			continue
		}
		level := hostChangeRiskLevel
		if !hadWildcard && wildcardHosts[h] {
			level *= wildcardHostMultiplier
		}
		changes = append(changes, Change{
			Type:        ChangeNetwork,
			Description: fmt.Sprintf("new host access %q granted", h),
			NewValue:    h,
			RiskLevel:   level,
		})
	}

	if stored.Version != "" && current.Version != stored.Version {
		changes = append(changes, Change{
			Type:        ChangeCode,
			Description: "extension code updated",
			OldValue:    stored.Version,
			NewValue:    current.Version,
			RiskLevel:   versionChangeRiskLevel,
		})
	}

	if newScore-stored.RiskScore > riskDelta {
		changes = append(changes, Change{
			Type:        ChangeBehavior,
			Description: "composite risk score increased sharply",
			OldValue:    fmt.Sprintf("%d", stored.RiskScore),
			NewValue:    fmt.Sprintf("%d", newScore),
			RiskLevel:   riskIncreaseLevel,
		})
	}

	return changes
}

func toLookup(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
