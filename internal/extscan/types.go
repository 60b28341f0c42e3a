// Package extscan profiles installed browser extensions and flags risky
// permission, host, and version changes between scans.
package extscan

import (
	"context"
	"time"

	"github.com/subhanUmer/secureweb-engine/internal/rules"
)

// ExtensionInfo is one enumerated extension as reported by the browser.
type ExtensionInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Type            string   `json:"type"`
	UpdateChannel   string   `json:"update_channel"`
	Enabled         bool     `json:"enabled"`
	Permissions     []string `json:"permissions"`
	HostPermissions []string `json:"host_permissions"`
}

// Enumerator lists installed extensions. List returns (nil, nil) when the
// management API is unavailable or denied; the scan cycle is skipped.
type Enumerator interface {
	List(ctx context.Context) ([]ExtensionInfo, error)
	// SelfID identifies the engine's own extension, excluded from scans.
	SelfID() string
}

// ChangeType classifies what moved between two scans of an extension.
type ChangeType string

const (
	ChangePermission ChangeType = "permission"
	ChangeCode       ChangeType = "code"
	ChangeBehavior   ChangeType = "behavior"
	ChangeNetwork    ChangeType = "network"
)

// Change is one observed difference, with a 1..10 risk level.
type Change struct {
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	RiskLevel   int        `json:"risk_level"`
}

// Profile is the stored state for one extension, rewritten on every scan.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Version         string    `json:"version"`
	Permissions     []string  `json:"permissions"`
	HostPermissions []string  `json:"host_permissions"`
	RiskScore       int       `json:"risk_score"`
	LastChecked     time.Time `json:"last_checked"`
}

// Anomaly reports one extension whose footprint changed in a way worth
// acting on.
type Anomaly struct {
	ExtensionID    string               `json:"extension_id"`
	Name           string               `json:"name"`
	Severity       rules.Severity       `json:"severity"`
	Confidence     float64              `json:"confidence"`
	Changes        []Change             `json:"changes"`
	Recommendation rules.Recommendation `json:"recommendation"`
	Timestamp      time.Time            `json:"timestamp"`
}
