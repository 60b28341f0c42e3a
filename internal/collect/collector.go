// Package collect defines the page behavior collection contract and a
// headless-browser implementation of it.
package collect

import (
	"context"
	"strings"
)

// ScriptInfo describes one script observed on a page. External scripts
// carry a resolved URL and host; inline scripts carry a content hash
// and length.
type ScriptInfo struct {
	URL    string `json:"url,omitempty"`
	Host   string `json:"host,omitempty"`
	Inline bool   `json:"inline"`
	Hash   string `json:"hash,omitempty"`
	Length int    `json:"length,omitempty"`
}

// RequestInfo describes one network request observed during page load.
type RequestInfo struct {
	Host      string `json:"host"`
	Initiator string `json:"initiator,omitempty"`
	URL       string `json:"url"`
}

// IsWebSocket reports whether the request targets a WebSocket endpoint.
func (r RequestInfo) IsWebSocket() bool {
	return strings.HasPrefix(r.URL, "ws://") || strings.HasPrefix(r.URL, "wss://") ||
		r.Initiator == "websocket"
}

// PageBehavior is one observation snapshot of a loaded page.
type PageBehavior struct {
	Domain   string        `json:"domain"`
	Scripts  []ScriptInfo  `json:"scripts"`
	Requests []RequestInfo `json:"requests"`

	HasWebGL        bool `json:"has_webgl"`
	HasAudioContext bool `json:"has_audio_context"`
	HasWebRTC       bool `json:"has_webrtc"`
	HasSubtleCrypto bool `json:"has_subtle_crypto"`
}

// Collector gathers behavior data for a target page. Implementations
// must return (nil, nil) for denied or restricted targets rather than
// an error: a page that cannot be observed produces no signal, and a
// partial observation is never surfaced.
type Collector interface {
	Collect(ctx context.Context, target string) (*PageBehavior, error)
}
