package collect

import "testing"

func TestRequestInfo_IsWebSocket(t *testing.T) {
	tests := []struct {
		req  RequestInfo
		want bool
	}{
		{RequestInfo{URL: "wss://pool.example-mine.net/ws"}, true},
		{RequestInfo{URL: "ws://example.net/ws"}, true},
		{RequestInfo{URL: "https://example.net/api", Initiator: "websocket"}, true},
		{RequestInfo{URL: "https://example.net/api", Initiator: "script"}, false},
	}
	for _, tc := range tests {
		if got := tc.req.IsWebSocket(); got != tc.want {
			t.Errorf("IsWebSocket(%+v): expected %v, got %v", tc.req, tc.want, got)
		}
	}
}

func TestHashContent_Deterministic(t *testing.T) {
	a := HashContent("var x = 1;")
	b := HashContent("var x = 1;")
	c := HashContent("var x = 2;")

	if a != b {
		t.Error("same content must hash identically")
	}
	if a == c {
		t.Error("different content must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256 length 64, got %d", len(a))
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://CDN.Example.net:8443/x.js"); got != "cdn.example.net" {
		t.Errorf("expected lowercased host, got %q", got)
	}
	if got := hostOf("::notaurl::"); got != "" {
		t.Errorf("expected empty host for junk input, got %q", got)
	}
}
