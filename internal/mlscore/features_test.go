package mlscore

import (
	"context"
	"testing"
)

func TestFeatures_Deterministic(t *testing.T) {
	a := Features("https://secure-login.paypa1.tk/verify?id=1")
	b := Features("https://secure-login.paypa1.tk/verify?id=1")
	if a != b {
		t.Error("identical URLs must produce identical feature vectors")
	}
}

func TestFeatures_Bounds(t *testing.T) {
	urls := []string{
		"https://example.com/",
		"http://192.168.1.1:8080/admin",
		"http://a-b-c-d-e-f-g.suspicious-host.tk/%41%42%43?a=1&b=2&c=3",
		"not a url at all %%%",
		"",
	}
	for _, raw := range urls {
		f := Features(raw)
		for i, v := range f {
			if v < 0 || v > 1 {
				t.Errorf("Features(%q)[%d] = %v, outside [0,1]", raw, i, v)
			}
		}
	}
}

func TestFeatures_SignalPositions(t *testing.T) {
	f := Features("http://192.168.1.1:4444/x")
	if f[6] != 1 {
		t.Error("IP host flag not set")
	}
	if f[13] != 1 {
		t.Error("explicit port flag not set")
	}
	if f[14] != 0 {
		t.Error("https flag set for http URL")
	}

	f = Features("https://bit.ly/abc123")
	if f[17] != 1 {
		t.Error("shortener flag not set for bit.ly")
	}
	if f[14] != 1 {
		t.Error("https flag not set")
	}
}

func TestFeatures_UnparsableIsZeroVector(t *testing.T) {
	f := Features("http://%zz%%/")
	if f != ([FeatureCount]float64{}) {
		t.Errorf("expected zero vector for unparsable URL, got %v", f)
	}
}

func TestNoopClassifier(t *testing.T) {
	res, err := Noop{}.Classify(context.Background(), Features("https://example.com"))
	if res != nil || err != nil {
		t.Errorf("noop classifier must return (nil, nil), got (%v, %v)", res, err)
	}
}
