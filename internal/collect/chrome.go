package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const defaultCollectTimeout = 10 * time.Second

// ChromeCollector observes page behavior with a headless Chrome
// instance over the DevTools protocol.
type ChromeCollector struct {
	log     zerolog.Logger
	timeout time.Duration
}

// NewChromeCollector creates a collector. A zero timeout uses the
// default.
func NewChromeCollector(log zerolog.Logger, timeout time.Duration) *ChromeCollector {
	if timeout == 0 {
		timeout = defaultCollectTimeout
	}
	return &ChromeCollector{log: log, timeout: timeout}
}

// pageProbe is the shape returned by the in-page evaluation.
type pageProbe struct {
	Scripts []struct {
		Src  string `json:"src"`
		Text string `json:"text"`
	} `json:"scripts"`
	HasWebGL        bool `json:"webgl"`
	HasAudioContext bool `json:"audio"`
	HasWebRTC       bool `json:"webrtc"`
	HasSubtleCrypto bool `json:"subtle"`
}

const probeScript = `
JSON.stringify({
	scripts: Array.from(document.scripts).slice(0, 50).map(s => ({
		src: s.src || "",
		text: s.src ? "" : (s.text || "").slice(0, 4096)
	})),
	webgl: (() => { try { const c = document.createElement('canvas'); return !!(c.getContext('webgl') || c.getContext('experimental-webgl')); } catch (e) { return false; } })(),
	audio: typeof AudioContext !== 'undefined' || typeof webkitAudioContext !== 'undefined',
	webrtc: typeof RTCPeerConnection !== 'undefined',
	subtle: !!(window.crypto && window.crypto.subtle)
})`

// Collect navigates to the target and captures scripts, network
// requests, and API presence flags. Denied or unreachable targets
// return (nil, nil): no signal, never a partial observation.
func (c *ChromeCollector) Collect(ctx context.Context, target string) (*PageBehavior, error) {
	chromePath := findChromePath()
	if chromePath == "" {
		c.log.Warn().Msg("no chrome binary found, behavior collection unavailable")
		return nil, nil
	}

	host := hostOf(target)
	if host == "" {
		return nil, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, c.timeout)
	defer timeoutCancel()

	var mu sync.Mutex
	var requests []RequestInfo

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if req, ok := ev.(*network.EventRequestWillBeSent); ok {
			mu.Lock()
			requests = append(requests, RequestInfo{
				Host:      hostOf(req.Request.URL),
				Initiator: initiatorType(req),
				URL:       req.Request.URL,
			})
			mu.Unlock()
		}
	})

	var probeJSON string
	err := chromedp.Run(timeoutCtx,
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(probeScript, &probeJSON),
	)
	if err != nil {
		// Navigation failures and timeouts are treated the same as a
		// denied collection: no observation is surfaced.
		c.log.Debug().Err(err).Str("target", target).Msg("behavior collection failed")
		return nil, nil
	}

	var probe pageProbe
	if err := json.Unmarshal([]byte(probeJSON), &probe); err != nil {
		c.log.Debug().Err(err).Msg("unparsable page probe")
		return nil, nil
	}

	pb := &PageBehavior{
		Domain:          host,
		HasWebGL:        probe.HasWebGL,
		HasAudioContext: probe.HasAudioContext,
		HasWebRTC:       probe.HasWebRTC,
		HasSubtleCrypto: probe.HasSubtleCrypto,
	}

	for _, s := range probe.Scripts {
		if s.Src != "" {
			pb.Scripts = append(pb.Scripts, ScriptInfo{
				URL:    s.Src,
				Host:   hostOf(s.Src),
				Inline: false,
			})
			continue
		}
		if s.Text == "" {
			continue
		}
		pb.Scripts = append(pb.Scripts, ScriptInfo{
			Inline: true,
			Hash:   HashContent(s.Text),
			Length: len(s.Text),
		})
	}

	mu.Lock()
	pb.Requests = append(pb.Requests, requests...)
	mu.Unlock()

	return pb, nil
}

// HashContent returns the hex SHA-256 of inline script content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func initiatorType(req *network.EventRequestWillBeSent) string {
	if req.Type == network.ResourceTypeWebSocket {
		return "websocket"
	}
	if req.Initiator != nil {
		return string(req.Initiator.Type)
	}
	return ""
}

func findChromePath() string {
	candidates := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range candidates {
		if _, err := exec.LookPath(p); err == nil {
			return p
		}
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}
