package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhanUmer/secureweb-engine/internal/behavior"
	"github.com/subhanUmer/secureweb-engine/internal/extscan"
	"github.com/subhanUmer/secureweb-engine/internal/notify"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

type capturingNotifier struct {
	sent []notify.Notification
}

func (c *capturingNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

type stubController struct {
	disabled []string
	err      error
}

func (s *stubController) Disable(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.disabled = append(s.disabled, id)
	return nil
}

func behaviorAnomaly(rec rules.Recommendation) Anomaly {
	a := FromBehavior(&behavior.Anomaly{
		Domain:     "news.example.org",
		Severity:   rules.SeverityHigh,
		Confidence: 0.8,
		Indicators: []rules.Indicator{
			{Category: "new_scripts", Description: "3 script(s) not seen during baseline", Score: 6},
			{Category: "new_network_domains", Description: "2 network domain(s) not seen during baseline", Score: 2},
		},
		Recommendation: rec,
		Timestamp:      time.Now(),
	})
	return a
}

func extensionAnomaly(rec rules.Recommendation) Anomaly {
	return FromExtension(extscan.Anomaly{
		ExtensionID: "ext-1",
		Name:        "Helper",
		Severity:    rules.SeverityHigh,
		Confidence:  0.9,
		Changes: []extscan.Change{
			{Type: extscan.ChangePermission, Description: `new permission "cookies" granted`, RiskLevel: 8},
		},
		Recommendation: rec,
		Timestamp:      time.Now(),
	})
}

func TestHandle_MonitorRecordsWithoutAction(t *testing.T) {
	notifier := &capturingNotifier{}
	d := New(zerolog.Nop(), notifier, nil, nil)

	d.Handle(context.Background(), behaviorAnomaly(rules.RecommendMonitor))

	assert.Empty(t, notifier.sent)
	assert.Equal(t, uint64(1), d.Handled())
	require.Len(t, d.History(), 1)
}

func TestHandle_WarnBuildsMessageFromTopIndicator(t *testing.T) {
	notifier := &capturingNotifier{}
	d := New(zerolog.Nop(), notifier, nil, nil)

	d.Handle(context.Background(), behaviorAnomaly(rules.RecommendWarn))

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Contains(t, n.Message, "3 script(s) not seen during baseline")
	assert.Contains(t, n.Message, "(+1 more)")
	assert.Contains(t, n.Message, "80% confidence")
	assert.Equal(t, notify.PriorityNormal, n.Priority)
}

func TestHandle_BlockPersistsRecordAndWarns(t *testing.T) {
	notifier := &capturingNotifier{}
	st := store.NewMemory()
	d := New(zerolog.Nop(), notifier, nil, st)

	a := behaviorAnomaly(rules.RecommendBlock)
	d.Handle(context.Background(), a)

	data, err := st.Get("block_news.example.org")
	require.NoError(t, err)
	var rec BlockRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "news.example.org", rec.Target)
	assert.Equal(t, a.ID, rec.AnomalyID)

	assert.Len(t, notifier.sent, 1, "block also warns the user")
}

func TestHandle_DisableInvokesController(t *testing.T) {
	notifier := &capturingNotifier{}
	ctrl := &stubController{}
	d := New(zerolog.Nop(), notifier, ctrl, nil)

	d.Handle(context.Background(), extensionAnomaly(rules.RecommendDisable))

	assert.Equal(t, []string{"ext-1"}, ctrl.disabled)
	assert.Empty(t, notifier.sent, "successful disable needs no warning")
}

func TestHandle_DisableFallsBackToWarn(t *testing.T) {
	tests := []struct {
		name string
		ctrl ExtensionController
	}{
		{"capability denied", &stubController{err: ErrDenied}},
		{"no controller wired", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &capturingNotifier{}
			d := New(zerolog.Nop(), notifier, tc.ctrl, nil)

			d.Handle(context.Background(), extensionAnomaly(rules.RecommendDisable))

			require.Len(t, notifier.sent, 1)
			assert.Contains(t, notifier.sent[0].Message, "cookies")
		})
	}
}

func TestHandle_UninstallPromptsInteractively(t *testing.T) {
	notifier := &capturingNotifier{}
	d := New(zerolog.Nop(), notifier, nil, nil)

	d.Handle(context.Background(), extensionAnomaly(rules.RecommendUninstall))

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, notify.PriorityHigh, n.Priority)
	assert.True(t, n.RequireInteraction)
	assert.Equal(t, []string{"Uninstall", "Review details"}, n.Actions)
	assert.Contains(t, n.Title, "Helper")
}

func TestHandle_HistoryIsCappedNewestFirst(t *testing.T) {
	d := New(zerolog.Nop(), nil, nil, nil)

	for i := 0; i < 150; i++ {
		a := behaviorAnomaly(rules.RecommendMonitor)
		a.Target = fmt.Sprintf("site%d.example.org", i)
		d.Handle(context.Background(), a)
	}

	history := d.History()
	require.Len(t, history, 100)
	assert.Equal(t, "site149.example.org", history[0].Target)
	assert.Equal(t, "site50.example.org", history[99].Target)
	assert.Equal(t, uint64(150), d.Handled())
}

func TestFromBehavior_Envelope(t *testing.T) {
	a := behaviorAnomaly(rules.RecommendWarn)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, KindBehavior, a.Kind)
	assert.Equal(t, "news.example.org", a.Target)
	assert.NotNil(t, a.Behavior)
	assert.Nil(t, a.Extension)
}

func TestFromExtension_Envelope(t *testing.T) {
	a := extensionAnomaly(rules.RecommendDisable)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, KindExtension, a.Kind)
	assert.Equal(t, "ext-1", a.Target)
	assert.Equal(t, "Helper", a.Name)
	assert.NotNil(t, a.Extension)
}
