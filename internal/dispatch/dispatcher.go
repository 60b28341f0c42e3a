package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/notify"
	"github.com/subhanUmer/secureweb-engine/internal/ringlog"
	"github.com/subhanUmer/secureweb-engine/internal/rules"
	"github.com/subhanUmer/secureweb-engine/internal/store"
)

const (
	historyCapacity = 100
	blockKeyPrefix  = "block_"
)

// ErrDenied is returned by an ExtensionController whose capability the
// host environment refused.
var ErrDenied = errors.New("dispatch: capability denied")

// ExtensionController disables extensions on the engine's behalf.
type ExtensionController interface {
	Disable(ctx context.Context, extensionID string) error
}

// BlockRecord is persisted when an anomaly's recommendation is block.
type BlockRecord struct {
	Target    string    `json:"target"`
	AnomalyID string    `json:"anomaly_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher records anomalies and performs exactly one response action
// per anomaly. All collaborators are optional; a missing capability
// degrades to the next weaker action rather than failing.
type Dispatcher struct {
	log        zerolog.Logger
	notifier   notify.Notifier
	controller ExtensionController
	store      store.Store

	history *ringlog.Log[Anomaly]
	handled atomic.Uint64
}

func New(log zerolog.Logger, notifier notify.Notifier, controller ExtensionController, st store.Store) *Dispatcher {
	return &Dispatcher{
		log:        log,
		notifier:   notifier,
		controller: controller,
		store:      st,
		history:    ringlog.New[Anomaly](historyCapacity),
	}
}

// Handle records the anomaly and performs its recommended action.
func (d *Dispatcher) Handle(ctx context.Context, a Anomaly) {
	d.log.Warn().
		Str("anomaly", a.ID).
		Str("kind", string(a.Kind)).
		Str("target", a.Target).
		Str("severity", string(a.Severity)).
		Str("recommendation", string(a.Recommendation)).
		Float64("confidence", a.Confidence).
		Msg("anomaly dispatched")

	d.history.Append(a)
	d.handled.Add(1)

	switch a.Recommendation {
	case rules.RecommendBlock:
		d.persistBlock(a)
		d.warn(ctx, a)
	case rules.RecommendWarn:
		d.warn(ctx, a)
	case rules.RecommendDisable:
		d.disable(ctx, a)
	case rules.RecommendUninstall:
		d.promptUninstall(ctx, a)
	default:
		// monitor: recorded above, no external action.
	}
}

// History returns dispatched anomalies, newest first.
func (d *Dispatcher) History() []Anomaly { return d.history.Newest() }

// Handled returns the total number of anomalies dispatched.
func (d *Dispatcher) Handled() uint64 { return d.handled.Load() }

func (d *Dispatcher) persistBlock(a Anomaly) {
	if d.store == nil {
		return
	}
	desc, _ := a.topDescription()
	record, err := json.Marshal(BlockRecord{
		Target:    a.Target,
		AnomalyID: a.ID,
		Reason:    desc,
		Timestamp: a.Timestamp,
	})
	if err != nil {
		d.log.Error().Err(err).Str("anomaly", a.ID).Msg("block record encode failed")
		return
	}
	if err := d.store.Put(blockKeyPrefix+a.Target, record); err != nil {
		d.log.Error().Err(err).Str("target", a.Target).Msg("block record persist failed")
	}
}

func (d *Dispatcher) warn(ctx context.Context, a Anomaly) {
	if d.notifier == nil {
		return
	}
	n := notify.Notification{
		Title:    warnTitle(a),
		Message:  warnMessage(a),
		Priority: notify.PriorityNormal,
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Error().Err(err).Str("anomaly", a.ID).Msg("notification delivery failed")
	}
}

func (d *Dispatcher) disable(ctx context.Context, a Anomaly) {
	if d.controller == nil {
		d.warn(ctx, a)
		return
	}
	if err := d.controller.Disable(ctx, a.Target); err != nil {
		d.log.Warn().Err(err).
			Str("extension", a.Target).
			Msg("extension disable unavailable, warning instead")
		d.warn(ctx, a)
		return
	}
	d.log.Info().Str("extension", a.Target).Msg("extension disabled")
}

func (d *Dispatcher) promptUninstall(ctx context.Context, a Anomaly) {
	if d.notifier == nil {
		return
	}
	desc, _ := a.topDescription()
	n := notify.Notification{
		Title:              fmt.Sprintf("Remove extension %q?", a.Name),
		Message:            desc,
		Priority:           notify.PriorityHigh,
		RequireInteraction: true,
		Actions:            []string{"Uninstall", "Review details"},
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Error().Err(err).Str("anomaly", a.ID).Msg("uninstall prompt delivery failed")
	}
}

func warnTitle(a Anomaly) string {
	switch a.Kind {
	case KindExtension:
		return fmt.Sprintf("Extension %q changed", a.Name)
	case KindML:
		return "Suspicious URL detected"
	}
	return fmt.Sprintf("Unusual activity on %s", a.Target)
}

func warnMessage(a Anomaly) string {
	desc, more := a.topDescription()
	msg := desc
	if more > 0 {
		msg = fmt.Sprintf("%s (+%d more)", desc, more)
	}
	if a.Kind == KindBehavior {
		msg = fmt.Sprintf("%s, %d%% confidence", msg, int(math.Round(a.Confidence*100)))
	}
	return msg
}
