package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Event names the kind of engine decision an entry records.
const (
	EventURLVerdict  = "url_verdict"
	EventScriptBlock = "script_block"
	EventAnomaly     = "anomaly"
	EventAction      = "action"
	EventExtScan     = "extension_scan"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp      time.Time `json:"timestamp"`
	Event          string    `json:"event"`
	Target         string    `json:"target,omitempty"`
	Verdict        string    `json:"verdict,omitempty"`
	Severity       string    `json:"severity,omitempty"`
	Confidence     float64   `json:"confidence,omitempty"`
	RuleID         string    `json:"rule_id,omitempty"`
	AnomalyID      string    `json:"anomaly_id,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Detail         any       `json:"detail,omitempty"`
}

// Logger writes JSON-line audit log entries.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	enc    *json.Encoder
}

// NewLogger creates a new audit logger writing to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		writer: w,
		enc:    json.NewEncoder(w),
	}
}

// NewFileLogger creates a logger that writes to a file at the given path.
// Creates the file if it doesn't exist, appends if it does.
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return NewLogger(f), nil
}

// NewStderrLogger creates a logger that writes to stderr.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr)
}

// Log writes a single audit entry as a JSON line.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// NopLogger returns a logger that discards all entries.
func NopLogger() *Logger {
	return NewLogger(io.Discard)
}
