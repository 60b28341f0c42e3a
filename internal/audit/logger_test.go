package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	err := logger.Log(Entry{
		Event:    EventURLVerdict,
		Target:   "http://paypa1-login.tk/verify",
		Verdict:  "malicious",
		Severity: "critical",
		Detail:   map[string]any{"score": 0.91},
	})
	if err != nil {
		t.Fatalf("failed to log: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "url_verdict") {
		t.Error("expected event in output")
	}
	if !strings.Contains(output, "malicious") {
		t.Error("expected verdict in output")
	}

	// Verify it's valid JSON
	var entry Entry
	if err := json.Unmarshal([]byte(output), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Event != EventURLVerdict {
		t.Errorf("expected event url_verdict, got %s", entry.Event)
	}
}

func TestLogger_TimestampAutoFill(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	before := time.Now().UTC()
	logger.Log(Entry{Event: EventScriptBlock, RuleID: "net-003"})
	after := time.Now().UTC()

	var entry Entry
	json.Unmarshal(buf.Bytes(), &entry)

	if entry.Timestamp.Before(before) || entry.Timestamp.After(after) {
		t.Error("auto-filled timestamp is out of range")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	err := logger.Log(Entry{Event: EventAnomaly, Target: "news.example.org"})
	if err != nil {
		t.Errorf("nop logger should not error: %v", err)
	}
}
