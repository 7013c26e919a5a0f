package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	obs.SetOutput(&buf)
	defer obs.SetOutput(os.Stdout)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = bounty.ContextWithActor(ctx, &bounty.User{ID: "usr_42", Role: bounty.RoleAdmin})

	if err := LogEvent(ctx, "report.status_changed", map[string]any{"report_id": "rpt_1"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "report.status_changed" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "usr_42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	if entry["report_id"] != "rpt_1" {
		t.Fatalf("field missing or incorrect: %v", entry["report_id"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}
