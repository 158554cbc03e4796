package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsCredentialKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("connecting", "neo4j_password", "hunter2", "uri", "bolt://localhost:7687")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["neo4j_password"] != "[REDACTED]" {
		t.Fatalf("password not redacted: %v", fields["neo4j_password"])
	}
	if fields["uri"] != "bolt://localhost:7687" {
		t.Fatalf("uri changed: %v", fields["uri"])
	}
}

func TestSanitizeTruncatesNestedParams(t *testing.T) {
	long := strings.Repeat("x", maxValueLen+10)
	out := sanitizeValue("params", map[string]interface{}{
		"title":  long,
		"volume": 12,
	})
	m, ok := out.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", out)
	}
	title, _ := m["title"].(string)
	if !strings.HasSuffix(title, "...(truncated)") {
		t.Fatalf("long title not truncated: %q", title)
	}
	if m["volume"] != 12 {
		t.Fatalf("numeric param changed: %v", m["volume"])
	}
}
