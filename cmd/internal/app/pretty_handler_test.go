package app

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiRed + "ERROR" + ansiReset + " " + ansiDim + "x" + ansiReset
	if got := stripANSI(in); got != "ERROR x" {
		t.Fatalf("stripANSI=%q want=%q", got, "ERROR x")
	}
}

func TestPrettyHandler_LineFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false))

	log.Warn("api.request",
		"method", "get",
		"path", "/tickets/",
		"status", 401,
		"status_class", "4xx",
		"duration_ms", int64(12),
		"err", errors.New("token expired"),
	)

	line := strings.TrimSuffix(buf.String(), "\n")
	re := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} WARN  api\.request `)
	if !re.MatchString(line) {
		t.Fatalf("unexpected prefix: %q", line)
	}
	for _, want := range []string{
		"method=GET",
		"path=/tickets/",
		"status=401",
		"class=4xx",
		"duration=12ms",
		`err="token expired"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("colour codes written with color=false: %q", line)
	}
}

func TestPrettyHandler_Color(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, true))
	log.Error("api.request", "status", 503)

	out := buf.String()
	if !strings.Contains(out, ansiRed+"503"+ansiReset) {
		t.Fatalf("status not painted red: %q", out)
	}
	if !strings.Contains(stripANSI(out), "ERROR api.request status=503") {
		t.Fatalf("unexpected plain text: %q", stripANSI(out))
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false))
	log.Info("hidden")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("records below level written: %q", buf.String())
	}
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, false)).
		With("profile", "work").
		WithGroup("session")

	log.Info("session.store", "backend", "file", slog.Group("seal", "enabled", true))

	out := buf.String()
	for _, want := range []string{" profile=work", " session.backend=file", " session.seal.enabled=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestPrettyHandler_QuotesValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, false))
	log.Info("x", "title", "printer on fire", "empty", "", "wait", 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{`title="printer on fire"`, `empty=""`, "wait=1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
