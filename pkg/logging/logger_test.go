// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	cases := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}
	for _, c := range cases {
		if got := c.level.toSlogLevel(); got != c.want {
			t.Errorf("Level(%d).toSlogLevel() = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestLevel_Ordering(t *testing.T) {
	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Fatal("levels are not ordered Debug < Info < Warn < Error")
	}
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestNew_DefaultConfig(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{})
		logger.Info("agent cycle completed", "cycle", 1)
	})
	if !strings.Contains(out, "agent cycle completed") {
		t.Errorf("stderr output = %q, want it to contain the message", out)
	}
}

func TestNew_WithService(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{Service: "mcaixi-agent", JSON: true})
		logger.Info("search completed")
	})
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, out)
	}
	if rec["service"] != "mcaixi-agent" {
		t.Errorf("service = %v, want mcaixi-agent", rec["service"])
	}
}

func TestNew_WithJSON(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{JSON: true})
		logger.Info("percept decoded", "observation", 1, "reward", 0)
	})
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if rec["observation"] != float64(1) {
		t.Errorf("observation = %v, want 1", rec["observation"])
	}
}

func TestNew_QuietMode(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{Quiet: true})
		logger.Info("should not reach stderr")
	})
	if out != "" {
		t.Errorf("Quiet logger wrote to stderr: %q", out)
	}
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "mcaixi-agent", Quiet: true})
	defer logger.Close()

	logger.Info("agent cycle completed", "cycle", 7, "action", 1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d log files, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "mcaixi-agent_") {
		t.Errorf("log file name = %q, want mcaixi-agent_ prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file content is not valid JSON: %v", err)
	}
	if rec["cycle"] != float64(7) {
		t.Errorf("cycle = %v, want 7", rec["cycle"])
	}
}

func TestNew_WithLogDir_DefaultServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})
	defer logger.Close()
	logger.Info("agent cycle completed")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "mcaixi-agent_") {
		t.Fatalf("entries = %v, want one file prefixed mcaixi-agent_", entries)
	}
}

func TestNew_WithLogDir_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	sub := filepath.Join(".mcaixi-logger-test", t.Name())
	defer os.RemoveAll(filepath.Join(home, ".mcaixi-logger-test"))

	logger := New(Config{LogDir: "~/" + sub, Service: "mcaixi-agent", Quiet: true})
	defer logger.Close()
	logger.Info("agent cycle completed")

	entries, err := os.ReadDir(filepath.Join(home, sub))
	if err != nil {
		t.Fatalf("expanded log dir not created: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d log files, want 1", len(entries))
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger.config.Level != LevelInfo {
		t.Errorf("Default() level = %v, want LevelInfo", logger.config.Level)
	}
	if logger.config.Service != "mcaixi-agent" {
		t.Errorf("Default() service = %q, want mcaixi-agent", logger.config.Service)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{Level: LevelWarn})
		logger.Debug("context path computed")
		logger.Info("agent cycle completed")
		logger.Warn("search tree never explored every action")
		logger.Error("configuration rejected")
	})
	if strings.Contains(out, "context path computed") || strings.Contains(out, "agent cycle completed") {
		t.Errorf("sub-threshold records leaked through: %q", out)
	}
	if !strings.Contains(out, "search tree never explored every action") || !strings.Contains(out, "configuration rejected") {
		t.Errorf("at-or-above-threshold records missing: %q", out)
	}
}

func TestLogger_With(t *testing.T) {
	out := captureStderr(t, func() {
		logger := New(Config{JSON: true}).With("run_id", "abc-123")
		logger.Info("search completed", "chosen_action", 1)
	})
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, out)
	}
	if rec["run_id"] != "abc-123" {
		t.Errorf("run_id = %v, want abc-123", rec["run_id"])
	}
	if rec["chosen_action"] != float64(1) {
		t.Errorf("chosen_action = %v, want 1", rec["chosen_action"])
	}
}

func TestLogger_With_SharesFile(t *testing.T) {
	dir := t.TempDir()
	parent := New(Config{LogDir: dir, Service: "mcaixi-agent", Quiet: true})
	defer parent.Close()

	child := parent.With("run_id", "abc-123")
	if child.file != parent.file {
		t.Fatal("With() did not share the parent's file handle")
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := Default()
	if logger.Slog() == nil {
		t.Fatal("Slog() returned nil")
	}
}

func TestLogger_Close_NoResources(t *testing.T) {
	logger := Default()
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on a file-less logger = %v, want nil", err)
	}
}

func TestLogger_Close_WithFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "mcaixi-agent", Quiet: true})
	logger.Info("agent cycle completed")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
	// A second Close on an already-closed file must not panic; it may
	// return an error from the OS, which callers are free to ignore.
	_ = logger.Close()
}

func TestLogger_ConcurrentUse(t *testing.T) {
	logger := New(Config{Quiet: true})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.Info("agent cycle completed", "cycle", i)
		}(i)
	}
	wg.Wait()
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(Debug) = false, want true (second handler accepts it)")
	}
}

func TestMultiHandler_Enabled_NoneEnabled(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(Debug) = true, want false")
	}
}

func TestMultiHandler_Handle_FansOutToAll(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&bufA, nil),
		slog.NewJSONHandler(&bufB, nil),
	}}
	logger := slog.New(h)
	logger.Info("agent cycle completed", "cycle", 3)

	if !strings.Contains(bufA.String(), "agent cycle completed") {
		t.Errorf("text handler did not receive the record: %q", bufA.String())
	}
	if !strings.Contains(bufB.String(), "agent cycle completed") {
		t.Errorf("json handler did not receive the record: %q", bufB.String())
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{slog.NewJSONHandler(&buf, nil)}}
	h2 := h.WithAttrs([]slog.Attr{slog.String("service", "mcaixi-agent")})
	slog.New(h2).Info("agent cycle completed")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if rec["service"] != "mcaixi-agent" {
		t.Errorf("service = %v, want mcaixi-agent", rec["service"])
	}
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{slog.NewJSONHandler(&buf, nil)}}
	h2 := h.WithGroup("search")
	slog.New(h2).Info("completed", "chosen_action", 1)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	group, ok := rec["search"].(map[string]any)
	if !ok {
		t.Fatalf("expected a nested %q group, got %v", "search", rec)
	}
	if group["chosen_action"] != float64(1) {
		t.Errorf("chosen_action = %v, want 1", group["chosen_action"])
	}
}

func TestMultiHandler_Empty(t *testing.T) {
	h := &multiHandler{}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("empty multiHandler reports Enabled = true")
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle on empty multiHandler = %v, want nil", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	cases := []struct {
		path string
		want string
	}{
		{"~/.mcaixi/logs", filepath.Join(home, ".mcaixi/logs")},
		{"/var/log/mcaixi", "/var/log/mcaixi"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, c := range cases {
		if got := expandPath(c.path); got != c.want {
			t.Errorf("expandPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
