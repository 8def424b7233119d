// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for the mcaixi agent CLI
// and its observability layer.
//
// Logs go to stderr by default, matching Unix CLI conventions, with an
// optional log file written alongside it. This is the ambient logger
// internal/observability.Tracer wraps with per-cycle fields, and the
// one cmd/mcaixi constructs at startup from the configured log level.
//
// # Basic usage
//
//	logger := logging.Default()
//	logger.Info("agent cycle completed", "cycle", cycle, "action", action)
//	logger.Error("search failed to explore any action", "cycle", cycle)
//
// # File logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.mcaixi/logs",  // ~ is expanded to the home directory
//	    Service: "mcaixi-agent",
//	})
//	defer logger.Close()
//
// This writes JSON-formatted records to `{service}_{date}.log` in
// LogDir, in addition to stderr.
//
// # Thread safety
//
// Logger is safe for concurrent use; mutable state (the open log file)
// is protected by a mutex, and the underlying slog.Logger is
// goroutine-safe on its own.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is a log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for tracing execution in detail: context-path walks,
	// simulation-by-simulation search progress.
	LevelDebug Level = iota
	// LevelInfo is for normal operation: one record per completed cycle.
	LevelInfo
	// LevelWarn is for situations the agent can continue past, such as a
	// search call whose tree never explored every action.
	LevelWarn
	// LevelError is for operation failures, such as a rejected config.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. A zero-value Config logs Debug+ (the zero
// Level is LevelDebug) to stderr as text.
type Config struct {
	// Level is the minimum level that reaches any destination.
	Level Level

	// LogDir, if set, additionally writes JSON records to
	// "{Service}_{YYYY-MM-DD}.log" under this directory (created with
	// 0750 permissions if missing). Supports a leading "~" for the
	// home directory.
	LogDir string

	// Service is attached to every record as the "service" attribute,
	// e.g. "mcaixi-agent" or "mcaixi-cli".
	Service string

	// JSON selects JSON output for stderr; file output is always JSON.
	JSON bool

	// Quiet suppresses stderr output, leaving only file logging (if
	// LogDir is set).
	Quiet bool
}

// Logger wraps a slog.Logger with stderr+file fan-out and a Close that
// flushes the log file.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

// New constructs a Logger from config.
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	if !config.Quiet {
		var stderrHandler slog.Handler
		if config.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, opts)
		}
		handlers = append(handlers, stderrHandler)
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "mcaixi-agent"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			logPath := filepath.Join(logDir, filename)

			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns a Logger at LevelInfo, stderr only, service
// "mcaixi-agent".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "mcaixi-agent"})
}

// Debug logs msg at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs msg at Info level, e.g. the per-cycle record
// internal/observability.Tracer emits after every agent cycle.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs msg at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs msg at Error level.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// With returns a new Logger carrying args on every subsequent record,
// e.g. logger.With("run_id", runID) for a single Search() call. The
// receiver is unmodified.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), config: l.config, file: l.file}
}

// Slog returns the underlying slog.Logger, for callers that need
// slog.LogAttrs or a custom Record.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if one is open. Safe to call on
// a Logger with no file configured.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	return l.file.Close()
}

func (l *Logger) log(level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		l.slog.Debug(msg, args...)
	case LevelInfo:
		l.slog.Info(msg, args...)
	case LevelWarn:
		l.slog.Warn(msg, args...)
	case LevelError:
		l.slog.Error(msg, args...)
	}
}

// multiHandler fans a record out to several slog handlers, used when
// both stderr and file logging are enabled at once (potentially in
// different formats).
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading "~" to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
