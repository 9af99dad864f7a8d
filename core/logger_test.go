package core

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	_ Logger = (*ZapLogger)(nil)
	_ Logger = (*NoOpLogger)(nil)
)

func TestF_BuildsField(t *testing.T) {
	f := F("backend", "go-pool")
	if f.Key != "backend" {
		t.Errorf("expected key 'backend', got %q", f.Key)
	}
	if f.Value != "go-pool" {
		t.Errorf("expected value 'go-pool', got %v", f.Value)
	}
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	zapCore, logs := observer.New(zap.InfoLevel)
	logger := NewZapLogger(zap.New(zapCore))

	logger.Info("task submitted", F("backend", "ants"), F("queued", 3))
	logger.Debug("dropped below level")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "task submitted" {
		t.Errorf("expected message 'task submitted', got %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["backend"] != "ants" {
		t.Errorf("expected backend field 'ants', got %v", fields["backend"])
	}
}

func TestContextWithLogger_Roundtrip(t *testing.T) {
	ctx := context.Background()
	if got := LoggerFromContext(ctx); got != nil {
		t.Fatalf("expected nil logger on bare context, got %T", got)
	}

	logger := NewNoOpLogger()
	ctx = ContextWithLogger(ctx, logger)
	if got := LoggerFromContext(ctx); got != Logger(logger) {
		t.Errorf("expected the attached logger back, got %T", got)
	}
}

func TestNoOpLogger_AcceptsAllLevels(t *testing.T) {
	logger := NewNoOpLogger()
	logger.Debug("a")
	logger.Info("b", F("k", 1))
	logger.Warn("c")
	logger.Error("d", F("err", "boom"))
}
