package gateway

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBestEffort_SwallowsAndLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	BestEffort(log, "delete message", func() error {
		return errors.New("message already gone")
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one warn entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["op"]; got != "delete message" {
		t.Errorf("expected op field, got %v", got)
	}
}

func TestBestEffort_QuietOnSuccess(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ran := false
	BestEffort(log, "refresh post", func() error {
		ran = true
		return nil
	})

	if !ran {
		t.Fatalf("expected the operation to run")
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log entries, got %d", logs.Len())
	}
}
