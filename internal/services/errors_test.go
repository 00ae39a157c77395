package services_test

import (
	"errors"
	"strings"
	"testing"

	"tonearm/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "analyzer", "complete", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analyzer", "complete", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "mover", "relocate", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsRecoverableByReconsider(t *testing.T) {
	if services.IsRecoverableByReconsider(nil) {
		t.Fatal("nil error is not recoverable")
	}
	conflict := services.Wrap(services.ErrConflict, "review", "accept", "status changed", nil)
	if services.IsRecoverableByReconsider(conflict) {
		t.Fatal("conflicts do not leave a resumable job")
	}
	transient := services.Wrap(services.ErrTransient, "analyzer", "complete", "timeout", nil)
	if !services.IsRecoverableByReconsider(transient) {
		t.Fatal("transient failures surface via the error status")
	}
}
