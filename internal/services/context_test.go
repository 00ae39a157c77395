package services_test

import (
	"context"
	"testing"

	"tonearm/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 42)
	ctx = services.WithLane(ctx, "analyze")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if lane, ok := services.LaneFromContext(ctx); !ok || lane != "analyze" {
		t.Fatalf("unexpected lane: %v %v", lane, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestLaneBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithLane(ctx, "")
	if _, ok := services.LaneFromContext(ctx); ok {
		t.Fatal("expected no lane value")
	}
}
