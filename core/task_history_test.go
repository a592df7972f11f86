package core

import (
	"context"
	"strings"
	"testing"
)

// TestCallHistory_RingBuffer tests the bounded call history
// Main test items:
// 1. Records are returned newest first
// 2. Old records are overwritten past capacity
// 3. Limit trims the result
func TestCallHistory_RingBuffer(t *testing.T) {
	h := newCallHistory(3)
	for i := range 5 {
		h.Add(FunctionCallRecord{ID: i})
	}

	all := h.Recent(0)
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}
	for i, want := range []int{4, 3, 2} {
		if all[i].ID != want {
			t.Errorf("Record %d: Expected id %d, got %d", i, want, all[i].ID)
		}
	}

	if got := h.Recent(1); len(got) != 1 || got[0].ID != 4 {
		t.Errorf("Expected newest record only, got %v", got)
	}

	h.Reset()
	if got := h.Recent(0); got != nil {
		t.Errorf("Expected empty history after reset, got %v", got)
	}
}

func namedBody(ctx context.Context) {}

// TestResolveFunctionName tests function naming for diagnostics.
func TestResolveFunctionName(t *testing.T) {
	if got := resolveFunctionName(namedBody, "explicit"); got != "explicit" {
		t.Errorf("Expected explicit name, got %q", got)
	}
	if got := resolveFunctionName(namedBody, ""); !strings.HasSuffix(got, "namedBody") {
		t.Errorf("Expected resolved name to end with namedBody, got %q", got)
	}
	if got := resolveFunctionName(nil, ""); got != "anonymous" {
		t.Errorf("Expected anonymous for nil body, got %q", got)
	}
}
