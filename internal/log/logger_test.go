// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"
)

func TestPassIDRoundTrip(t *testing.T) {
	ctx := ContextWithPassID(context.Background(), "pass-123")
	if got := PassIDFromContext(ctx); got != "pass-123" {
		t.Errorf("PassIDFromContext = %q, want %q", got, "pass-123")
	}
}

func TestPassIDMissing(t *testing.T) {
	if got := PassIDFromContext(context.Background()); got != "" {
		t.Errorf("PassIDFromContext on empty context = %q, want empty", got)
	}
	if got := PassIDFromContext(nil); got != "" { //nolint:staticcheck // nil context is part of the contract
		t.Errorf("PassIDFromContext(nil) = %q, want empty", got)
	}
}

func TestWithComponentFromContext(t *testing.T) {
	ctx := ContextWithPassID(context.Background(), "pass-xyz")
	logger := WithComponentFromContext(ctx, "jobs")
	// Smoke test: the derived logger must be usable without panicking.
	logger.Debug().Msg("component logger works")
}
