package llmerr

import (
	"errors"
	"fmt"
	"testing"
)

// TestNewProviderError_StatusClassification verifies the status-to-class
// mapping: 401/403 are auth, everything else is transport.
func TestNewProviderError_StatusClassification(t *testing.T) {
	for _, status := range []int{401, 403} {
		err := NewProviderError("openai", status, "denied")
		if !errors.Is(err, ErrAuth) {
			t.Errorf("status %d: expected ErrAuth classification", status)
		}
		if !IsAuth(err) {
			t.Errorf("status %d: expected IsAuth true", status)
		}
	}

	for _, status := range []int{400, 429, 500, 503} {
		err := NewProviderError("openai", status, "failed")
		if errors.Is(err, ErrAuth) {
			t.Errorf("status %d: must not classify as auth", status)
		}
		if !errors.Is(err, ErrTransport) {
			t.Errorf("status %d: expected ErrTransport classification", status)
		}
	}
}

// TestIsAuth_ThroughWrapping verifies classification survives fmt.Errorf
// wrapping.
func TestIsAuth_ThroughWrapping(t *testing.T) {
	inner := NewProviderError("anthropic", 401, "bad key")
	wrapped := fmt.Errorf("request failed: %w", inner)

	if !IsAuth(wrapped) {
		t.Error("expected IsAuth through a wrapped chain")
	}
}

// TestWithPartial_AttachAndRecover verifies partial content rides the error
// chain and is recoverable.
func TestWithPartial_AttachAndRecover(t *testing.T) {
	cause := errors.New("connection reset")
	err := WithPartial(cause, `{"title": "Du`)

	partial, ok := PartialContent(err)
	if !ok {
		t.Fatal("expected partial content present")
	}
	if partial != `{"title": "Du` {
		t.Errorf("unexpected partial: %q", partial)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the original cause in the chain")
	}
}

// TestWithPartial_NoDoubleWrap verifies attaching to an error that already
// carries partial content keeps the original attachment.
func TestWithPartial_NoDoubleWrap(t *testing.T) {
	cause := errors.New("boom")
	first := WithPartial(cause, "first partial")
	second := WithPartial(first, "second partial")

	partial, ok := PartialContent(second)
	if !ok || partial != "first partial" {
		t.Errorf("expected the first attachment preserved, got %q (ok=%v)", partial, ok)
	}
}

// TestWithPartial_EmptyInputs verifies nil error and empty partial pass
// through unchanged.
func TestWithPartial_EmptyInputs(t *testing.T) {
	if WithPartial(nil, "text") != nil {
		t.Error("expected nil error passthrough")
	}

	cause := errors.New("boom")
	if WithPartial(cause, "") != cause {
		t.Error("expected empty partial to leave the error unchanged")
	}

	if _, ok := PartialContent(cause); ok {
		t.Error("expected no partial on a plain error")
	}
}
