package testutil

import (
	"errors"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected context with deadline")
	}
	if remaining := time.Until(deadline); remaining > TestTimeout {
		t.Fatalf("deadline too far in the future: %v", remaining)
	}
}

func TestAsserts(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errors.New("boom"))
	AssertEqual(t, 42, 42)
	AssertNotEqual(t, "a", "b")
}
