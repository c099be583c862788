package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("secret")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("%w: password must be at least 6 characters", ErrorValidation)
	if !errors.Is(err, ErrorValidation) {
		t.Fatalf("wrapped validation error must match sentinel")
	}
	if errors.Is(err, ErrorNotFound) {
		t.Fatalf("validation error must not match not-found")
	}
	if got := err.Error(); got != "validation error: password must be at least 6 characters" {
		t.Fatalf("unexpected message %q", got)
	}
}
