package coreerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(InvalidConfig, "charset", "width must be >= 1"),
			want: "charset: invalid_config: width must be >= 1",
		},
		{
			name: "with cause",
			err:  Wrap(Decode, "lzw", "invalid code", fmt.Errorf("boom")),
			want: "lzw: decode: invalid code: boom",
		},
	}

	for i := range tests {
		tc := tests[i]
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%s: Error() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(SourceOpen, "framesource", "opening file", cause)
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap did not return the wrapped cause")
	}
}

func TestIsKindMatchesThroughWrapping(t *testing.T) {
	inner := New(Timeout, "framesource", "ffprobe did not respond")
	outer := fmt.Errorf("describing source: %w", inner)

	if !IsKind(outer, Timeout) {
		t.Error("expected IsKind to find Timeout through fmt.Errorf wrapping")
	}
	if IsKind(outer, Cancelled) {
		t.Error("expected IsKind(outer, Cancelled) to be false")
	}
}

func TestErrorsIsAgainstSentinel(t *testing.T) {
	err := New(Cancelled, "pipeline", "cancelled during encode")
	if !errors.Is(err, Sentinel(Cancelled)) {
		t.Error("expected errors.Is to match against a Cancelled sentinel")
	}
	if errors.Is(err, Sentinel(Timeout)) {
		t.Error("did not expect errors.Is to match against a Timeout sentinel")
	}
}

func TestKindOfUnrecognizedError(t *testing.T) {
	_, ok := KindOf(fmt.Errorf("plain error"))
	if ok {
		t.Error("expected KindOf to report ok=false for a non-coreerr error")
	}
}
