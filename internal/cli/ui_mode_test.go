package cli

import (
	"io"
	"testing"
)

// TestResolveUIMode verifies ui mode decision logic.
func TestResolveUIMode(t *testing.T) {
	cases := []struct {
		name        string
		mode        string
		verbose     bool
		noColor     bool
		isTTY       bool
		expectLive  bool
		expectColor bool
		wantWarn    bool
		wantErr     bool
	}{
		{name: "auto tty", mode: "auto", isTTY: true, expectLive: true, expectColor: true},
		{name: "empty is auto", mode: "", isTTY: true, expectLive: true, expectColor: true},
		{name: "auto non-tty", mode: "auto", isTTY: false},
		{name: "plain", mode: "plain", isTTY: true, expectColor: true},
		{name: "no color flag", mode: "plain", isTTY: true, noColor: true},
		{name: "verbose disables", mode: "auto", verbose: true, isTTY: true, expectColor: true},
		{name: "live tty", mode: "live", isTTY: true, expectLive: true, expectColor: true},
		{name: "live verbose warning", mode: "live", verbose: true, isTTY: true, expectColor: true, wantWarn: true},
		{name: "live non-tty warning", mode: "LIVE", isTTY: false, wantWarn: true},
		{name: "invalid mode", mode: "nope", isTTY: true, wantErr: true},
	}

	original := isTerminal
	t.Cleanup(func() { isTerminal = original })

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isTerminal = func(_ io.Writer) bool { return tc.isTTY }
			decision, err := resolveUIMode(tc.mode, tc.verbose, tc.noColor, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.useLive != tc.expectLive {
				t.Fatalf("expected useLive=%v, got %v", tc.expectLive, decision.useLive)
			}
			if decision.noColor == tc.expectColor {
				t.Fatalf("expected color=%v, got noColor=%v", tc.expectColor, decision.noColor)
			}
			if tc.wantWarn && decision.warning == "" {
				t.Fatalf("expected warning")
			}
			if !tc.wantWarn && decision.warning != "" {
				t.Fatalf("did not expect warning, got %q", decision.warning)
			}
		})
	}
}
