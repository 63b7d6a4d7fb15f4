package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// UI modes accepted by --ui.
const (
	uiAuto  = "auto"
	uiLive  = "live"
	uiPlain = "plain"
)

// uiModeDecision captures how progress and reports are shown.
type uiModeDecision struct {
	useLive bool
	noColor bool
	warning string
}

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// resolveUIMode determines whether to enable the live UI and colors. Verbose
// logging always uses plain output so log lines stay readable.
func resolveUIMode(mode string, verbose, noColor bool, stdout io.Writer) (uiModeDecision, error) {
	tty := isTerminal(stdout)
	decision := uiModeDecision{noColor: noColor || !tty}
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = uiAuto
	}
	switch normalized {
	case uiAuto:
		decision.useLive = tty && !verbose
	case uiLive:
		switch {
		case verbose:
			decision.warning = "Live UI disabled by --verbose; using plain output."
		case !tty:
			decision.warning = "Live UI requested but stdout is not a TTY; falling back to plain output."
		default:
			decision.useLive = true
		}
	case uiPlain:
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	return decision, nil
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	if stdout == nil {
		return false
	}
	if file, ok := stdout.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := stdout.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
