package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"testing"
	"time"

	"chainbench/internal/model"
	"chainbench/internal/runner"
	"chainbench/internal/testutil"
	"chainbench/internal/vcs"
)

// cliHarness runs the CLI against a temporary workdir with a scripted model.
type cliHarness struct {
	t     testing.TB
	dir   string
	env   map[string]string
	clock *testutil.FakeClock
	stub  *testutil.StubProvider
}

// newHarness swaps the CLI seams for fakes and restores them on cleanup.
func newHarness(t testing.TB) *cliHarness {
	t.Helper()
	clock := testutil.NewFakeClock(time.Time{})
	h := &cliHarness{
		t:     t,
		dir:   t.TempDir(),
		env:   map[string]string{},
		clock: clock,
		stub:  &testutil.StubProvider{Clock: clock, Replies: map[string][]testutil.Reply{}},
	}
	origGetenv, origNow, origFactory, origTerminal, origRevision := getenv, now, providerFactory, isTerminal, describeRevision
	t.Cleanup(func() {
		getenv, now, providerFactory, isTerminal, describeRevision = origGetenv, origNow, origFactory, origTerminal, origRevision
	})
	getenv = func(key string) string {
		if value, ok := h.env[key]; ok {
			return value
		}
		return os.Getenv(key)
	}
	now = clock.Now
	providerFactory = func() runner.ProviderFactory {
		return func(context.Context, string) (model.Provider, error) {
			return h.stub, nil
		}
	}
	isTerminal = func(io.Writer) bool { return false }
	describeRevision = func(context.Context, string) (vcs.Revision, error) {
		return vcs.Revision{}, vcs.ErrNotRepository
	}
	return h
}

// reply scripts the next answer for modelID.
func (h *cliHarness) reply(modelID, text string, latency time.Duration) {
	h.stub.Replies[modelID] = append(h.stub.Replies[modelID], testutil.Reply{Text: text, Latency: latency})
}

// write creates a file under the workdir.
func (h *cliHarness) write(rel, content string) string {
	h.t.Helper()
	return testutil.WriteFile(h.t, h.dir, rel, content)
}

// run executes the CLI in the harness workdir with plain output unless args
// set those flags themselves.
func (h *cliHarness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	args = slices.Clone(args)
	if !slices.Contains(args, "--workdir") {
		args = append(args, "--workdir", h.dir)
	}
	if !slices.Contains(args, "--ui") {
		args = append(args, "--ui", "plain")
	}
	args = append(args, "--no-color")
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}
