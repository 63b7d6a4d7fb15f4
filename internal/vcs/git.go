package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotRepository reports a directory outside any git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Revision identifies the state of the work tree a run was launched from.
type Revision struct {
	Commit string
	Branch string
	Dirty  bool
}

// Short returns an abbreviated commit hash suitable for display.
func (r Revision) Short() string {
	if len(r.Commit) > 12 {
		return r.Commit[:12]
	}
	return r.Commit
}

// gitRunner executes git commands in a directory.
type gitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// execGitRunner invokes the system git binary.
type execGitRunner struct{}

// Run executes git and returns trimmed stdout.
func (execGitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return "", ErrNotRepository
		}
		if msg == "" {
			msg = "no stderr"
		}
		return "", fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Client reads revisions through an injectable git runner.
type Client struct {
	runner gitRunner
}

// NewClient constructs a client; a nil runner uses the git binary.
func NewClient(runner gitRunner) Client {
	if runner == nil {
		runner = execGitRunner{}
	}
	return Client{runner: runner}
}

var defaultClient = NewClient(nil)

// Describe returns the revision of the work tree containing dir.
func Describe(ctx context.Context, dir string) (Revision, error) {
	return defaultClient.Describe(ctx, dir)
}

// Describe returns the revision of the work tree containing dir.
func (c Client) Describe(ctx context.Context, dir string) (Revision, error) {
	if strings.TrimSpace(dir) == "" {
		return Revision{}, fmt.Errorf("directory is empty")
	}
	inside, err := c.runner.Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return Revision{}, err
	}
	if inside != "true" {
		return Revision{}, ErrNotRepository
	}
	commit, err := c.runner.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	branch, err := c.runner.Run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Revision{}, fmt.Errorf("resolve branch: %w", err)
	}
	if branch == "HEAD" {
		branch = ""
	}
	status, err := c.runner.Run(ctx, dir, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return Revision{}, fmt.Errorf("check dirty state: %w", err)
	}
	return Revision{
		Commit: commit,
		Branch: branch,
		Dirty:  strings.TrimSpace(status) != "",
	}, nil
}
