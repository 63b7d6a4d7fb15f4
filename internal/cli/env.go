package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// loadDotEnv loads root/.env without overriding variables already set. A
// missing file is not an error.
func loadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// configArg accepts at most one argument, which must look like a config
// file so that a mistyped mode is reported as unknown.
func configArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(args) == 1 && !looksLikeConfig(args[0]) {
		return fmt.Errorf("unknown mode %q (expected test|eval|full|validate)", args[0])
	}
	return nil
}

func looksLikeConfig(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return strings.ContainsAny(arg, `/\`)
}

// resolveConfigPath returns the config path from args or TEST_CONFIG,
// relative paths resolved against the working directory.
func resolveConfigPath(args []string) (string, error) {
	path := ""
	if len(args) > 0 {
		path = strings.TrimSpace(args[0])
	}
	if path == "" {
		path = strings.TrimSpace(getenv(envConfig))
	}
	if path == "" {
		return "", fmt.Errorf("no config file given: pass a path or set %s", envConfig)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}
