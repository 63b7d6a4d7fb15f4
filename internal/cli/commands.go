package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chainbench/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	mode := string(config.ModeFull)
	cmd := &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Check a config file without running anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := config.Mode(mode)
			switch selected {
			case config.ModeTest, config.ModeEval, config.ModeFull:
			default:
				return fmt.Errorf("invalid --mode %q (expected test|eval|full)", mode)
			}
			path, err := resolveConfigPath(args)
			if err != nil {
				return failure(err)
			}
			if _, err := config.Load(path, config.LoadOptions{Mode: selected, DefaultProvider: getenv(envProvider)}); err != nil {
				fmt.Fprintf(a.stderr, "Validation failed:\n%s\n", err.Error())
				return errReported
			}
			fmt.Fprintln(a.stdout, "Config OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", mode, "Sections to require: test|eval|full")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and sample inputs into the workdir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Scaffold(a.ws.Root)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(a.stdout, "Created %s\n", relativeTo(a.ws.Root, path))
			fmt.Fprintf(a.stdout, "Sample inputs in %s\n", relativeTo(a.ws.Root, a.ws.InputsDir()))
			return nil
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateJSONSchema()
			if err != nil {
				return failure(err)
			}
			if out == "" {
				_, err = fmt.Fprintln(a.stdout, string(data))
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return failure(fmt.Errorf("write schema: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the schema to a file")
	return cmd
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
