package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every model type resolves and its client can be built",
	Long: `Validate resolves each model type from conf.yaml and constructs its client
without sending any request. It exits non-zero if any type fails.

With --watch the file is re-validated every time it changes until interrupted.
Watching never affects clients already built by a running process.

Examples:
  flowllm validate
  flowllm validate --config ./conf.yaml --watch`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolP("watch", "w", false, "re-validate whenever the config file changes")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	path := configPath()
	logger := newLogger()

	err := validateOnce(cmd, path, logger)
	if !watch {
		return err
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)...\n", path)
	return config.Watch(ctx, path, logger, func() {
		fmt.Fprintln(cmd.OutOrStdout())
		if err := validateOnce(cmd, path, logger); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		}
	})
}

// validateOnce loads path, writes the report and returns an error if the
// file cannot be read or any type fails.
func validateOnce(cmd *cobra.Command, path string, logger *slog.Logger) error {
	file, err := config.FileLoader{Path: path}.Load()
	if err != nil {
		return err
	}

	report := buildModelsReport(context.Background(), path, file, reportOptions{construct: true}, logger)
	if err := newWriter(cmd).Write(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return validationError(report)
}
