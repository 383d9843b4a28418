package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/bimmerbailey/flowllm/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "flowllm",
	Short: "Build and inspect chat model clients from conf.yaml",
	Long: `Flowllm resolves chat model clients by role (basic, reasoning, vision)
from a conf.yaml file and talks to them through an OpenAI-compatible API.

Models served by a local Ollama gateway are detected from the model name
and reached through Ollama's OpenAI-compatible endpoint.

Examples:
  flowllm models --format table
  flowllm ask "Hello" --type basic
  flowllm validate --watch
  flowllm gateway check --url http://localhost:11434`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "model config file (default is conf.yaml at the repository root or in the working directory)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table, yaml)")
	rootCmd.PersistentFlags().String("color", "auto", "color output (auto, always, never)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetEnvPrefix("FLOWLLM")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("format", "text")
	viper.SetDefault("color", "auto")
	viper.SetDefault("verbose", false)

	if viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", configPath())
	}
}

// configPath returns the model config file selected by flag, environment
// or the default lookup.
func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// newLogger logs errors only, or info and above with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelError
	if viper.GetBool("verbose") {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newWriter returns an output writer honoring --format and --color.
func newWriter(cmd *cobra.Command) *output.Writer {
	return output.New(cmd.OutOrStdout(), output.ParseFormat(viper.GetString("format"))).
		WithColor(output.ParseColorMode(viper.GetString("color")))
}

// cmdContext returns the command's context, or a background context when
// the command runs outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
