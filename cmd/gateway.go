package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/bimmerbailey/flowllm/internal/gateway"
	"github.com/bimmerbailey/flowllm/internal/llm"
	"github.com/bimmerbailey/flowllm/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultGatewayURL = "http://localhost:11434"

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Inspect the local Ollama gateway",
	Long: `Inspect the local Ollama gateway through its native API.

Without --url the gateway is taken from the first model in conf.yaml that
uses Ollama, then OLLAMA_HOST, then ` + defaultGatewayURL + `.

Examples:
  flowllm gateway check
  flowllm gateway models --url http://localhost:11434 --format table`,
}

var gatewayCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the gateway and exit non-zero if it is unavailable",
	Args:  cobra.NoArgs,
	RunE:  runGatewayCheck,
}

var gatewayModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models pulled on the gateway",
	Args:  cobra.NoArgs,
	RunE:  runGatewayModels,
}

func init() {
	gatewayCmd.PersistentFlags().String("url", "", "gateway base URL")
	gatewayCmd.AddCommand(gatewayCheckCmd)
	gatewayCmd.AddCommand(gatewayModelsCmd)
	rootCmd.AddCommand(gatewayCmd)
}

// errGatewayDown makes `gateway check` exit with status 1.
var errGatewayDown = errors.New("ollama gateway is not available")

// resolveGatewayURL picks the gateway URL from the flag, conf.yaml, the
// environment, or the default, in that order.
func resolveGatewayURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		return gateway.NativeURL(u)
	}

	if file, err := (config.FileLoader{Path: configPath()}).Load(); err == nil {
		for _, t := range llm.ModelTypes {
			cfg, err := llm.Resolve(file, t)
			if err != nil {
				continue
			}
			if llm.UsesGateway(cfg) {
				return gateway.NativeURL(cfg.BaseURL)
			}
		}
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		return gateway.NativeURL(host)
	}
	return defaultGatewayURL
}

// gatewayStatus is the check command's result.
type gatewayStatus struct {
	URL     string `json:"url" yaml:"url"`
	Status  string `json:"status" yaml:"status"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

func (s gatewayStatus) Headers() []string { return []string{"URL", "STATUS", "VERSION"} }

func (s gatewayStatus) Rows() [][]string { return [][]string{{s.URL, s.Status, s.Version}} }

func runGatewayCheck(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	logger := newLogger()
	url := resolveGatewayURL(cmd)

	status := gatewayStatus{URL: url, Status: output.StatusUnavailable}
	if gateway.IsAvailable(ctx, url, logger) {
		status.Status = output.StatusAvailable
		if viper.GetBool("verbose") {
			if client, err := gateway.NewClient(url, logger); err == nil {
				status.Version, _ = client.Version(ctx)
			}
		}
	}

	if err := newWriter(cmd).Write(status); err != nil {
		return err
	}
	if status.Status != output.StatusAvailable {
		return fmt.Errorf("%w at %s\n\nStart Ollama with: ollama serve", errGatewayDown, url)
	}
	return nil
}

// gatewayModels is the models command's result.
type gatewayModels struct {
	URL    string          `json:"url" yaml:"url"`
	Models []gateway.Model `json:"models" yaml:"models"`
}

func (g gatewayModels) Headers() []string {
	return []string{"NAME", "FAMILY", "PARAMS", "QUANT", "SIZE", "MODIFIED"}
}

func (g gatewayModels) Rows() [][]string {
	rows := make([][]string, 0, len(g.Models))
	for _, m := range g.Models {
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Format(time.DateOnly)
		}
		rows = append(rows, []string{m.Name, m.Family, m.ParameterSize, m.Quantization, formatSize(m.Size), modified})
	}
	return rows
}

// formatSize renders a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func runGatewayModels(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	url := resolveGatewayURL(cmd)

	client, err := gateway.NewClient(url, logger)
	if err != nil {
		return err
	}

	models, err := client.Models(cmdContext(cmd))
	if err != nil {
		return fmt.Errorf("cannot list models at %s: %w", url, err)
	}

	if len(models) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No models pulled. Try: ollama pull llama3.2")
	}
	return newWriter(cmd).Write(gatewayModels{URL: url, Models: models})
}
