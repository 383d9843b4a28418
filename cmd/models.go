package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/bimmerbailey/flowllm/internal/gateway"
	"github.com/bimmerbailey/flowllm/internal/llm"
	"github.com/bimmerbailey/flowllm/internal/output"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the resolved model settings for each type",
	Long: `Show how each model type (basic, reasoning, vision) resolves from conf.yaml.

The effective model is the name sent to the endpoint after the Ollama
prefix rewrite. API keys are never printed, only whether one is set.

Examples:
  flowllm models
  flowllm models --format table --check-gateway`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().Bool("check-gateway", false, "probe the Ollama gateway of local models and check they are pulled")
	rootCmd.AddCommand(modelsCmd)
}

// modelStatus is one row of the models and validate reports.
type modelStatus struct {
	Type           string `json:"type" yaml:"type"`
	Key            string `json:"key" yaml:"key"`
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`
	EffectiveModel string `json:"effective_model,omitempty" yaml:"effective_model,omitempty"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Gateway        string `json:"gateway" yaml:"gateway"`
	Pulled         string `json:"pulled" yaml:"pulled"`
	APIKeySet      bool   `json:"api_key_set" yaml:"api_key_set"`
	Status         string `json:"status" yaml:"status"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// modelsReport lists every model type resolved from one config file.
type modelsReport struct {
	Config string        `json:"config" yaml:"config"`
	Models []modelStatus `json:"models" yaml:"models"`
}

func (r modelsReport) Headers() []string {
	return []string{"TYPE", "KEY", "MODEL", "EFFECTIVE", "BASE_URL", "GATEWAY", "PULLED", "API_KEY", "STATUS", "ERROR"}
}

func (r modelsReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Models))
	for _, m := range r.Models {
		rows = append(rows, []string{
			m.Type, m.Key, m.Model, m.EffectiveModel, m.BaseURL,
			m.Gateway, m.Pulled, strconv.FormatBool(m.APIKeySet), m.Status, m.Error,
		})
	}
	return rows
}

// Failed counts the rows whose status is not ok.
func (r modelsReport) Failed() int {
	n := 0
	for _, m := range r.Models {
		if m.Status != output.StatusOK {
			n++
		}
	}
	return n
}

// reportOptions controls how much work buildModelsReport does per type.
type reportOptions struct {
	// construct builds each client to surface constructor errors
	construct bool

	// probe checks the gateway of Ollama models and whether the effective
	// model has been pulled there
	probe bool
}

// buildModelsReport resolves every type in file. It never caches clients.
func buildModelsReport(ctx context.Context, path string, file config.File, opts reportOptions, logger *slog.Logger) modelsReport {
	report := modelsReport{Config: path}

	for _, t := range llm.ModelTypes {
		key, _ := t.ConfigKey()
		row := modelStatus{
			Type:    t.String(),
			Key:     key,
			Gateway: output.StatusSkipped,
			Pulled:  output.StatusSkipped,
			Status:  output.StatusOK,
		}

		cfg, err := llm.Resolve(file, t)
		if err != nil {
			row.Status = output.StatusMissing
			if !isMissingBlock(file, key) {
				row.Status = output.StatusError
			}
			row.Error = err.Error()
			report.Models = append(report.Models, row)
			continue
		}

		effective, usesGateway := llm.RewriteForGateway(cfg)
		row.Model = cfg.Model
		row.EffectiveModel = effective.Model
		row.BaseURL = cfg.BaseURL
		row.APIKeySet = cfg.APIKey != "" || os.Getenv("OPENAI_API_KEY") != ""

		if usesGateway {
			row.Gateway = "yes"
			if opts.probe {
				row.Gateway = output.StatusUnavailable
				if gateway.IsAvailable(ctx, gateway.NativeURL(cfg.BaseURL), logger) {
					row.Gateway = output.StatusAvailable
					row.Pulled = pulledStatus(ctx, cfg.BaseURL, effective.Model, logger)
				}
			}
		}

		if opts.construct {
			if _, err := llm.NewClient(t, file, logger); err != nil {
				row.Status = output.StatusError
				row.Error = err.Error()
			}
		}

		report.Models = append(report.Models, row)
	}

	return report
}

// pulledStatus reports whether model has been pulled on the gateway at
// baseURL: "yes", "no", or "-" when the gateway cannot be listed.
func pulledStatus(ctx context.Context, baseURL, model string, logger *slog.Logger) string {
	client, err := gateway.NewClient(baseURL, logger)
	if err != nil {
		return output.StatusSkipped
	}
	ok, err := client.ModelAvailable(ctx, model)
	switch {
	case err != nil:
		return output.StatusSkipped
	case ok:
		return "yes"
	default:
		return "no"
	}
}

// isMissingBlock reports whether key is absent from file, as opposed to
// present but malformed.
func isMissingBlock(file config.File, key string) bool {
	v, ok := file.Lookup(key)
	return !ok || v == nil
}

func runModels(cmd *cobra.Command, args []string) error {
	checkGateway, _ := cmd.Flags().GetBool("check-gateway")
	path := configPath()
	logger := newLogger()

	file, err := config.FileLoader{Path: path}.Load()
	if err != nil {
		return err
	}

	report := buildModelsReport(cmdContext(cmd), path, file, reportOptions{probe: checkGateway}, logger)
	return newWriter(cmd).Write(report)
}

// errValidation is returned when at least one model block fails validation.
var errValidation = errors.New("model configuration is invalid")

func validationError(report modelsReport) error {
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d model types failed", errValidation, failed, len(report.Models))
	}
	return nil
}
