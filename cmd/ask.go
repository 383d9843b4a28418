package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/bimmerbailey/flowllm/internal/llm"
	"github.com/bimmerbailey/flowllm/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var askType = llm.Basic

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a prompt to the model configured for a type",
	Long: `Ask builds the client for the selected model type from conf.yaml and sends
a single prompt to it.

Examples:
  flowllm ask "Hello"
  flowllm ask "Prove that sqrt(2) is irrational" --type reasoning --stream
  flowllm ask "Summarize this" --system "Answer in one sentence." --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().VarP(&askType, "type", "t", "model type to use (basic, reasoning, vision)")
	askCmd.Flags().Bool("stream", false, "stream tokens as they arrive (text format only)")
	askCmd.Flags().String("system", "", "optional system prompt")
	askCmd.Flags().Float64("temperature", -1, "override the configured temperature (0-2)")
	askCmd.Flags().Int("max-tokens", 0, "override the configured max tokens")

	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON/YAML shape of an answer.
type askResult struct {
	Type         string `json:"type" yaml:"type"`
	Model        string `json:"model" yaml:"model"`
	Prompt       string `json:"prompt" yaml:"prompt"`
	Answer       string `json:"answer" yaml:"answer"`
	TokensPrompt int    `json:"tokens_prompt,omitempty" yaml:"tokens_prompt,omitempty"`
	TokensTotal  int    `json:"tokens_total,omitempty" yaml:"tokens_total,omitempty"`
}

func (r askResult) Headers() []string { return []string{"TYPE", "MODEL", "ANSWER"} }

func (r askResult) Rows() [][]string { return [][]string{{r.Type, r.Model, r.Answer}} }

// buildMessages prepends the optional system prompt.
func buildMessages(system, prompt string) []llm.Message {
	var messages []llm.Message
	if strings.TrimSpace(system) != "" {
		messages = append(messages, llm.Message{Role: "system", Content: system})
	}
	return append(messages, llm.Message{Role: "user", Content: prompt})
}

// buildChatOptions returns nil when no override flag was given.
func buildChatOptions(cmd *cobra.Command) (*llm.ChatOptions, error) {
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	if maxTokens < 0 {
		return nil, fmt.Errorf("invalid --max-tokens value: %d", maxTokens)
	}
	if cmd.Flags().Changed("temperature") && (temperature < 0 || temperature > 2) {
		return nil, fmt.Errorf("invalid --temperature value: %v (must be between 0 and 2)", temperature)
	}

	if !cmd.Flags().Changed("temperature") && maxTokens == 0 {
		return nil, nil
	}

	opts := &llm.ChatOptions{MaxTokens: maxTokens}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = &temperature
	}
	return opts, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := args[0]
	system, _ := cmd.Flags().GetString("system")
	stream, _ := cmd.Flags().GetBool("stream")
	format := output.ParseFormat(viper.GetString("format"))
	ctx := cmdContext(cmd)
	logger := newLogger()

	chatOpts, err := buildChatOptions(cmd)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(config.FileLoader{Path: configPath()}, logger)
	if err != nil {
		return err
	}

	if err := provider.Warm(askType); err != nil {
		return fmt.Errorf("%w\n\nTroubleshooting:\n- Check the %s block in %s\n- Run: flowllm validate",
			err, askTypeKey(), configPath())
	}

	client, err := provider.Client(askType)
	if err != nil {
		return err
	}

	messages := buildMessages(system, prompt)

	if stream && format == output.FormatText {
		events, err := client.ChatStream(ctx, messages, chatOpts)
		if err != nil {
			return fmt.Errorf("failed to start LLM stream: %w", err)
		}

		var written bool
		for event := range events {
			if event.Error != nil {
				if written {
					fmt.Fprintf(os.Stderr, "\n\nError during streaming: %v\n", event.Error)
				}
				return event.Error
			}
			if event.Content != "" {
				fmt.Fprint(cmd.OutOrStdout(), event.Content)
				written = true
			}
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}

	resp, err := client.Chat(ctx, messages, chatOpts)
	if err != nil {
		return err
	}

	if format == output.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
		return nil
	}

	return newWriter(cmd).Write(askResult{
		Type:         askType.String(),
		Model:        resp.Model,
		Prompt:       prompt,
		Answer:       resp.Content,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	})
}

func askTypeKey() string {
	key, _ := askType.ConfigKey()
	return key
}
