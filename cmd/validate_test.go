package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newValidateTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "validate"}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.Flags().BoolP("watch", "w", false, "re-validate on change")
	return cmd
}

func TestRunValidate_AllTypes(t *testing.T) {
	writeConf(t, `
BASIC_MODEL:
  model: gpt-4o
  api_key: sk-test
REASONING_MODEL:
  model: ollama/qwen3
  base_url: http://localhost:11434/v1
  api_key: ollama
VISION_MODEL:
  model: gpt-4o
  api_key: sk-test
  temperature: 0.2
`)

	var out bytes.Buffer
	if err := runValidate(newValidateTestCmd(&out), nil); err != nil {
		t.Fatalf("runValidate() error = %v\n%s", err, out.String())
	}
	if strings.Contains(out.String(), "status: error") || strings.Contains(out.String(), "status: missing") {
		t.Errorf("report should not contain errors:\n%s", out.String())
	}
}

func TestRunValidate_Failures(t *testing.T) {
	writeConf(t, `
BASIC_MODEL:
  model: gpt-4o
  api_key: sk-test
  temperature: 5
REASONING_MODEL: just-a-string
`)

	var out bytes.Buffer
	err := runValidate(newValidateTestCmd(&out), nil)
	if !errors.Is(err, errValidation) {
		t.Fatalf("runValidate() error = %v, want errValidation", err)
	}
	if !strings.Contains(err.Error(), "3 of 3") {
		t.Errorf("error = %q, want all three types counted", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	writeConf(t, "")
	var out bytes.Buffer
	cmd := newValidateTestCmd(&out)

	if err := validateOnce(cmd, "/nonexistent/conf.yaml", newLogger()); err == nil {
		t.Error("validateOnce() should fail for a missing file")
	}
}
