// Package output renders CLI results as text, JSON, YAML or a table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Tabular is implemented by results that can be shown as rows.
// JSON and YAML output marshal the value itself.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorAuto}
}

// WithColor sets the color mode used by text and table output.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// Write outputs v in the configured format.
func (wr *Writer) Write(v Tabular) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(v)
	case FormatYAML:
		return wr.WriteYAML(v)
	case FormatTable:
		return wr.writeTable(v)
	default:
		return wr.writeText(v)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeText prints one "header: value" line per cell with a blank line
// between rows.
func (wr *Writer) writeText(v Tabular) error {
	headers := v.Headers()
	colorize := shouldColorize(wr.color, wr.w)

	for i, row := range v.Rows() {
		if i > 0 {
			fmt.Fprintln(wr.w)
		}
		for j, cell := range row {
			label := ""
			if j < len(headers) {
				label = strings.ToLower(headers[j])
			}
			fmt.Fprintf(wr.w, "%s: %s\n", label, ColorizeCell(cell, colorize))
		}
	}
	return nil
}

// truncate shortens s to at most n runes, ending in "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func (wr *Writer) writeTable(v Tabular) error {
	headers := v.Headers()
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, row := range v.Rows() {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = truncate(cell, 60)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}
