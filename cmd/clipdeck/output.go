package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func (c *commandContext) outputFormat() (string, error) {
	format := formatTable
	if c.formatFlag != nil {
		format = strings.ToLower(strings.TrimSpace(*c.formatFlag))
	}
	switch format {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported --format %q (want table, json or yaml)", format)
	}
}

// emit writes v in the selected structured format, or calls human for table
// output.
func (c *commandContext) emit(cmd *cobra.Command, v any, human func(io.Writer) error) error {
	format, err := c.outputFormat()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return writeJSON(out, v)
	case formatYAML:
		return writeYAML(out, v)
	default:
		return human(out)
	}
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var titleCaser = cases.Title(language.English)

// displayLabel turns identifiers like "generating_clips" into "Generating Clips".
func displayLabel(value string) string {
	value = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(value))
	if value == "" {
		return "-"
	}
	return titleCaser.String(value)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	frac := seconds - float64(total)
	out := fmt.Sprintf("%d:%02d", total/60, total%60)
	if total >= 3600 {
		out = fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
	}
	if frac >= 0.05 {
		out += fmt.Sprintf(".%d", int(frac*10+0.5)%10)
	}
	return out
}
