package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"gopsplice/internal/services"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var numbers = message.NewPrinter(language.English)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return services.Wrap(services.ErrValidation, "cli", "format", fmt.Sprintf("unknown format %q (text, json, yaml)", format), nil)
	}
}

// frames formats a frame count with digit grouping.
func frames(n int) string {
	return numbers.Sprintf("%d", n)
}

// progressLine redraws a single status line on a terminal. It does nothing
// when the writer is not a terminal; logs still carry sampled progress.
type progressLine struct {
	w       io.Writer
	label   string
	enabled bool
	drawn   bool
	last    time.Time
}

func newProgressLine(w io.Writer, label string) *progressLine {
	return &progressLine{w: w, label: label, enabled: shouldColorize(w)}
}

func (p *progressLine) update(done, expected int) {
	if !p.enabled || expected <= 0 {
		return
	}
	now := time.Now()
	if done < expected && now.Sub(p.last) < 250*time.Millisecond {
		return
	}
	p.last = now
	p.drawn = true
	numbers.Fprintf(p.w, "\r%s: %d / %d frames (%.1f%%)", p.label, done, expected, float64(done)*100/float64(expected))
}

func (p *progressLine) finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
