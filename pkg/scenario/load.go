package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies an input format
type Format string

const (
	FormatLines Format = "lines"
	FormatYAML  Format = "yaml"
)

// FormatFor picks the format from a file name: .yaml/.yml is YAML,
// anything else is the line format
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLines
	}
}

// Load reads, parses and validates a scenario file
func Load(path string, opts LineOptions) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	var sc Scenario
	switch FormatFor(path) {
	case FormatYAML:
		sc, err = ParseYAML(f)
	default:
		sc, err = ParseLines(f, opts)
	}
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}

	if err := sc.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
