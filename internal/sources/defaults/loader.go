// Package defaults loads the factory options from a YAML file.
package defaults

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Z0-9_]+)\s*\}\}`)

// Loader reads an options seed file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the seed file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read options file: %w", err)
	}

	data = expandTemplateVariables(data, os.LookupEnv)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse options yaml: %w", err)
	}
	return f, nil
}

// expandTemplateVariables replaces {{VAR}} with the environment value.
// Unset variables become an empty string.
// Example: morning: "{{SNOOZZ_MORNING}}" -> morning: "07:30"
func expandTemplateVariables(data []byte, lookup func(string) (string, bool)) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := strings.TrimSpace(string(m[2 : len(m)-2]))
		v, _ := lookup(name)
		return []byte(v)
	})
}
