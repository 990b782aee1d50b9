// Package config loads workflow definition files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefinitionsFile represents the structure of a workflow definitions YAML file.
type DefinitionsFile struct {
	Workflows []map[string]any `yaml:"workflows"`
}

// LoadDefinitions reads the workflows list of a YAML file. Each entry keeps
// the shape accepted by the workflow admin API.
func LoadDefinitions(filepath string) ([]map[string]any, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file %s: %w", filepath, err)
	}

	var file DefinitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML definitions: %w", err)
	}

	return file.Workflows, nil
}
