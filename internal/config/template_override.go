package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadTemplateOverrides reads a YAML document at path and decodes it into
// the same map[string]interface{}/[]interface{} shape StartupTemplate
// produces, suitable for MergeOverrides. An empty path is a no-op returning
// nil, so callers can pass the --template flag's zero value straight
// through.
func LoadTemplateOverrides(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading template override %s", path)
	}

	var overrides map[string]interface{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, errors.Wrapf(err, "config: parsing template override %s", path)
	}
	return overrides, nil
}
