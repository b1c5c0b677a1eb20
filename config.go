package greyhorse

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadModuleConf reads path and decodes it as a ModuleConf, the
// declarative-config replacement for the source's module.yaml discovery
// convention: YAML rather than JSON because the original's own config
// files are YAML-first (app.yaml / module.yaml), adapted from
// doffy-go-boostrap's read-file-then-unmarshal config idiom.
func LoadModuleConf(path string) (*ModuleConf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module conf %s: %w", path, err)
	}
	var conf ModuleConf
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("decode module conf %s: %w", path, err)
	}
	return &conf, nil
}

// LoadComponentConf reads path and decodes it as a ComponentConf.
func LoadComponentConf(path string) (*ComponentConf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read component conf %s: %w", path, err)
	}
	var conf ComponentConf
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("decode component conf %s: %w", path, err)
	}
	return &conf, nil
}

// MarshalModuleConf renders conf back to YAML, mirroring the source's
// ability to dump a built-up config tree for diagnostics or templating.
func MarshalModuleConf(conf *ModuleConf) ([]byte, error) {
	return yaml.Marshal(conf)
}
