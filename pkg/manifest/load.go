// pkg/manifest/load.go
package manifest

import (
	"os"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	toml "github.com/pelletier/go-toml/v2"
)

// Load reads and validates a TOML manifest against actions.Default.
func Load(path string) (Config, error) { return LoadWith(path, actions.Default) }

func LoadWith(path string, reg *actions.Registry) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b, reg)
}

// Parse decodes and validates manifest bytes.
func Parse(b []byte, reg *actions.Registry) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateWith(reg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
