package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxFileSize caps the config file read by LoadConfig.
const MaxFileSize = 1 << 20

// ErrFileTooLarge is returned for config files over MaxFileSize.
var ErrFileTooLarge = errors.New("config file too large")

// decode overlays the YAML document in data onto cfg. Unknown keys are
// rejected so a misspelled option fails loudly instead of being ignored.
// A blank document leaves cfg untouched.
func decode(data []byte, cfg *Config) error {
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), MaxFileSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}
