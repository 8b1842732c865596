package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileSchema is the on-disk shape of a logsift configuration file. The
// matcher knobs live under a top-level "matcher" key so the file can grow
// unrelated sections later without a format break.
type fileSchema struct {
	Matcher MatcherConfig `yaml:"matcher"`
}

// LoadFile loads a matcher configuration from a YAML file using Koanf.
// Keys absent from the file keep their defaults; present values are
// normalized (clamped) and then validated.
//
// Error cases:
//   - file not found or unreadable
//   - invalid YAML syntax
//   - unknown match_kind after normalization
func LoadFile(path string) (MatcherConfig, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return MatcherConfig{}, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	schema := fileSchema{Matcher: Default()}
	if err := k.UnmarshalWithConf("", &schema, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return MatcherConfig{}, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	cfg := schema.Matcher
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return MatcherConfig{}, fmt.Errorf("config validation failed for %q: %w", path, err)
	}

	return cfg, nil
}
