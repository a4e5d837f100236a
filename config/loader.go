package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/codecage/sandbox"
	"github.com/BaSui01/codecage/spawn"
	"github.com/BaSui01/codecage/validator"
)

// Config is the full declarative configuration of the security core. Every
// section is optional: an absent section keeps the shipped defaults.
type Config struct {
	Validator ValidatorConfig `yaml:"validator"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Spawn     SpawnConfig     `yaml:"spawn"`
}

// ValidatorConfig extends the shipped rule tables. Entries are appended to
// the defaults, never replacing them: configuration can only tighten the
// validator.
type ValidatorConfig struct {
	ExtraForbiddenCalls      []string `yaml:"extra_forbidden_calls"`
	ExtraForbiddenReferences []string `yaml:"extra_forbidden_references"`
	ExtraForbiddenPatterns   []string `yaml:"extra_forbidden_patterns"`
	ExtraForbiddenImports    []string `yaml:"extra_forbidden_imports"`
	MaxTraversalDepth        int      `yaml:"max_traversal_depth"`
}

// SandboxConfig overrides the execution limits.
type SandboxConfig struct {
	MaxOperations  int `yaml:"max_operations"`
	MaxOutputBytes int `yaml:"max_output_bytes"`
}

// SpawnConfig overrides the delegation policy.
type SpawnConfig struct {
	MaxDepth            int      `yaml:"max_depth"`
	AllowedTools        []string `yaml:"allowed_tools"`
	AllowAnyTool        bool     `yaml:"allow_any_tool"`
	MaxStepsPerAgent    int      `yaml:"max_steps_per_agent"`
	InheritRestrictions *bool    `yaml:"inherit_restrictions"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Ruleset builds the validator ruleset: the shipped defaults extended with
// the configured additions.
func (c *Config) Ruleset() validator.Ruleset {
	return validator.DefaultRuleset().Merge(validator.Ruleset{
		ForbiddenCalls:      c.Validator.ExtraForbiddenCalls,
		ForbiddenReferences: c.Validator.ExtraForbiddenReferences,
		ForbiddenPatterns:   c.Validator.ExtraForbiddenPatterns,
		ForbiddenImports:    c.Validator.ExtraForbiddenImports,
		MaxTraversalDepth:   c.Validator.MaxTraversalDepth,
	})
}

// Limits builds the sandbox limits; zero fields fall back to the defaults
// inside the sandbox package.
func (c *Config) Limits() sandbox.Limits {
	return sandbox.Limits{
		MaxOperations:  c.Sandbox.MaxOperations,
		MaxOutputBytes: c.Sandbox.MaxOutputBytes,
	}
}

// SpawnPolicy builds the delegation policy. knownTools, when non-empty, is
// the universe of recognized tool identifiers used to reject typos in the
// allowlist.
func (c *Config) SpawnPolicy(knownTools []string) (*spawn.Policy, error) {
	inherit := true
	if c.Spawn.InheritRestrictions != nil {
		inherit = *c.Spawn.InheritRestrictions
	}
	return spawn.NewPolicy(spawn.PolicyConfig{
		MaxDepth:            c.Spawn.MaxDepth,
		AllowedTools:        c.Spawn.AllowedTools,
		AllowAnyTool:        c.Spawn.AllowAnyTool,
		MaxStepsPerAgent:    c.Spawn.MaxStepsPerAgent,
		InheritRestrictions: inherit,
		KnownTools:          knownTools,
	})
}
