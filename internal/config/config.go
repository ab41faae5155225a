// Package config loads engine configuration from a YAML file with
// environment-variable fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML duration strings like "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Category overrides one intent's keyword list.
type Category struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
}

// Persona holds the constant persona fields rendered into every prompt.
type Persona struct {
	Name    string `yaml:"name"`
	Company string `yaml:"company"`
	Tone    string `yaml:"tone"`
}

// Ollama configures the offline harvester's generation backend.
type Ollama struct {
	Model string `yaml:"model"`
}

// Config is the full engine configuration.
type Config struct {
	DBPath      string        `yaml:"db_path"`
	LogLevel    string        `yaml:"log_level"`
	IOTimeout   Duration      `yaml:"io_timeout"`
	Persona     Persona       `yaml:"persona"`
	AdminRoles  []string      `yaml:"admin_roles"`
	BrandTokens []string      `yaml:"brand_tokens"`
	OutOfScope  []string      `yaml:"out_of_scope"`
	Categories  []Category    `yaml:"categories"`
	Ollama      Ollama        `yaml:"ollama"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:     filepath.Join(home, ".dialogroute", "engine.db"),
		LogLevel:   "info",
		IOTimeout:  Duration(3 * time.Second),
		AdminRoles: []string{"admin", "owner"},
		Persona: Persona{
			Name: "the assistant",
			Tone: "friendly and concise",
		},
		Ollama: Ollama{Model: "llama3.2"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $DIALOGROUTE_CONFIG; a missing file is not an error. $DIALOGROUTE_DB
// overrides the database path last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DIALOGROUTE_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if db := os.Getenv("DIALOGROUTE_DB"); db != "" {
		cfg.DBPath = db
	}

	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = Duration(3 * time.Second)
	}
	return cfg, nil
}
