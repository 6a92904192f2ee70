// Package config handles the agentdeck YAML config file. Flags layer on
// top of it in cmd; defaults live here.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of agentdeck.yaml.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

// ClientConfig controls the TUI client and its event source.
type ClientConfig struct {
	// URL of the backend websocket endpoint.
	URL string `yaml:"url"`
	// MaxRetries is the reconnection ceiling after a dropped connection.
	MaxRetries int `yaml:"max_retries"`
	// SettleMillis is the pause between the deselect and select phases of
	// a gallery transition.
	SettleMillis int `yaml:"settle_millis"`
}

// ServerConfig controls the scripted demo backend.
type ServerConfig struct {
	Addr  string      `yaml:"addr"`
	Step  string      `yaml:"step"` // delay between scripted updates, e.g. "300ms"
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig selects Redis Streams as the event bus instead of the
// in-process go-channel transport.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Group   string `yaml:"group"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: ClientConfig{
			URL:          "ws://localhost:8088/ws",
			MaxRetries:   3,
			SettleMillis: 250,
		},
		Server: ServerConfig{
			Addr: ":8088",
			Step: "300ms",
			Redis: RedisConfig{
				Addr:  "localhost:6379",
				Group: "ui",
			},
		},
	}
}

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config")
	}
	return cfg, nil
}

// SettleDelay returns the gallery settle pause as a duration.
func (c ClientConfig) SettleDelay() time.Duration {
	if c.SettleMillis <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// StepDelay returns the scripted update pacing, falling back to the
// default on an unparsable value.
func (c ServerConfig) StepDelay() time.Duration {
	d, err := time.ParseDuration(c.Step)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}
