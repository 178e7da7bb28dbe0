// Package config carries the runtime options shared by the CLI and server.
package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/robmorgan/pulse/logger"
)

// DefaultSampleRate is used whenever the host doesn't supply one.
const DefaultSampleRate = 48000

// PulseConfig represents options that configure the global behavior of the
// program.
type PulseConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	// SampleRate of the audio host this session runs against. Not part
	// of persisted map state; it always comes from here.
	SampleRate int64 `yaml:"sample_rate"`

	// StatePath is where the tempo map state file lives.
	StatePath string `yaml:"state_path"`

	// LogLevel by name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`
}

// NewPulseConfig returns a config with reasonable defaults for real usage.
func NewPulseConfig() (PulseConfig, error) {
	return PulseConfig{
		Logger:     logger.GetProjectLogger(),
		SampleRate: DefaultSampleRate,
		StatePath:  "pulse-map.xml",
		LogLevel:   "info",
	}, nil
}

// LoadPulseConfig reads a yaml config file over the defaults.
func LoadPulseConfig(path string) (PulseConfig, error) {
	cfg, err := NewPulseConfig()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.LogLevel != "" {
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}
	return cfg, nil
}
