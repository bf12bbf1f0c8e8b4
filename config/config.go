package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
	} `yaml:"gemini"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Game struct {
		EvictionGraceSeconds int `yaml:"evictionGraceSeconds"`
		OracleTimeoutSeconds int `yaml:"oracleTimeoutSeconds"`
	} `yaml:"game"`
}

// LoadConfig reads the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if cfg.Game.EvictionGraceSeconds == 0 {
		cfg.Game.EvictionGraceSeconds = 60
	}
	if cfg.Game.OracleTimeoutSeconds == 0 {
		cfg.Game.OracleTimeoutSeconds = 8
	}

	return &cfg, nil
}
