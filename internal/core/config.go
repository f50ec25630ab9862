package core

import (
	"fmt"
	"os"

	"github.com/jo-hoe/gardengallery/internal/common"
	"gopkg.in/yaml.v3"
)

const DefaultMaxUploadBytes = 32 << 20

type Database struct {
	Type             string `yaml:"type" validate:"omitempty,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

// Seed fills owners with demo images on startup.
type Seed struct {
	Owners         []int64 `yaml:"owners"`
	ImagesPerOwner int     `yaml:"imagesPerOwner" validate:"min=0,max=100"`
}

type ServiceConfig struct {
	Port           int      `yaml:"port" validate:"min=0,max=65535"`
	AuthToken      string   `yaml:"authToken"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes" validate:"min=0"`
	Database       Database `yaml:"database"`
	Seed           Seed     `yaml:"seed"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if err := common.ValidateStruct(config); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return &config, nil
}
