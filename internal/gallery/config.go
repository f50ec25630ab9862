package gallery

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jo-hoe/gardengallery/internal/common"
	"github.com/jo-hoe/gardengallery/internal/credentials"
	"github.com/jo-hoe/gardengallery/internal/imageservice"
	"github.com/jo-hoe/gardengallery/internal/transport"
	"gopkg.in/yaml.v3"
)

type ClientConfig struct {
	BaseURL          string              `yaml:"baseUrl" validate:"required,url"`
	Timeout          time.Duration       `yaml:"timeout" validate:"min=0"`
	IncludeImageData bool                `yaml:"includeImageData"`
	Credentials      credentials.Options `yaml:"credentials"`
}

// LoadConfig loads the client configuration from the specified YAML file
func LoadConfig(configPath string) (*ClientConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := ClientConfig{Timeout: transport.DefaultTimeout}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if config.Timeout == 0 {
		config.Timeout = transport.DefaultTimeout
	}

	if err := common.ValidateStruct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return &config, nil
}

// NewImageService wires credentials and transport into an image service.
func (c *ClientConfig) NewImageService() (*imageservice.Service, error) {
	store, err := credentials.NewStore(c.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}
	client := transport.NewClient(c.BaseURL, store,
		transport.WithTimeout(c.Timeout),
		transport.WithHTTPClient(&http.Client{}),
	)
	return imageservice.NewService(client, c.IncludeImageData), nil
}
