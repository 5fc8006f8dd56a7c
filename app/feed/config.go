package feed

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache holds the parsed sources configuration and supports
// atomic reloads while the server is running.
type ConfigCache struct {
	configFile string
	mu         sync.RWMutex
	config     *Config
}

func NewConfigCache(configFile string) *ConfigCache {
	return &ConfigCache{
		configFile: configFile,
	}
}

// Run loads the configuration file for the first time.
func (cc *ConfigCache) Run() error {
	config, err := cc.Reload()
	if err != nil {
		return err
	}

	slog.Debug("Configuration loaded", "channel", config.Channel.Title, "sources", len(config.Sources), "max_items", config.Settings.MaxItems)
	return nil
}

// Reload re-reads and validates the configuration file, replacing the
// cached config only if the new one is valid.
func (cc *ConfigCache) Reload() (*Config, error) {
	config, err := cc.parseConfig(cc.configFile)
	if err != nil {
		return nil, err
	}

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cc.configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.config = config

	return config, nil
}

// Get returns the cached configuration.
func (cc *ConfigCache) Get() (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if cc.config == nil {
		return nil, fmt.Errorf("configuration not loaded from %s", cc.configFile)
	}
	return cc.config, nil
}

func (cc *ConfigCache) GetSourceCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if cc.config == nil {
		return 0
	}
	return len(cc.config.Sources)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.MaxItems == 0 {
		config.Settings.MaxItems = 100
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	requiredChannelFields := map[string]string{
		"channel title":       config.Channel.Title,
		"channel link":        config.Channel.Link,
		"channel description": config.Channel.Description,
	}

	for fieldName, fieldValue := range requiredChannelFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if config.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	for i, source := range config.Sources {
		if source.URL == "" {
			return fmt.Errorf("source at index %d: URL is required", i)
		}
		if source.Title == "" {
			return fmt.Errorf("source at index %d: title is required for attribution", i)
		}
	}

	return nil
}
