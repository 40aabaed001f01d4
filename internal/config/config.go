// Package config loads the JSON configuration file shared by both CLI
// subcommands and validates the keys each subcommand requires.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration. The field tags match
// the configuration file keys verbatim.
type Config struct {
	SendGridAPIKey          string `json:"SENDGRID_API_KEY" yaml:"SENDGRID_API_KEY"`
	AzureStorageAccountName string `json:"azure_cdn_storage_account_name" yaml:"azure_cdn_storage_account_name"`
	AzureStorageAccountKey  string `json:"azure_cdn_storage_account_key" yaml:"azure_cdn_storage_account_key"`
	AzureContainerName      string `json:"azure_cdn_container_name" yaml:"azure_cdn_container_name"`
	AzureBlobPath           string `json:"azure_cdn_blob_path" yaml:"azure_cdn_blob_path"`
	LogLevel                string `json:"log_level" yaml:"log_level"`
}

// MissingKeyError reports a required configuration key that is absent or empty.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required configuration key: %s", e.Key)
}

// Load reads and parses the configuration file at path. The file is a JSON
// object; files with a .yaml or .yml extension are parsed as YAML using the
// same keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// RequireSendGrid validates the keys needed by the campaign subcommand.
func (c *Config) RequireSendGrid() error {
	if c.SendGridAPIKey == "" {
		return &MissingKeyError{Key: "SENDGRID_API_KEY"}
	}
	return nil
}

// RequireAzure validates the keys needed by the extract-html subcommand.
// azure_cdn_blob_path is optional.
func (c *Config) RequireAzure() error {
	required := []struct {
		key   string
		value string
	}{
		{"azure_cdn_storage_account_name", c.AzureStorageAccountName},
		{"azure_cdn_storage_account_key", c.AzureStorageAccountKey},
		{"azure_cdn_container_name", c.AzureContainerName},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingKeyError{Key: r.key}
		}
	}
	return nil
}
