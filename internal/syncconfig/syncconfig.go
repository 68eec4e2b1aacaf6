package syncconfig

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	BatchSize  *int `json:"batch_size,omitempty"`  // nil = default 10
	MaxRetries *int `json:"max_retries,omitempty"` // nil = default 3
}

// APIConfig holds server connection settings.
type APIConfig struct {
	BaseURL string `json:"base_url,omitempty"`
}

// Config is the global taskpad config stored at ~/.config/taskpad/config.json.
type Config struct {
	API  APIConfig  `json:"api"`
	Sync SyncConfig `json:"sync"`
}

// Device stores the persistent client identity at ~/.config/taskpad/device.json.
type Device struct {
	DeviceID string `json:"device_id"`
}

const (
	defaultBaseURL    = "http://localhost:3000/api"
	defaultBatchSize  = 10
	defaultMaxRetries = 3
)

// ConfigDir returns ~/.config/taskpad, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "taskpad")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/taskpad/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/taskpad/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// GetBaseURL returns the sync server base URL.
// Priority: API_BASE_URL env > config.json > default.
func GetBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.API.BaseURL != "" {
		return cfg.API.BaseURL
	}
	return defaultBaseURL
}

// GetBatchSize returns the maximum items per outbound batch.
// Priority: SYNC_BATCH_SIZE env > config.json > default (10).
func GetBatchSize() int {
	if v := os.Getenv("SYNC_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.BatchSize != nil && *cfg.Sync.BatchSize > 0 {
		return *cfg.Sync.BatchSize
	}
	return defaultBatchSize
}

// GetMaxRetries returns the attempts before an intent is dead-lettered.
// Priority: MAX_RETRIES env > config.json > default (3).
func GetMaxRetries() int {
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.MaxRetries != nil && *cfg.Sync.MaxRetries > 0 {
		return *cfg.Sync.MaxRetries
	}
	return defaultMaxRetries
}

// GetDeviceID returns the persistent device ID, generating one on first use.
func GetDeviceID() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "device.json")

	data, err := os.ReadFile(path)
	if err == nil {
		var dev Device
		if json.Unmarshal(data, &dev) == nil && dev.DeviceID != "" {
			return dev.DeviceID, nil
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	id, err := generateDeviceID()
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(Device{DeviceID: id}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return "", err
	}
	return id, nil
}

// generateDeviceID creates a new random device ID (16 bytes hex).
func generateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
