package config

import (
	"encoding/json"
	"os"
)

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	// ============ BASIC SETTINGS ============
	Enabled bool   `json:"enabled"`
	Mode    string `json:"mode"` // local, cloud, hybrid

	// ============ SCHEDULING ============
	AutoSyncEnabled  bool `json:"auto_sync_enabled"`
	AutoSyncInterval int  `json:"auto_sync_interval"` // seconds

	// ============ LIMITS ============
	MaxPushBatchSize int `json:"max_push_batch_size"`
	PullPageSize     int `json:"pull_page_size"`
	MaxRetries       int `json:"max_retries"`
	RetryBaseDelayMs int `json:"retry_base_delay_ms"`

	// ============ CONFLICTS ============
	// ConflictResolution: SERVER_WINS, CLIENT_WINS, LAST_WRITE_WINS, MANUAL, MERGE
	ConflictResolution string            `json:"conflict_resolution"`
	EntityStrategies   map[string]string `json:"entity_strategies"` // per entity type override

	// ============ REALTIME ============
	NotifyEnabled bool `json:"notify_enabled"` // websocket change notifications
}

// LoadSyncConfig loads sync configuration from a JSON file if SYNC_CONFIG_PATH
// is set, otherwise from environment with defaults.
func LoadSyncConfig() *SyncConfig {
	if configPath := os.Getenv("SYNC_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadSyncConfigFromFile(configPath); err == nil {
			return cfg
		}
	}
	return getDefaultSyncConfig()
}

// loadSyncConfigFromFile loads sync config from JSON file
func loadSyncConfigFromFile(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SyncConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getDefaultSyncConfig returns default sync configuration
func getDefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Enabled: getBoolEnv("SYNC_ENABLED", true),
		Mode:    getEnv("SYNC_MODE", "hybrid"),

		AutoSyncEnabled:  getBoolEnv("SYNC_AUTO_ENABLED", true),
		AutoSyncInterval: getIntEnv("SYNC_AUTO_INTERVAL", 300),

		MaxPushBatchSize: getIntEnv("SYNC_MAX_PUSH_BATCH", 1000),
		PullPageSize:     getIntEnv("SYNC_PULL_PAGE_SIZE", 500),
		MaxRetries:       getIntEnv("SYNC_MAX_RETRIES", 3),
		RetryBaseDelayMs: getIntEnv("SYNC_RETRY_BASE_DELAY_MS", 1000),

		ConflictResolution: getEnv("SYNC_CONFLICT_RESOLUTION", "LAST_WRITE_WINS"),
		EntityStrategies:   map[string]string{},

		NotifyEnabled: getBoolEnv("SYNC_NOTIFY_ENABLED", true),
	}
}
