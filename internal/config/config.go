package config

import "path/filepath"

// Config represents the main ctxhub configuration
type Config struct {
	// Data directory holding the two database files
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Embedding provider
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Memory engine tuning
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`

	// Agenda engine
	Agenda AgendaConfig `json:"agenda" mapstructure:"agenda"`

	// Maintenance scheduling
	Maintenance MaintenanceConfig `json:"maintenance" mapstructure:"maintenance"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	APIKey string `json:"api_key" mapstructure:"api_key"`
	Model  string `json:"model" mapstructure:"model"`
}

// MemoryConfig holds memory engine configuration. KRRF and Overfetch are
// the documented fusion tunables rather than hidden constants.
type MemoryConfig struct {
	DBFile    string `json:"db_file" mapstructure:"db_file"`
	TopK      int    `json:"top_k" mapstructure:"top_k"`
	KRRF      int    `json:"k_rrf" mapstructure:"k_rrf"`
	Overfetch int    `json:"overfetch" mapstructure:"overfetch"`
}

// AgendaConfig holds agenda engine configuration
type AgendaConfig struct {
	DBFile string `json:"db_file" mapstructure:"db_file"`
}

// MaintenanceConfig holds the scheduled audit configuration
type MaintenanceConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".ctxhub",
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
		Memory: MemoryConfig{
			DBFile:    "memory.sqlite",
			TopK:      3,
			KRRF:      60,
			Overfetch: 4,
		},
		Agenda: AgendaConfig{
			DBFile: "agenda.sqlite",
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "@every 1h",
		},
	}
}

// MemoryDBPath returns the memory database file path.
func (c *Config) MemoryDBPath() string {
	return filepath.Join(c.DataDir, c.Memory.DBFile)
}

// AgendaDBPath returns the agenda database file path.
func (c *Config) AgendaDBPath() string {
	return filepath.Join(c.DataDir, c.Agenda.DBFile)
}
