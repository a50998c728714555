package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server  ServerData  `json:"server"`
	Storage StorageData `json:"storage,omitempty"`
	Rules   RulesData   `json:"rules,omitempty"`
	Engine  EngineData  `json:"engine,omitempty"`
}

// ServerData configures the REST server
type ServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	// RequestTimeout bounds every request, as a Go duration string
	RequestTimeout string `json:"request_timeout,omitempty"`
	EnableCORS     bool   `json:"enable_cors,omitempty"`
}

// StorageData selects at most one chart store
type StorageData struct {
	SQLite   *SQLiteData   `json:"sqlite,omitempty"`
	Postgres *PostgresData `json:"postgres,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

// RulesData points at on-disk replacements for the built-in shensha rule sets
type RulesData struct {
	TraditionalPath string `json:"traditional_path,omitempty"`
	LegionPath      string `json:"legion_path,omitempty"`
}

// EngineData tunes the calculation engine
type EngineData struct {
	Strict           bool   `json:"strict,omitempty"`
	BatchConcurrency int    `json:"batch_concurrency,omitempty"`
	DefaultRuleSet   string `json:"default_rule_set,omitempty"`
}

// Overrides returns the rule set name to file path map expected by the
// shensha registry. Unset paths are left out.
func (r RulesData) Overrides() map[string]string {
	out := make(map[string]string)
	if r.TraditionalPath != "" {
		out["traditional"] = r.TraditionalPath
	}
	if r.LegionPath != "" {
		out["legion"] = r.LegionPath
	}
	return out
}

// Validate checks values that cannot be defaulted
func (c *ConfigData) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if (c.Server.Cert == "") != (c.Server.Key == "") {
		return fmt.Errorf("%w: server cert and key must be set together", ErrInvalidConfig)
	}
	if c.Storage.SQLite != nil && c.Storage.Postgres != nil {
		return fmt.Errorf("%w: configure only one of storage sqlite and postgres", ErrInvalidConfig)
	}
	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("%w: storage sqlite path is empty", ErrInvalidConfig)
	}
	if c.Storage.Postgres != nil && c.Storage.Postgres.ConnectionString == "" {
		return fmt.Errorf("%w: storage postgres connection string is empty", ErrInvalidConfig)
	}
	if c.Engine.BatchConcurrency < 0 {
		return fmt.Errorf("%w: engine batch concurrency %d", ErrInvalidConfig, c.Engine.BatchConcurrency)
	}
	return nil
}
