package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return ParseYAML(cfgFile)
}

// ParseYAML decodes a YAML document. Unknown keys are rejected so a typo in
// a rule path does not silently fall back to the built-in tables.
func ParseYAML(b []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(b, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	config := &ConfigData{
		Server: ServerData{
			Cert:           yamlConfig.Server.Cert,
			Key:            yamlConfig.Server.Key,
			Port:           yamlConfig.Server.Port,
			ListenAddr:     yamlConfig.Server.ListenAddr,
			RequestTimeout: yamlConfig.Server.RequestTimeout,
			EnableCORS:     yamlConfig.Server.EnableCORS,
		},
		Rules: RulesData{
			TraditionalPath: yamlConfig.Rules.TraditionalPath,
			LegionPath:      yamlConfig.Rules.LegionPath,
		},
		Engine: EngineData{
			Strict:           yamlConfig.Engine.Strict,
			BatchConcurrency: yamlConfig.Engine.BatchConcurrency,
			DefaultRuleSet:   yamlConfig.Engine.DefaultRuleSet,
		},
	}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: yamlConfig.Storage.SQLite.Path}
	}
	if yamlConfig.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Storage.Postgres.ConnectionString,
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// IsReadOnly returns true, YAML files are never written back
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with the file's dashed key names
type ConfigYAML struct {
	Server  ServerYAML  `yaml:"server"`
	Storage StorageYAML `yaml:"storage,omitempty"`
	Rules   RulesYAML   `yaml:"rules,omitempty"`
	Engine  EngineYAML  `yaml:"engine,omitempty"`
}

type ServerYAML struct {
	Cert           string `yaml:"cert,omitempty"`
	Key            string `yaml:"key,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	ListenAddr     string `yaml:"listen-addr,omitempty"`
	RequestTimeout string `yaml:"request-timeout,omitempty"`
	EnableCORS     bool   `yaml:"enable-cors,omitempty"`
}

type StorageYAML struct {
	SQLite   *SQLiteYAML   `yaml:"sqlite,omitempty"`
	Postgres *PostgresYAML `yaml:"postgres,omitempty"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type PostgresYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type RulesYAML struct {
	TraditionalPath string `yaml:"traditional-path,omitempty"`
	LegionPath      string `yaml:"legion-path,omitempty"`
}

type EngineYAML struct {
	Strict           bool   `yaml:"strict,omitempty"`
	BatchConcurrency int    `yaml:"batch-concurrency,omitempty"`
	DefaultRuleSet   string `yaml:"default-rule-set,omitempty"`
}
