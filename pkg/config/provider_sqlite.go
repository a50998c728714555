package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// Schema holds one row per setting, keyed by the dotted YAML path
// (server.port, storage.sqlite.path, rules.legion-path, ...)
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider, creating the
// settings table when the database is new
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	config, err := configFromSettings(settings)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig replaces every stored setting with the given configuration
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	if err := config.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for k, v := range settingsFromConfig(config) {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to store setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// IsReadOnly returns false, SQLite settings can be written with SaveConfig
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

func configFromSettings(settings map[string]string) (*ConfigData, error) {
	config := &ConfigData{}
	for k, v := range settings {
		var err error
		switch k {
		case "server.cert":
			config.Server.Cert = v
		case "server.key":
			config.Server.Key = v
		case "server.port":
			config.Server.Port, err = strconv.Atoi(v)
		case "server.listen-addr":
			config.Server.ListenAddr = v
		case "server.request-timeout":
			config.Server.RequestTimeout = v
		case "server.enable-cors":
			config.Server.EnableCORS, err = strconv.ParseBool(v)
		case "storage.sqlite.path":
			config.Storage.SQLite = &SQLiteData{Path: v}
		case "storage.postgres.connection-string":
			config.Storage.Postgres = &PostgresData{ConnectionString: v}
		case "rules.traditional-path":
			config.Rules.TraditionalPath = v
		case "rules.legion-path":
			config.Rules.LegionPath = v
		case "engine.strict":
			config.Engine.Strict, err = strconv.ParseBool(v)
		case "engine.batch-concurrency":
			config.Engine.BatchConcurrency, err = strconv.Atoi(v)
		case "engine.default-rule-set":
			config.Engine.DefaultRuleSet = v
		default:
			return nil, fmt.Errorf("%w: unknown setting %q", ErrInvalidConfig, k)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: setting %s=%q: %w", ErrInvalidConfig, k, v, err)
		}
	}
	return config, nil
}

func settingsFromConfig(c *ConfigData) map[string]string {
	out := map[string]string{
		"server.port":              strconv.Itoa(c.Server.Port),
		"server.enable-cors":       strconv.FormatBool(c.Server.EnableCORS),
		"engine.strict":            strconv.FormatBool(c.Engine.Strict),
		"engine.batch-concurrency": strconv.Itoa(c.Engine.BatchConcurrency),
	}
	optional := map[string]string{
		"server.cert":             c.Server.Cert,
		"server.key":              c.Server.Key,
		"server.listen-addr":      c.Server.ListenAddr,
		"server.request-timeout":  c.Server.RequestTimeout,
		"rules.traditional-path":  c.Rules.TraditionalPath,
		"rules.legion-path":       c.Rules.LegionPath,
		"engine.default-rule-set": c.Engine.DefaultRuleSet,
	}
	for k, v := range optional {
		if v != "" {
			out[k] = v
		}
	}
	if c.Storage.SQLite != nil {
		out["storage.sqlite.path"] = c.Storage.SQLite.Path
	}
	if c.Storage.Postgres != nil {
		out["storage.postgres.connection-string"] = c.Storage.Postgres.ConnectionString
	}
	return out
}
