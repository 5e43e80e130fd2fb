package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/contentpub/importer/internal/db"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// ImportConfig holds the pipeline settings.
type ImportConfig struct {
	UploadDir        string
	ProbeConcurrency int
	MigrationsPath   string
}

// Config is the full application configuration.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Import   ImportConfig
}

// DefaultConfig returns the defaults used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Import: ImportConfig{
			UploadDir:        "./uploads",
			ProbeConcurrency: 6,
			MigrationsPath:   "./migrations",
		},
	}
}

// Load reads config.yaml from configPath, with environment overrides mapped
// under the IMPORTER prefix (e.g. IMPORTER_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	v.SetEnvPrefix("IMPORTER")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("import.upload_dir")
	v.BindEnv("import.probe_concurrency")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("import.upload_dir") {
		cfg.Import.UploadDir = v.GetString("import.upload_dir")
	}
	if v.IsSet("import.probe_concurrency") {
		cfg.Import.ProbeConcurrency = v.GetInt("import.probe_concurrency")
	}
	if v.IsSet("import.migrations_path") {
		cfg.Import.MigrationsPath = v.GetString("import.migrations_path")
	}

	return cfg, nil
}
