package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rpattn/driverlog/internal/db"
)

// EnvPrefix namespaces environment overrides, e.g. DRIVERLOG_SERVER_ADDR.
const EnvPrefix = "DRIVERLOG"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Admin     AdminConfig
	Storage   db.Config
	Ingestion IngestionConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type AdminConfig struct {
	Key string
}

type IngestionConfig struct {
	Mode string
}

type ExportConfig struct {
	FlushEvery int
}

// New returns a viper instance with defaults and environment bindings in place.
func New() *viper.Viper {
	storage := db.DefaultConfig()

	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("admin.key", "")
	v.SetDefault("storage.driver", storage.Driver)
	v.SetDefault("storage.base_dir", storage.BaseDir)
	v.SetDefault("storage.file", storage.File)
	v.SetDefault("storage.busy_timeout", storage.BusyTimeout)
	v.SetDefault("storage.postgres.host", storage.Postgres.Host)
	v.SetDefault("storage.postgres.port", storage.Postgres.Port)
	v.SetDefault("storage.postgres.user", storage.Postgres.User)
	v.SetDefault("storage.postgres.password", storage.Postgres.Password)
	v.SetDefault("storage.postgres.dbname", storage.Postgres.DBName)
	v.SetDefault("storage.postgres.sslmode", storage.Postgres.SSLMode)
	v.SetDefault("ingestion.mode", "lenient")
	v.SetDefault("export.flush_every", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env, then config.yaml from configPath (a directory or a file),
// then environment overrides. A missing file is not an error.
func Load(v *viper.Viper, configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath != "" && filepath.Ext(configPath) != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath == "" {
			configPath = "."
		}
		v.AddConfigPath(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("[config] no config file found, using defaults and env vars")
	} else {
		log.Printf("[config] loaded %s", v.ConfigFileUsed())
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
		},
		Admin: AdminConfig{Key: v.GetString("admin.key")},
		Storage: db.Config{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			BaseDir:     v.GetString("storage.base_dir"),
			File:        v.GetString("storage.file"),
			BusyTimeout: v.GetDuration("storage.busy_timeout"),
			Postgres: db.PostgresConfig{
				Host:     v.GetString("storage.postgres.host"),
				Port:     v.GetInt("storage.postgres.port"),
				User:     v.GetString("storage.postgres.user"),
				Password: v.GetString("storage.postgres.password"),
				DBName:   v.GetString("storage.postgres.dbname"),
				SSLMode:  v.GetString("storage.postgres.sslmode"),
			},
		},
		Ingestion: IngestionConfig{Mode: v.GetString("ingestion.mode")},
		Export:    ExportConfig{FlushEvery: v.GetInt("export.flush_every")},
	}
	return cfg, nil
}
