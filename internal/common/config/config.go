package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"home-panel/internal/dashboard/engine"

	"github.com/BurntSushi/toml"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `toml:"port"`
	Environment  string `toml:"env"`
	ReadTimeout  int    `toml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout"`

	DBPath     string        `toml:"db_path"`
	LogLevel   string        `toml:"log_level"`
	RedisAddr  string        `toml:"redis_addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
	ConfigFile string        `toml:"-"`

	// Пустой CORSOrigins разрешает все источники без credentials.
	CORSOrigins []string `toml:"cors_origins"`

	Grid          engine.Grid   `toml:"grid"`
	SaveSignalTTL time.Duration `toml:"save_signal_ttl"`
	CoalesceSaves bool          `toml:"coalesce_saves"`
}

func Default() *Config {
	return &Config{
		Port:          "3000",
		Environment:   "development",
		ReadTimeout:   10,
		WriteTimeout:  10,
		DBPath:        "data/db/panel.db",
		LogLevel:      "info",
		SessionTTL:    24 * time.Hour,
		Grid:          engine.DefaultGrid(),
		SaveSignalTTL: 2 * time.Second,
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем TOML файл
// (CONFIG_FILE, отсутствующий файл пропускается), затем переменные окружения.
func Load() (*Config, error) {
	cfg := Default()
	cfg.ConfigFile = getEnv("CONFIG_FILE", "home-panel.toml")

	if _, err := toml.DecodeFile(cfg.ConfigFile, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", cfg.ConfigFile, err)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.CORSOrigins = getEnvAsList("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.Grid = cfg.Grid.Normalize()
	if cfg.SaveSignalTTL <= 0 {
		cfg.SaveSignalTTL = 2 * time.Second
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
