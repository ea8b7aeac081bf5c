// Package config loads service configuration from a YAML file with
// environment variable overrides. A .env file, when present, is loaded
// before overrides are applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerPort    = 8050
	defaultServerTimeout = 30
	defaultRedisAddress  = "localhost:6379"
	defaultDatasetPath   = "data/All_Diets.csv"

	// Outlier thresholds and calorie factors mirror the upstream dataset
	// policy. They are configuration, not domain invariants.
	defaultMaxProtein       = 2000
	defaultMaxCarbs         = 3000
	defaultMaxFat           = 2000
	defaultCaloriesPerFat   = 9
	defaultCaloriesPerMacro = 4
)

type Config struct {
	Debug   bool          `env:"APP_DEBUG" yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Dataset DatasetConfig `yaml:"dataset"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// RedisConfig holds cache backend connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// DatasetConfig holds the source file location and cleaning policy knobs.
type DatasetConfig struct {
	Path                   string  `env:"DATASET_PATH" yaml:"path"`
	MaxProteinGrams        float64 `yaml:"max_protein_g"`
	MaxCarbsGrams          float64 `yaml:"max_carbs_g"`
	MaxFatGrams            float64 `yaml:"max_fat_g"`
	CaloriesPerGramProtein float64 `yaml:"calories_per_gram_protein"`
	CaloriesPerGramCarbs   float64 `yaml:"calories_per_gram_carbs"`
	CaloriesPerGramFat     float64 `yaml:"calories_per_gram_fat"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Redis.Address == "" {
		return errors.New("redis.address is required")
	}
	if c.Dataset.Path == "" {
		return errors.New("dataset.path is required")
	}
	return nil
}

// Load reads the YAML file at path, applies .env and environment overrides,
// fills defaults, and validates. A missing config file is not an error:
// defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	// .env.local overrides .env; both are optional.
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = v == "true" || v == "1"
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = defaultDatasetPath
	}
	if cfg.Dataset.MaxProteinGrams == 0 {
		cfg.Dataset.MaxProteinGrams = defaultMaxProtein
	}
	if cfg.Dataset.MaxCarbsGrams == 0 {
		cfg.Dataset.MaxCarbsGrams = defaultMaxCarbs
	}
	if cfg.Dataset.MaxFatGrams == 0 {
		cfg.Dataset.MaxFatGrams = defaultMaxFat
	}
	if cfg.Dataset.CaloriesPerGramProtein == 0 {
		cfg.Dataset.CaloriesPerGramProtein = defaultCaloriesPerMacro
	}
	if cfg.Dataset.CaloriesPerGramCarbs == 0 {
		cfg.Dataset.CaloriesPerGramCarbs = defaultCaloriesPerMacro
	}
	if cfg.Dataset.CaloriesPerGramFat == 0 {
		cfg.Dataset.CaloriesPerGramFat = defaultCaloriesPerFat
	}
}
