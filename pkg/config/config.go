package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Positions PositionsConfig `mapstructure:"positions"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	Env   string `mapstructure:"env"`   // "local" builds a dev logger
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// RatesConfig drives the polling service: where to fetch quotes from,
// how often, and when a 24h move counts as significant.
type RatesConfig struct {
	APIURL          string  `mapstructure:"api_url"`
	APIKey          string  `mapstructure:"api_key"`
	Convert         string  `mapstructure:"convert"` // quote currency, e.g. "USD"
	PollIntervalSec int     `mapstructure:"poll_interval_sec"`
	Threshold       float64 `mapstructure:"threshold"` // exclusive, percentage points
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type PositionsConfig struct {
	File string `mapstructure:"file"` // optional CSV loaded at startup
}

type GatewayConfig struct {
	ValidTickers []string `mapstructure:"valid_tickers"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Load .env file into System Environment (if it exists)
	// This ensures variables like APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	// 2. Set Defaults (12-Factor App: Dev/Prod Parity)
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "local")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "rate_changes")
	v.SetDefault("kafka.group_id", "position-tracker-group")

	v.SetDefault("rates.api_url", "https://pro-api.coinmarketcap.com/v1/cryptocurrency/listings/latest")
	v.SetDefault("rates.api_key", "")
	v.SetDefault("rates.convert", "USD")
	v.SetDefault("rates.poll_interval_sec", 60)
	v.SetDefault("rates.threshold", 5.0)

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("positions.file", "")

	v.SetDefault("gateway.valid_tickers", []string{"BTC", "ETH", "SOL", "XRP"})

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	// This is crucial for Viper to map flat Env Vars (APP_PORT) to nested structs (App.Port)
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.level", "logger.env")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "rates.api_url", "rates.api_key", "rates.convert", "rates.poll_interval_sec", "rates.threshold")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "positions.file")
	bindEnv(v, "gateway.valid_tickers")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// 6. Basic Validation
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if cfg.Processor.NumWorkers <= 0 {
		return nil, fmt.Errorf("processor num_workers must be positive")
	}
	if cfg.Rates.Threshold < 0 {
		return nil, fmt.Errorf("rates threshold cannot be negative")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
