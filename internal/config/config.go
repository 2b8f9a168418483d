package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Provider ProviderConfig `json:"provider"`
	Summary  SummaryConfig  `json:"summary"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// ProviderConfig configures the upstream realtime provider. Secret is
// the long-lived API secret held server-side; it is passed explicitly
// into connect and never read by the core from ambient state.
type ProviderConfig struct {
	BaseURL            string        `json:"base_url"`
	WSBaseURL          string        `json:"ws_base_url"`
	Secret             string        `json:"secret,omitempty"`
	Model              string        `json:"model"`
	DefaultVoice       string        `json:"default_voice"`
	Transport          string        `json:"transport"` // "webrtc" or "websocket"
	NegotiationTimeout time.Duration `json:"negotiation_timeout"`
}

// SummaryConfig configures the optional post-session reflection. With
// an empty API key the heuristic summary is used alone.
type SummaryConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".solace"))
	}

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "solace")
	viper.SetDefault("database.database", "solace")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("provider.base_url", "https://api.openai.com/v1")
	viper.SetDefault("provider.ws_base_url", "wss://api.openai.com/v1")
	viper.SetDefault("provider.model", "gpt-4o-realtime-preview-2024-10-01")
	viper.SetDefault("provider.default_voice", "alloy")
	viper.SetDefault("provider.transport", "webrtc")
	viper.SetDefault("provider.negotiation_timeout", 15*time.Second)
	viper.SetDefault("summary.model", "gpt-4o-mini")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env carry the service.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("SOLACE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("SOLACE_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if secret := os.Getenv("OPENAI_API_KEY"); secret != "" {
		cfg.Provider.Secret = secret
		if cfg.Summary.APIKey == "" {
			cfg.Summary.APIKey = secret
		}
	}
}
