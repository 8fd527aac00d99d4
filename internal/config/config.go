package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string `mapstructure:"ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	BackendURL     string        `mapstructure:"BACKEND_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PollInterval   time.Duration `mapstructure:"POLL_INTERVAL"`

	Timezone      string `mapstructure:"TIMEZONE"`
	BusinessOpen  string `mapstructure:"BUSINESS_OPEN"`
	BusinessClose string `mapstructure:"BUSINESS_CLOSE"`
	SlotMinutes   int    `mapstructure:"SLOT_MINUTES"`

	DBUrl string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	LoginRatePerMin int      `mapstructure:"LOGIN_RATE_PER_MIN"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"ENV":         "development",
	"SERVER_PORT": "8080",
	"LOG_LEVEL":   "info",
	"LOG_FORMAT":  "console",

	"BACKEND_URL":     "http://localhost:8000",
	"REQUEST_TIMEOUT": "10s",
	"POLL_INTERVAL":   "5m",

	"TIMEZONE":       "America/Argentina/Buenos_Aires",
	"BUSINESS_OPEN":  "09:00",
	"BUSINESS_CLOSE": "22:00",
	"SLOT_MINUTES":   30,

	"DATABASE_URL": "",

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_CACHE_DB": 0,
	"REDIS_AUTH_DB":  1,

	"JWT_SECRET": "changeme",
	"JWT_TTL":    "12h",

	"LOGIN_RATE_PER_MIN": 10,
	"CORS_ORIGINS":       "http://localhost:5173,http://localhost:3000",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// "a,b" from the environment arrives as a single element
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("config: POLL_INTERVAL must be positive")
	}

	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
