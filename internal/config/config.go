// Package config loads and validates the environment-driven
// configuration table from spec.md §6. Configuration is built once at
// startup and is read-only thereafter.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequired is returned when a required key has no value.
var ErrMissingRequired = errors.New("config: missing required setting")

// Config is the fully validated, immutable process configuration.
type Config struct {
	Telegram TelegramConfig
	DB       DBConfig
	Trending TrendingConfig
	Filter   FilterConfig
	Oracle   OracleConfig
	Metrics  SurfaceConfig
	Health   SurfaceConfig
	Dashboard SurfaceConfig
	LogLevel string
	LogJSON  bool
}

type TelegramConfig struct {
	APIID       int
	APIHash     string
	Phone       string
	SessionName string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	PoolMin  int32
	PoolMax  int32
}

type TrendingConfig struct {
	WindowMinutes    int
	MinMentions      int
	MinUniqueChats   int
	CooldownMinutes  int
	CheckIntervalSec int
}

type FilterConfig struct {
	MinMessageLength int
	IgnoreForwarded  bool
}

type OracleConfig struct {
	Enabled     bool
	MinLiquidity float64
}

type SurfaceConfig struct {
	Enabled bool
	Port    int
}

// Window returns the trending window as a time.Duration.
func (c TrendingConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// Cooldown returns the cooldown period as a time.Duration.
func (c TrendingConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// CheckInterval returns the trending tick period as a time.Duration.
func (c TrendingConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

// Load reads a .env file if present (best-effort — its absence is not an
// error, matching the teacher's "cp .env.example .env" local-dev
// convention), binds environment variables via viper, applies defaults,
// validates required keys, and returns an immutable Config. Any failure
// here is a ConfigError and must abort before transport connect.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort; env vars always take precedence

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	required := []string{
		"TELEGRAM_API_ID",
		"TELEGRAM_API_HASH",
		"TELEGRAM_PHONE",
		"DB_PASSWORD",
	}
	var missing []string
	for _, key := range required {
		if v.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	apiID := v.GetInt("TELEGRAM_API_ID")
	if apiID == 0 {
		return nil, fmt.Errorf("%w: TELEGRAM_API_ID must be a non-zero integer", ErrMissingRequired)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			APIID:       apiID,
			APIHash:     v.GetString("TELEGRAM_API_HASH"),
			Phone:       v.GetString("TELEGRAM_PHONE"),
			SessionName: v.GetString("TELEGRAM_SESSION_NAME"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			PoolMin:  int32(v.GetInt("DB_POOL_MIN")),
			PoolMax:  int32(v.GetInt("DB_POOL_MAX")),
		},
		Trending: TrendingConfig{
			WindowMinutes:    v.GetInt("TRENDING_WINDOW_MINUTES"),
			MinMentions:      v.GetInt("TRENDING_MIN_MENTIONS"),
			MinUniqueChats:   v.GetInt("TRENDING_MIN_UNIQUE_CHATS"),
			CooldownMinutes:  v.GetInt("TRENDING_COOLDOWN_MINUTES"),
			CheckIntervalSec: v.GetInt("TRENDING_CHECK_INTERVAL"),
		},
		Filter: FilterConfig{
			MinMessageLength: v.GetInt("FILTER_MIN_MSG_LENGTH"),
			IgnoreForwarded:  v.GetBool("FILTER_IGNORE_FORWARDED"),
		},
		Oracle: OracleConfig{
			Enabled:      v.GetBool("DEXSCREENER_ENABLED"),
			MinLiquidity: v.GetFloat64("DEXSCREENER_MIN_LIQUIDITY"),
		},
		Metrics: SurfaceConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Port:    v.GetInt("METRICS_PORT"),
		},
		Health: SurfaceConfig{
			Enabled: v.GetBool("HEALTH_ENABLED"),
			Port:    v.GetInt("HEALTH_PORT"),
		},
		Dashboard: SurfaceConfig{
			Enabled: v.GetBool("DASHBOARD_ENABLED"),
			Port:    v.GetInt("DASHBOARD_PORT"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
		LogJSON:  v.GetBool("LOG_JSON"),
	}

	if cfg.Trending.WindowMinutes <= 0 {
		return nil, fmt.Errorf("%w: TRENDING_WINDOW_MINUTES must be positive", ErrMissingRequired)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TELEGRAM_SESSION_NAME", "alpha_radar")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "radar")
	v.SetDefault("DB_NAME", "alpha_radar")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("TRENDING_WINDOW_MINUTES", 5)
	v.SetDefault("TRENDING_MIN_MENTIONS", 3)
	v.SetDefault("TRENDING_MIN_UNIQUE_CHATS", 2)
	v.SetDefault("TRENDING_COOLDOWN_MINUTES", 15)
	v.SetDefault("TRENDING_CHECK_INTERVAL", 30)
	v.SetDefault("FILTER_MIN_MSG_LENGTH", 5)
	v.SetDefault("FILTER_IGNORE_FORWARDED", false)
	v.SetDefault("DEXSCREENER_ENABLED", false)
	v.SetDefault("DEXSCREENER_MIN_LIQUIDITY", 1000)
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_PORT", 9090)
	v.SetDefault("HEALTH_ENABLED", true)
	v.SetDefault("HEALTH_PORT", 8080)
	v.SetDefault("DASHBOARD_ENABLED", false)
	v.SetDefault("DASHBOARD_PORT", 8090)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_JSON", false)
}
