package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// SecretsDir is where Docker mounts secrets. A secret file wins over the
// environment variable of the same name.
const SecretsDir = "/run/secrets"

type Config struct {
	PatientToken    string `mapstructure:"BOT1_TOKEN" validate:"required"`
	DoctorToken     string `mapstructure:"BOT2_TOKEN" validate:"required"`
	BookingToken    string `mapstructure:"BOT3_TOKEN"` // empty leaves the booking bot off
	PatientUsername string `mapstructure:"BOT1_USERNAME"`
	DoctorUsername  string `mapstructure:"BOT2_USERNAME"`
	BookingUsername string `mapstructure:"BOT3_USERNAME"`

	DoctorChannelID string `mapstructure:"DOCTOR_CHANNEL_ID" validate:"required"`
	DoctorChatID    string `mapstructure:"DOCTOR_CHAT_ID"`

	APIBaseURL  string        `mapstructure:"API_BASE_URL"  validate:"required,url"`
	FrontendURL string        `mapstructure:"FRONTEND_URL"  validate:"omitempty,url"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"  validate:"gt=0"`

	Port     string `mapstructure:"PORT"      validate:"required"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"oneof=memory sqlite"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	SessionBackend     string        `mapstructure:"SESSION_BACKEND"      validate:"oneof=memory redis"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT" validate:"gte=0"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"           validate:"required_if=SessionBackend redis"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`

	RelayAttempts         int           `mapstructure:"RELAY_ATTEMPTS"          validate:"min=1,max=10"`
	RelayBackoff          time.Duration `mapstructure:"RELAY_BACKOFF"           validate:"gte=0"`
	SendRatePerSec        float64       `mapstructure:"SEND_RATE_PER_SEC"       validate:"gte=0"`
	PendingDigestInterval time.Duration `mapstructure:"PENDING_DIGEST_INTERVAL" validate:"gte=0"`
	ContactMirror         bool          `mapstructure:"CONTACT_MIRROR"`
}

func (c Config) IsProduction() bool { return c.Env == "production" }

var defaults = map[string]any{
	"BOT1_TOKEN":              "",
	"BOT2_TOKEN":              "",
	"BOT3_TOKEN":              "",
	"BOT1_USERNAME":           "",
	"BOT2_USERNAME":           "",
	"BOT3_USERNAME":           "",
	"DOCTOR_CHANNEL_ID":       "",
	"DOCTOR_CHAT_ID":          "",
	"API_BASE_URL":            "http://localhost:3001/api",
	"FRONTEND_URL":            "http://localhost:3000",
	"HTTP_TIMEOUT":            "10s",
	"PORT":                    "3002",
	"ENV":                     "development",
	"LOG_LEVEL":               "",
	"STORAGE_DRIVER":          "memory",
	"SQLITE_PATH":             ":memory:",
	"SESSION_BACKEND":         "memory",
	"SESSION_IDLE_TIMEOUT":    "0s",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"RELAY_ATTEMPTS":          3,
	"RELAY_BACKOFF":           "1s",
	"SEND_RATE_PER_SEC":       25,
	"PENDING_DIGEST_INTERVAL": "0s",
	"CONTACT_MIRROR":          false,
}

// secretKeys may be provided as Docker secrets, named in lower case.
var secretKeys = []string{"BOT1_TOKEN", "BOT2_TOKEN", "BOT3_TOKEN", "REDIS_PASSWORD"}

// Load reads config.yaml (optional), the environment and Docker secrets.
func Load() (Config, error) {
	return load(SecretsDir)
}

func load(secretsDir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	for _, k := range secretKeys {
		if s, ok := readSecret(secretsDir, strings.ToLower(k)); ok {
			v.Set(k, s)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DoctorChatID == "" {
		cfg.DoctorChatID = cfg.DoctorChannelID
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readSecret(dir, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	s := strings.TrimSpace(string(data))
	return s, s != ""
}
