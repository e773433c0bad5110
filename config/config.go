package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort   = 8080
	defaultRoundMinutes = 50
	defaultMaxRounds    = 3
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	LogLevel           slog.Level
	CORSAllowedOrigins []string

	DefaultRoundMinutes int
	DefaultMaxRounds    int

	R2 R2Config
}

// R2Config describes the bucket final standings are archived to.
// All fields are set or none are.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled reports whether archiving to R2 is configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, errors.New("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	level, err := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	roundMinutes, err := intFromEnv("DEFAULT_ROUND_MINUTES", defaultRoundMinutes)
	if err != nil {
		return nil, err
	}
	if roundMinutes < 1 || roundMinutes > 300 {
		return nil, fmt.Errorf("DEFAULT_ROUND_MINUTES must be between 1 and 300, got %d", roundMinutes)
	}

	maxRounds, err := intFromEnv("DEFAULT_MAX_ROUNDS", defaultMaxRounds)
	if err != nil {
		return nil, err
	}
	if maxRounds < 1 {
		return nil, fmt.Errorf("DEFAULT_MAX_ROUNDS must be at least 1, got %d", maxRounds)
	}

	r2, err := loadR2()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:         dbURL,
		JWTSecretKey:        jwtKey,
		ServerPort:          port,
		LogLevel:            level,
		CORSAllowedOrigins:  splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		DefaultRoundMinutes: roundMinutes,
		DefaultMaxRounds:    maxRounds,
		R2:                  r2,
	}

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (expected debug, info, warn or error)", raw)
}

func splitList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Либо все переменные R2 заданы, либо ни одной.
func loadR2() (R2Config, error) {
	cfg := R2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	values := []string{cfg.AccountID, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.BucketName, cfg.PublicBaseURL}
	set := 0
	for _, v := range values {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(values) {
		return R2Config{}, errors.New("incomplete R2 configuration: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}
	return cfg, nil
}
