package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the grading API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	RunnerURL        string
	RequestTimeout   time.Duration
	MaxCodeChars     int
	MaxStreamBytes   int
	RateLimitWindow  time.Duration
	RateLimitMax     int
	ExerciseCacheTTL time.Duration
}

// RunnerConfig holds runtime configuration for the sandbox runner service.
type RunnerConfig struct {
	AppPort          string
	Backend          string
	DockerHost       string
	Image            string
	ExecutionTimeout time.Duration
	MaxCodeBytes     int
	MaxOutputBytes   int
	MemoryLimitMB    int64
	CPUShares        int64
	WorkspaceRoot    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	return httpAddress(c.AppPort)
}

// HTTPAddress returns the address the runner should listen on.
func (c RunnerConfig) HTTPAddress() string {
	return httpAddress(c.AppPort)
}

func httpAddress(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PYQUEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the grading API configuration from environment variables and an
// optional .env file.
func Load() (Config, error) {
	v := newViper()

	v.SetDefault("app.name", "PyQuest API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("runner.url", "http://localhost:8081")
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("max_code_chars", 30000)
	v.SetDefault("max_stream_bytes", 65536)
	v.SetDefault("rate_limit_window_ms", 60000)
	v.SetDefault("rate_limit_max", 20)
	v.SetDefault("exercise_cache_ttl", "5m")

	cacheTTL, err := time.ParseDuration(v.GetString("exercise_cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid exercise cache ttl: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		RunnerURL:        strings.TrimRight(v.GetString("runner.url"), "/"),
		RequestTimeout:   time.Duration(v.GetInt("request_timeout_ms")) * time.Millisecond,
		MaxCodeChars:     v.GetInt("max_code_chars"),
		MaxStreamBytes:   v.GetInt("max_stream_bytes"),
		RateLimitWindow:  time.Duration(v.GetInt("rate_limit_window_ms")) * time.Millisecond,
		RateLimitMax:     v.GetInt("rate_limit_max"),
		ExerciseCacheTTL: cacheTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxCodeChars <= 0 {
		cfg.MaxCodeChars = 30000
	}
	if cfg.MaxStreamBytes <= 0 {
		cfg.MaxStreamBytes = 65536
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 20
	}

	return cfg, nil
}

// LoadRunner reads the runner configuration from environment variables and an
// optional .env file.
func LoadRunner() (RunnerConfig, error) {
	v := newViper()

	v.SetDefault("runner.port", "8081")
	v.SetDefault("runner.backend", "docker")
	v.SetDefault("runner.image", "python:3.11-alpine")
	v.SetDefault("execution_timeout_ms", 2000)
	v.SetDefault("max_code_bytes", 100*1024)
	v.SetDefault("max_output_bytes", 1024*1024)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)

	cfg := RunnerConfig{
		AppPort:          v.GetString("runner.port"),
		Backend:          strings.ToLower(v.GetString("runner.backend")),
		DockerHost:       v.GetString("docker_host"),
		Image:            v.GetString("runner.image"),
		ExecutionTimeout: time.Duration(v.GetInt("execution_timeout_ms")) * time.Millisecond,
		MaxCodeBytes:     v.GetInt("max_code_bytes"),
		MaxOutputBytes:   v.GetInt("max_output_bytes"),
		MemoryLimitMB:    v.GetInt64("code_run_memory_mb"),
		CPUShares:        v.GetInt64("code_run_cpu_shares"),
		WorkspaceRoot:    v.GetString("runner.workspace_root"),
	}

	if cfg.Backend != "docker" && cfg.Backend != "local" {
		return RunnerConfig{}, fmt.Errorf("unknown runner backend %q", cfg.Backend)
	}

	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 2 * time.Second
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = 256
	}
	if cfg.CPUShares <= 0 {
		cfg.CPUShares = 512
	}

	return cfg, nil
}
