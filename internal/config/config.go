package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"smarttaskflow/pkg/config"
)

var (
	ErrMissingGeminiKey = errors.New("GEMINI_API_KEY is not set")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
)

type LogConfig struct {
	Level string `yaml:"level"`
}

// WorkerConfig 活动日志 worker
type WorkerConfig struct {
	Queue     string        `yaml:"queue"`
	DedupeTTL time.Duration `yaml:"dedupe_ttl"`
}

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Gemini config.GeminiConfig `yaml:"gemini"`
	Log    LogConfig           `yaml:"log"`
	Worker WorkerConfig        `yaml:"worker"`
}

// Load 读取 CONFIG_DIR 下的 base.yaml + <CONFIG_ENV>.yaml + secrets.env，再用环境变量覆盖
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	raw, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(raw, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideGeminiFromEnv(&cfg.Gemini)
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if q := os.Getenv("WORKER_QUEUE"); q != "" {
		cfg.Worker.Queue = q
	}

	if cfg.Worker.Queue == "" {
		cfg.Worker.Queue = "task.activity.q"
	}
	if cfg.Worker.DedupeTTL <= 0 {
		cfg.Worker.DedupeTTL = 24 * time.Hour
	}
	return &cfg, nil
}

// ValidateServer API 服务启动前必须具备的配置
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Gemini.APIKey == "" {
		errs = append(errs, ErrMissingGeminiKey)
	}
	if c.JWT.Secret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
