package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"redis-queue/pkg/logger"
	"redis-queue/pkg/store"

	"gopkg.in/yaml.v2"
)

//go:embed config.default.yaml
var embeddedConfig []byte

var config *Config

type ServerConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
	MaxRetries   int    `yaml:"max_retries"`
}

type QueueConfig struct {
	Name         string `yaml:"name"`
	Namespace    string `yaml:"namespace"`
	ResultTTL    int    `yaml:"result_ttl"`    // 结果通道过期时间（秒）
	BlockTimeout int    `yaml:"block_timeout"` // 阻塞出队等待时间（秒）
}

type WorkerConfig struct {
	Count int `yaml:"count"`
}

// ArchiveConfig 处理结果归档（MongoDB）
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	DB         string `yaml:"db"`
	Collection string `yaml:"collection"`
	Retention  int    `yaml:"retention"` // 保留时间（小时）
	Sweep      int    `yaml:"sweep"`     // 过期记录清理间隔（分钟），0 表示只依赖 TTL 索引
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Queue   QueueConfig   `yaml:"queue"`
	Worker  WorkerConfig  `yaml:"worker"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     logger.Config `yaml:"log"`
}

// NewConfig loads CONFIG_PATH, or the embedded defaults when it is unset.
func NewConfig() (*Config, error) {
	var configData []byte
	var err error

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		configData, err = os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		configData = embeddedConfig
	}

	c, err := Parse(configData)
	if err != nil {
		return nil, err
	}

	config = c
	return c, nil
}

// Parse decodes YAML over the embedded defaults, so a partial file only
// overrides the keys it sets.
func Parse(data []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.Unmarshal(embeddedConfig, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Queue.Name == "" {
		return fmt.Errorf("queue.name is required")
	}
	if c.Queue.ResultTTL < 0 || c.Queue.BlockTimeout < 0 {
		return fmt.Errorf("queue.result_ttl and queue.block_timeout must not be negative")
	}
	if c.Archive.Sweep < 0 {
		return fmt.Errorf("archive.sweep must not be negative")
	}
	if c.Worker.Count < 0 {
		return fmt.Errorf("worker.count must not be negative")
	}
	return nil
}

func GetConfig() *Config {
	return config
}

// RedisOptions 转换为存储连接参数
func (c *Config) RedisOptions() store.Options {
	return store.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
		MaxRetries:   c.Redis.MaxRetries,
	}
}

func (q QueueConfig) ResultTTLDuration() time.Duration {
	return time.Duration(q.ResultTTL) * time.Second
}

func (q QueueConfig) BlockTimeoutDuration() time.Duration {
	return time.Duration(q.BlockTimeout) * time.Second
}

func (a ArchiveConfig) RetentionDuration() time.Duration {
	return time.Duration(a.Retention) * time.Hour
}

func (a ArchiveConfig) SweepInterval() time.Duration {
	return time.Duration(a.Sweep) * time.Minute
}
