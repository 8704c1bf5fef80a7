// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构，对应 configs/config.yaml
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	ServiceName       string        `yaml:"service_name"`
	Env               string        `yaml:"env"`
	Port              int           `yaml:"port"`
	LogLevel          string        `yaml:"log_level"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	TraceSampleRatio  float64       `yaml:"trace_sample_ratio"`
	IdempotencyTTL    time.Duration `yaml:"idempotency_ttl"`
	Outbox            OutboxConfig  `yaml:"outbox"`
	Push              PushConfig    `yaml:"push"`
}

type OutboxConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

type PushConfig struct {
	Port       int           `yaml:"port"`
	GroupID    string        `yaml:"group_id"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type InfraConfig struct {
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type MySQLConfig struct {
	// DSN 不为空时直接使用，否则由下面的字段拼装
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addrs    string `yaml:"addrs"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type ZookeeperConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回最近一次加载的配置，未加载时返回默认值
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	return Default()
}

// Default 返回本地开发用的默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			ServiceName:       "order-service",
			Env:               "dev",
			Port:              8080,
			LogLevel:          "info",
			ProcessingTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			TraceSampleRatio:  1.0,
			IdempotencyTTL:    24 * time.Hour,
			Outbox: OutboxConfig{
				Enabled:      true,
				PollInterval: time.Second,
				BatchSize:    100,
			},
			Push: PushConfig{
				Port:       8090,
				GroupID:    "push-gateway",
				SessionTTL: 2 * time.Minute,
			},
		},
		Infra: InfraConfig{
			MySQL: MySQLConfig{
				Host:            "localhost",
				Port:            3306,
				User:            "root",
				Database:        "gamestore",
				MaxOpenConns:    20,
				MaxIdleConns:    10,
				ConnMaxLifetime: 30 * time.Minute,
				AutoMigrate:     true,
			},
			Redis: RedisConfig{Addrs: "localhost:6379"},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "order-events",
			},
			Zookeeper: ZookeeperConfig{
				Servers:        []string{"localhost:2181"},
				SessionTimeout: 5 * time.Second,
			},
			Nacos: NacosConfig{
				ServerAddrs: "localhost:8848",
				Group:       "DEFAULT_GROUP",
			},
		},
	}
}

// LoadConfig 读取 YAML 配置文件 (CONFIG_PATH，默认 configs/config.yaml)，再用环境变量覆盖。
// 文件不存在时只使用默认值和环境变量。
func LoadConfig() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_PATH", "configs/config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	currentConfig.Store(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	if v, ok := os.LookupEnv("APP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		cfg.App.Port = port
	}

	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addrs)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		cfg.Infra.Kafka.Brokers = splitList(v)
	}
	if v := getEnv("ZOOKEEPER_SERVERS", ""); v != "" {
		cfg.Infra.Zookeeper.Servers = splitList(v)
		cfg.Infra.Zookeeper.Enabled = true
	}
	if v := getEnv("NACOS_SERVER_ADDRS", ""); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
		cfg.Infra.Nacos.Enabled = true
	}
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	return nil
}

func (c *Config) validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port out of range: %d", c.App.Port)
	}
	if c.App.ProcessingTimeout <= 0 {
		return fmt.Errorf("app.processing_timeout must be positive")
	}
	if c.App.TraceSampleRatio < 0 || c.App.TraceSampleRatio > 1 {
		return fmt.Errorf("app.trace_sample_ratio must be within [0,1]")
	}
	if c.Infra.Zookeeper.Enabled && len(c.Infra.Zookeeper.Servers) == 0 {
		return fmt.Errorf("infra.zookeeper.servers is required when zookeeper is enabled")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
