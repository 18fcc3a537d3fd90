// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "configs/config.yaml"

// Config 是所有进程共享的配置结构。加载顺序：默认值 -> YAML 文件 -> 环境变量。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	Name     string        `yaml:"name"`
	Env      string        `yaml:"env"`
	Port     int           `yaml:"port"`
	LogLevel string        `yaml:"logLevel"`
	CartTTL  time.Duration `yaml:"cartTTL"`
	// RequestTimeout 是单个 HTTP 请求处理的超时上限
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type InfraConfig struct {
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type DatabaseConfig struct {
	// Driver 取值 mysql 或 postgres
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// DSN 非空时直接使用，忽略上面的字段
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Brokers            []string `yaml:"brokers"`
	ConfigurationTopic string   `yaml:"configurationTopic"`
}

type ZookeeperConfig struct {
	Servers        string        `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

// DefaultConfig 返回本地开发可直接使用的默认配置。
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:           "configurator-service",
			Env:            "dev",
			Port:           8090,
			LogLevel:       "info",
			CartTTL:        7 * 24 * time.Hour,
			RequestTimeout: 10 * time.Second,
		},
		Infra: InfraConfig{
			Database: DatabaseConfig{
				Driver: "mysql", Host: "localhost", Port: 3306,
				User: "root", Name: "velocraft",
				MaxOpenConns: 20, MaxIdleConns: 5,
			},
			Redis:     RedisConfig{Addr: "localhost:6379"},
			Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, ConfigurationTopic: "configurations.created"},
			Zookeeper: ZookeeperConfig{Servers: "localhost:2181", SessionTimeout: 10 * time.Second},
			Nacos:     NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
	}
}

var (
	currentMu     sync.RWMutex
	currentConfig = DefaultConfig()
)

// Init 加载 .env、配置文件和环境变量，失败时直接退出进程。
func Init() {
	// .env 是可选的
	_ = godotenv.Load()

	cfg, err := Load(getEnv("CONFIG_FILE", defaultConfigFile))
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}
	SetCurrentConfig(cfg)
}

// GetCurrentConfig 返回当前配置的副本。
func GetCurrentConfig() Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return currentConfig
}

func SetCurrentConfig(cfg Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	currentConfig = cfg
}

// Load 读取 YAML 文件（不存在时只用默认值），再应用环境变量覆盖。
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		zlog.Warn().Str("path", path).Msg("config file not found, using defaults")
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)

	cfg.Infra.Database.Driver = getEnv("DB_DRIVER", cfg.Infra.Database.Driver)
	cfg.Infra.Database.Host = getEnv("DB_HOST", cfg.Infra.Database.Host)
	cfg.Infra.Database.User = getEnv("DB_USER", cfg.Infra.Database.User)
	cfg.Infra.Database.Password = getEnv("DB_PASSWORD", cfg.Infra.Database.Password)
	cfg.Infra.Database.Name = getEnv("DB_NAME", cfg.Infra.Database.Name)
	cfg.Infra.Database.DSN = getEnv("DATABASE_URL", cfg.Infra.Database.DSN)

	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Infra.Redis.Password)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Infra.Kafka.ConfigurationTopic = getEnv("KAFKA_CONFIGURATION_TOPIC", cfg.Infra.Kafka.ConfigurationTopic)

	cfg.Infra.Zookeeper.Servers = getEnv("ZOOKEEPER_SERVERS", cfg.Infra.Zookeeper.Servers)

	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)

	ints := []struct {
		key string
		dst *int
	}{
		{"APP_PORT", &cfg.App.Port},
		{"DB_PORT", &cfg.Infra.Database.Port},
		{"REDIS_DB", &cfg.Infra.Redis.DB},
	}
	for _, it := range ints {
		if v, ok := os.LookupEnv(it.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", it.key, err)
			}
			*it.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"KAFKA_ENABLED", &cfg.Infra.Kafka.Enabled},
		{"NACOS_ENABLED", &cfg.Infra.Nacos.Enabled},
	}
	for _, it := range bools {
		if v, ok := os.LookupEnv(it.key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", it.key, err)
			}
			*it.dst = b
		}
	}
	return nil
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
