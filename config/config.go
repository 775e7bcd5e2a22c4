package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	postgres_wrapper "github.com/PvPrs/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/PvPrs/matching-engine/pkg/infra/redis"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type EngineConfig struct {
	Instrument string `yaml:"instrument"`
	QueueSize  int    `yaml:"queue_size"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	DevMode     bool                             `yaml:"dev_mode"`
	Server      *ServerConfig                    `yaml:"server"`
	Engine      *EngineConfig                    `yaml:"engine"`
	EventsDB    *postgres_wrapper.PostgresConfig `yaml:"events_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("failed to parse config file")
		return nil, err
	}
	cfg.applyDefaults()

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Engine == nil {
		c.Engine = &EngineConfig{}
	}
	if c.Engine.Instrument == "" {
		c.Engine.Instrument = "BTC-USD"
	}
	if c.Engine.QueueSize <= 0 {
		c.Engine.QueueSize = 1024
	}
}
