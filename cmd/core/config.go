package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-mem-transfer/pkg/logger"
	"github.com/JoeShih716/go-mem-transfer/pkg/mysql"
	"github.com/JoeShih716/go-mem-transfer/pkg/workerpool"
)

const defaultConfigPath = "config/config.yaml"

// 通知出口類型
const (
	NotifierLog     = "log"
	NotifierJournal = "journal"
	NotifierNATS    = "nats"
	NotifierMySQL   = "mysql"
)

type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Scheduler workerpool.Config `yaml:"scheduler"`
	Log       logger.Config     `yaml:"log"`
	Notifier  NotifierConfig    `yaml:"notifier"`
	MySQL     mysql.Config      `yaml:"mysql"`
}

type ServerConfig struct {
	GrpcAddr    string `yaml:"grpc_addr"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	GinMode     string `yaml:"gin_mode"`
}

type NotifierConfig struct {
	Type string `yaml:"type"` // log, journal, nats, mysql

	JournalPath string `yaml:"journal_path"`
	JournalSync bool   `yaml:"journal_sync"`

	NATSUrl     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// loadConfig 讀取設定檔，CONFIG_PATH 可覆寫路徑
func loadConfig() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyDefaults 補全 yaml 沒寫的欄位
func (c *Config) applyDefaults() {
	if c.Server.GrpcAddr == "" {
		c.Server.GrpcAddr = ":50051"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	c.Scheduler = c.Scheduler.WithDefaults()
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Notifier.Type == "" {
		c.Notifier.Type = NotifierLog
	}
	if c.Notifier.JournalPath == "" {
		c.Notifier.JournalPath = "notifications.log"
	}
	if c.Notifier.NATSUrl == "" {
		c.Notifier.NATSUrl = "nats://localhost:4222"
	}
	c.MySQL = c.MySQL.WithDefaults()
}

func (c *Config) validate() error {
	switch c.Notifier.Type {
	case NotifierLog, NotifierJournal, NotifierNATS, NotifierMySQL:
		return nil
	default:
		return fmt.Errorf("unknown notifier type %q", c.Notifier.Type)
	}
}
