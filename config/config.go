package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  string   `yaml:"readTimeout"`  // 15s
	WriteTimeout string   `yaml:"writeTimeout"` // 0 — без ограничения (ws)
	IdleTimeout  string   `yaml:"idleTimeout"`  // 60s
	CORSOrigins  []string `yaml:"corsOrigins"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod, пусто: CODEROOM_ENV/APP_ENV
	Service   string `yaml:"service"`   // roomd|coderoom
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap, пусто: по env
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Storage struct {
	Driver string `yaml:"driver"` // memory|postgres|redis
}

type Postgres struct {
	DSN      string `yaml:"dsn"`
	Migrate  bool   `yaml:"migrate"`
	MaxConns int32  `yaml:"maxConns"` // 0: дефолт pgxpool
}

type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

type Sandbox struct {
	PythonWasm string `yaml:"pythonWasm"`
	PythonHome string `yaml:"pythonHome"`
	Timeout    string `yaml:"timeout"` // "" или "0" — без ограничения
	Warmup     bool   `yaml:"warmup"`
}

type Client struct {
	ServerURL        string `yaml:"serverURL"`
	GRPCTarget       string `yaml:"grpcTarget"`
	Name             string `yaml:"name"`
	IdentityFile     string `yaml:"identityFile"`
	RequestTimeout   string `yaml:"requestTimeout"`
	ParticipantsPoll string `yaml:"participantsPoll"` // "" — без опроса
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Sandbox  Sandbox  `yaml:"sandbox"`
	Client   Client   `yaml:"client"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Load читает CONFIG_PATH (по умолчанию ./config/config.yaml).
// Если путь не задан и файла по умолчанию нет, остаются значения по умолчанию.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			cfg.setDefaults()
			return cfg, nil
		}
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

// установка дефолтов, если значения не указаны
func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "coderoom:"
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = "http://localhost:8080"
	}
	if c.Client.GRPCTarget == "" {
		c.Client.GRPCTarget = "localhost:9090"
	}
}

func (c *Config) ValidateServer() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for storage.driver=postgres")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for storage.driver=redis")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	for _, d := range []string{c.HTTP.ReadTimeout, c.HTTP.WriteTimeout, c.HTTP.IdleTimeout, c.Sandbox.Timeout} {
		if err := checkDuration(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) ValidateClient() error {
	if c.Client.ServerURL == "" {
		return errors.New("client.serverURL is required")
	}
	for _, d := range []string{c.Client.RequestTimeout, c.Client.ParticipantsPoll, c.Sandbox.Timeout} {
		if err := checkDuration(d); err != nil {
			return err
		}
	}
	return nil
}

func checkDuration(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return nil
}

// ParseDurationOr — helper для парсинга timeout-ов
func ParseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return def
}
