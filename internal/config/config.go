package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RankingSource selects where global records are reported.
type RankingSource string

const (
	// RankingSourceRemote uses the shared rankings document.
	RankingSourceRemote RankingSource = "remote"
	// RankingSourceNative delegates to the platform leaderboard service.
	RankingSourceNative RankingSource = "native"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Local    LocalConfig    `yaml:"local"`
	Session  SessionConfig  `yaml:"session"`
	Flush    FlushConfig    `yaml:"flush"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds telemetry producer configuration
type KafkaConfig struct {
	Brokers     []string      `yaml:"brokers"`
	Topic       string        `yaml:"topic"`
	Enabled     bool          `yaml:"enabled"`
	FlushFreq   time.Duration `yaml:"flush_frequency"`
	FlushMsgs   int           `yaml:"flush_messages"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LocalConfig holds local save file configuration
type LocalConfig struct {
	SavePath     string `yaml:"save_path"`
	IdentityPath string `yaml:"identity_path"`
}

// SessionConfig holds session cache configuration
type SessionConfig struct {
	LevelCount    int           `yaml:"level_count"`
	SkinCount     int           `yaml:"skin_count"`
	ProbeAddr     string        `yaml:"probe_addr"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	RankingSource RankingSource `yaml:"rankings_source"`
}

// FlushConfig holds write-behind flusher configuration
type FlushConfig struct {
	QueueSize        int           `yaml:"queue_size"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "progress-events"
	}
	if c.Kafka.FlushFreq == 0 {
		c.Kafka.FlushFreq = 100 * time.Millisecond
	}
	if c.Kafka.FlushMsgs == 0 {
		c.Kafka.FlushMsgs = 100
	}
	if c.Kafka.DialTimeout == 0 {
		c.Kafka.DialTimeout = 5 * time.Second
	}

	// Local save defaults
	if c.Local.SavePath == "" {
		c.Local.SavePath = "data/profile.json"
	}
	if c.Local.IdentityPath == "" {
		c.Local.IdentityPath = "data/identity"
	}

	// Session defaults
	if c.Session.LevelCount == 0 {
		c.Session.LevelCount = 45
	}
	if c.Session.SkinCount == 0 {
		c.Session.SkinCount = 12
	}
	if c.Session.ProbeAddr == "" {
		c.Session.ProbeAddr = c.Redis.Addr
	}
	if c.Session.ProbeTimeout == 0 {
		c.Session.ProbeTimeout = 2 * time.Second
	}
	if c.Session.RankingSource == "" {
		c.Session.RankingSource = RankingSourceRemote
	}

	// Flush defaults
	if c.Flush.QueueSize == 0 {
		c.Flush.QueueSize = 256
	}
	if c.Flush.SnapshotInterval == 0 {
		c.Flush.SnapshotInterval = 5 * time.Minute
	}
	if c.Flush.WriteTimeout == 0 {
		c.Flush.WriteTimeout = 10 * time.Second
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
