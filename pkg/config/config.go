package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	API         struct {
		BaseURL string        `yaml:"base_url" default:"http://localhost:8080" validate:"omitempty,url"`
		Timeout time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
	} `yaml:"api"`
	Analysis struct {
		FallbackEnabled bool          `yaml:"fallback_enabled" default:"true"`
		LoadingDuration time.Duration `yaml:"loading_duration" default:"4500ms"`
		Seed            int64         `yaml:"seed"`
	} `yaml:"analysis"`
	UI struct {
		Theme       string `yaml:"theme" default:"dark" validate:"oneof=dark light"`
		ShakeFrames int    `yaml:"shake_frames" default:"6" validate:"gte=1,lte=20"`
	} `yaml:"ui"`
	Storage struct {
		Backend string `yaml:"backend" default:"file" validate:"oneof=file redis memory"`
		Path    string `yaml:"path" default:".trackbets/storage.json"`
	} `yaml:"storage"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"trackbets"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	Events struct {
		Backend      string        `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
		BufferSize   int           `yaml:"buffer_size" default:"256" validate:"gte=1"`
		MaxRPS       int           `yaml:"max_rps" default:"20"`
		DrainTimeout time.Duration `yaml:"drain_timeout" default:"2s"`
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		Topic        string   `yaml:"topic" default:"trackbets.funnel"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"50"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"5s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"trackbets-funnel-ingest"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"trackbets"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SearchCacheTTL  time.Duration `yaml:"search_cache_ttl" default:"10m"`
		CacheBackend    string        `yaml:"cache_backend" default:"memory" validate:"oneof=memory redis layered"`
		FunnelIngest    bool          `yaml:"funnel_ingest"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps" default:"10"`
			Burst int     `yaml:"burst" default:"20"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Stream struct {
		Enabled      bool          `yaml:"enabled"`
		Interval     time.Duration `yaml:"interval" default:"1s"`
		PingInterval time.Duration `yaml:"ping_interval" default:"20s"`
		History      int           `yaml:"history" default:"60" validate:"gte=2"`
	} `yaml:"stream"`
}

// Default returns a configuration populated only with struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, and then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRACKBETS_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("TRACKBETS_API_BASE"); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("TRACKBETS_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TRACKBETS_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Analysis.FallbackEnabled = b
		}
	}
	if v := os.Getenv("EVENTS_BACKEND"); v != "" {
		c.Events.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		if host, port, err := net.SplitHostPort(v); err == nil {
			c.Redis.Host = host
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when events.backend is kafka")
	}
	if c.Server.FunnelIngest && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when server.funnel_ingest is set")
	}
	return nil
}

// LoadingDuration clamps the cosmetic loading delay to the 3-5s window.
func (c *Config) LoadingDuration() time.Duration {
	d := c.Analysis.LoadingDuration
	switch {
	case d < 3*time.Second:
		return 3 * time.Second
	case d > 5*time.Second:
		return 5 * time.Second
	}
	return d
}
