package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/andreluiz1987/product-store-search/pkg/config"
)

// Search engines selectable with SEARCH_ENGINE.
const (
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

// Config holds all configuration for the search service and catalogctl.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Elasticsearch
	ElasticsearchURLs    []string      `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200" envSeparator:","`
	ElasticsearchIndex   string        `env:"ELASTICSEARCH_INDEX" envDefault:"products-catalog"`
	ElasticsearchRetries int           `env:"ES_MAX_RETRIES" envDefault:"0"`
	GatewayTimeout       time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"5s"`
	SlowQueryThreshold   time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"500ms"`
	BreakerFailureRatio  float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerOpenTimeout   time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	EnsureIndexOnStartup bool          `env:"ENSURE_INDEX_ON_STARTUP" envDefault:"true"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`
	PageSize     int    `env:"SEARCH_PAGE_SIZE" envDefault:"20"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"product-store-search"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return load(nil)
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(vars)
}

func load(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	var err error
	if vars == nil {
		err = pkgconfig.Load(cfg)
	} else {
		err = pkgconfig.LoadFrom(cfg, vars)
	}
	if err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	switch c.SearchEngine {
	case EngineElasticsearch:
		if len(c.ElasticsearchURLs) == 0 {
			errs = append(errs, errors.New("ELASTICSEARCH_URL is required for the elasticsearch engine"))
		}
	case EngineMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid search engine %q: want %s or %s", c.SearchEngine, EngineElasticsearch, EngineMemory))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}
	if c.ElasticsearchRetries < 0 {
		errs = append(errs, fmt.Errorf("invalid ES_MAX_RETRIES: %d", c.ElasticsearchRetries))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid gateway timeout: %s", c.GatewayTimeout))
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		errs = append(errs, fmt.Errorf("invalid breaker failure ratio %v: must be in (0, 1]", c.BreakerFailureRatio))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true"))
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		errs = append(errs, fmt.Errorf("invalid OTEL_SAMPLE_RATE %v: must be in [0, 1]", c.OTelSampleRate))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
