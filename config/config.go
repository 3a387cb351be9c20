package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/cache"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/database"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/messaging"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/logging"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/metrics"
)

// Config holds all configuration for the risk assessment service.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  database.Config `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Logging   logging.Config  `mapstructure:"logging"`
	Metrics   metrics.Config  `mapstructure:"metrics"`
	Reporting ReportingConfig `mapstructure:"reporting"`
}

// ServiceConfig contains general service configuration.
type ServiceConfig struct {
	Name            string        `mapstructure:"name"`
	Environment     string        `mapstructure:"environment"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// CacheConfig wraps the statistics cache settings with an enable switch.
type CacheConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	cache.Config `mapstructure:",squash"`
}

// KafkaConfig wraps the event publisher settings with an enable switch.
type KafkaConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	messaging.Config `mapstructure:",squash"`
}

// ReportingConfig contains report generation settings.
type ReportingConfig struct {
	PageHeight int `mapstructure:"page_height"`

	// Seed ratings for auto-created register entries. The conservative 4/4
	// default is pending product clarification, hence configurable.
	RegisterDefaultLikelihood string `mapstructure:"register_default_likelihood"`
	RegisterDefaultImpact     string `mapstructure:"register_default_impact"`

	DueSoonWindow time.Duration `mapstructure:"due_soon_window"`
}

// Load reads configuration from the given file (optional), environment
// variables, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix("POSTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka enabled but no brokers configured")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "risk-assessment")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.shutdown_timeout", 15*time.Second)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "posture")
	v.SetDefault("database.database", "posture")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "posture.events")
	v.SetDefault("kafka.timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "posture")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("reporting.page_height", 60)
	v.SetDefault("reporting.register_default_likelihood", "high")
	v.SetDefault("reporting.register_default_impact", "high")
	v.SetDefault("reporting.due_soon_window", 30*24*time.Hour)
}
