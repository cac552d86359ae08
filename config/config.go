// Package config loads the connection settings of the eco-tourism store from
// YAML, with ECOSPARQL_* environment variables taking precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/model"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ECOSPARQL_"

// URI strategies accepted by uri_strategy.
const (
	URIStrategySequential = "sequential"
	URIStrategyUUID       = "uuid"
)

// Config holds the endpoint, credential and behaviour settings.
type Config struct {
	// QueryEndpoint receives SELECT requests.
	QueryEndpoint string `yaml:"query_endpoint"`
	// UpdateEndpoint receives SPARQL Update requests.
	UpdateEndpoint string `yaml:"update_endpoint"`
	// Namespace is the ontology namespace class and property IRIs are built from.
	Namespace string `yaml:"namespace"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	// Timeout bounds each request; zero leaves only the caller's context.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// WriteLocks serializes writes to the same subject; nil means enabled.
	WriteLocks *bool `yaml:"write_locks"`
	// URIStrategy selects how new instance URIs are minted.
	URIStrategy string `yaml:"uri_strategy"`
	// MetricsFile, when set, receives the driver metrics in the Prometheus
	// text format at exit, for the node exporter textfile collector.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns a Config pointing at a local Fuseki dataset.
func Default() *Config {
	return &Config{
		QueryEndpoint:  "http://localhost:3030/ecotourisme/query",
		UpdateEndpoint: "http://localhost:3030/ecotourisme/update",
		Namespace:      model.DefaultNamespace,
		Timeout:        driver.DefaultTimeout,
		LogLevel:       "info",
		URIStrategy:    URIStrategySequential,
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ECOSPARQL_* variables found by lookup,
// normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("QUERY_ENDPOINT", &c.QueryEndpoint)
	str("UPDATE_ENDPOINT", &c.UpdateEndpoint)
	str("NAMESPACE", &c.Namespace)
	str("USERNAME", &c.Username)
	str("PASSWORD", &c.Password)
	str("LOG_LEVEL", &c.LogLevel)
	str("URI_STRATEGY", &c.URIStrategy)
	str("METRICS_FILE", &c.MetricsFile)

	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(EnvPrefix + "WRITE_LOCKS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sWRITE_LOCKS: %w", EnvPrefix, err)
		}
		c.WriteLocks = &b
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := ast.ValidateIRI(c.QueryEndpoint); err != nil {
		return fmt.Errorf("query_endpoint: %w", err)
	}
	if err := ast.ValidateIRI(c.UpdateEndpoint); err != nil {
		return fmt.Errorf("update_endpoint: %w", err)
	}
	if _, err := rdfmap.NewFactory(c.Namespace); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Username == "" && c.Password != "" {
		return errors.New("password is set without a username")
	}
	switch c.URIStrategy {
	case URIStrategySequential, URIStrategyUUID:
	default:
		return fmt.Errorf("uri_strategy must be %q or %q, got %q", URIStrategySequential, URIStrategyUUID, c.URIStrategy)
	}
	return nil
}

// WriteLocksEnabled reports whether per-subject write locks are on.
func (c *Config) WriteLocksEnabled() bool {
	return c.WriteLocks == nil || *c.WriteLocks
}

// DriverOptions returns the driver options the configuration implies.
// metrics may be nil.
func (c *Config) DriverOptions(logger *zap.Logger, metrics *driver.Metrics) []driver.Option {
	opts := []driver.Option{
		driver.WithTimeout(c.Timeout),
		driver.WithLogger(logger),
	}
	if c.Username != "" {
		opts = append(opts, driver.WithBasicAuth(c.Username, c.Password))
	}
	if metrics != nil {
		opts = append(opts, driver.WithMetrics(metrics))
	}
	return opts
}

// MetricsRegistry returns a registry holding the driver metrics when
// metrics_file is set, or nil values otherwise.
func (c *Config) MetricsRegistry() (*prometheus.Registry, *driver.Metrics, error) {
	if c.MetricsFile == "" {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	m, err := driver.NewMetrics(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	return reg, m, nil
}

// WriteMetrics writes the gathered metrics to metrics_file. It does nothing
// when either is unset.
func (c *Config) WriteMetrics(g prometheus.Gatherer) error {
	if c.MetricsFile == "" || g == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.MetricsFile, g); err != nil {
		return fmt.Errorf("metrics_file: %w", err)
	}
	return nil
}

// Factory returns an entity factory over the configured namespace.
func (c *Config) Factory(logger *zap.Logger) (*rdfmap.Factory, error) {
	var opts []rdfmap.FactoryOption
	if logger != nil {
		opts = append(opts, rdfmap.WithLogger(logger))
	}
	if c.URIStrategy == URIStrategyUUID {
		opts = append(opts, rdfmap.WithURIMinter(rdfmap.UUIDMinter{}))
	}
	return rdfmap.NewFactory(c.Namespace, opts...)
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
