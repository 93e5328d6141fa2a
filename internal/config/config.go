// Package config loads graphview settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLStore   = "sqlstore"
	BackendSPARQLHTTP = "sparqlhttp"
)

// Config is the top-level configuration of the graphview binary.
type Config struct {
	Listen      string        `yaml:"listen" validate:"required"`
	Views       string        `yaml:"views" validate:"required"`
	DefaultView string        `yaml:"default_view" validate:"required"`
	Fallback    string        `yaml:"fallback" validate:"required,contains=/"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	Debug       bool          `yaml:"debug"`
	Reasoning   bool          `yaml:"reasoning"`
	Watch       bool          `yaml:"watch"`
	CacheSize   int           `yaml:"cache_size" validate:"gte=1"`

	// MaxExecutions caps backend queries per request; 0 disables the cap.
	MaxExecutions  int      `yaml:"max_executions" validate:"gte=0"`
	DefaultLimit   int      `yaml:"default_limit" validate:"gte=0"`
	MaxLimit       int      `yaml:"max_limit" validate:"gte=0"`
	ForwardHeaders []string `yaml:"forward_headers"`
	CORSOrigins    []string `yaml:"cors_origins"`
	TrustForwarded bool     `yaml:"trust_forwarded"`

	Backend   Backend   `yaml:"backend"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Backend selects and configures the query backend.
type Backend struct {
	Kind string `yaml:"kind" validate:"oneof=sqlstore sparqlhttp"`

	// sqlstore: empty Database means in-memory.
	Database string   `yaml:"database"`
	Load     []string `yaml:"load"`

	// sparqlhttp
	QueryEndpoints     []string      `yaml:"query_endpoints" validate:"required_if=Kind sparqlhttp,dive,url"`
	ReasoningEndpoints []string      `yaml:"reasoning_endpoints" validate:"dive,url"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password" validate:"required_with=Username"`
	RequestTimeout     time.Duration `yaml:"request_timeout" validate:"gte=0"`
	MaxConns           int           `yaml:"max_conns" validate:"gte=1"`
	RateLimit          float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst              int           `yaml:"burst" validate:"gte=0"`
}

// Telemetry configures tracing and the metrics endpoint.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name" validate:"required"`
	// MetricsPath is served next to views; empty disables it.
	MetricsPath string `yaml:"metrics_path" validate:"omitempty,startswith=/,ne=/"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:       ":8080",
		Views:        "views",
		DefaultView:  "index",
		Fallback:     "text/html",
		Timeout:      30 * time.Second,
		Watch:        true,
		CacheSize:    128,
		DefaultLimit: 50,
		MaxLimit:     1000,
		ForwardHeaders: []string{
			"Accept-Language", "User-Agent", "Referer",
		},
		Backend: Backend{
			Kind:           BackendSQLStore,
			RequestTimeout: 10 * time.Second,
			MaxConns:       4,
			Burst:          1,
		},
		Telemetry: Telemetry{
			ServiceName: "graphview",
			MetricsPath: "/metrics",
		},
	}
}

var validate = validator.New()

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	if err := Decode(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg and validates the result. Keys absent
// from the document keep the values already in cfg; unknown keys are errors.
func Decode(r io.Reader, cfg *Config) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	return cfg.Validate()
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return err
	}
	if c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("invalid Config.DefaultLimit: exceeds max_limit %d", c.MaxLimit)
	}
	return nil
}
