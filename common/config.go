package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the application.
type Config struct {
	LogLevel  string           `yaml:"logLevel"`
	Server    *ServerConfig    `yaml:"server"`
	Metrics   *MetricsConfig   `yaml:"metrics"`
	Tracing   *TracingConfig   `yaml:"tracing"`
	Providers *ProvidersConfig `yaml:"providers"`
	Custom    *CustomConfig    `yaml:"custom"`
	Extend    *ExtendConfig    `yaml:"extend"`
}

type ServerConfig struct {
	HttpHost   string      `yaml:"httpHost"`
	HttpPort   int         `yaml:"httpPort"`
	MaxTimeout *Duration   `yaml:"maxTimeout"`
	CORS       *CORSConfig `yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	AllowedMethods []string `yaml:"allowedMethods"`
	AllowedHeaders []string `yaml:"allowedHeaders"`
	MaxAge         int      `yaml:"maxAge"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type TracingProtocol string

const (
	TracingProtocolHttp TracingProtocol = "http"
	TracingProtocolGrpc TracingProtocol = "grpc"
)

type TracingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Endpoint   string          `yaml:"endpoint"`
	Protocol   TracingProtocol `yaml:"protocol"`
	SampleRate float64         `yaml:"sampleRate"`
	Insecure   bool            `yaml:"insecure"`
}

// ProvidersConfig carries the credentials of every indexing provider. Keys are
// handed to each adapter at construction time.
type ProvidersConfig struct {
	Opensea    *ProviderConfig `yaml:"opensea"`
	Rarible    *ProviderConfig `yaml:"rarible"`
	Simplehash *ProviderConfig `yaml:"simplehash"`
	Centerdev  *ProviderConfig `yaml:"centerdev"`
	Soundxyz   *ProviderConfig `yaml:"soundxyz"`
	Modulenft  *ProviderConfig `yaml:"modulenft"`
}

type ProviderConfig struct {
	ApiKey       string    `yaml:"apiKey"`
	BaseUrl      string    `yaml:"baseUrl"`
	MaxBatchSize *int      `yaml:"maxBatchSize"`
	Timeout      *Duration `yaml:"timeout"`
}

type CustomConfig struct {
	Ens  *EnsHandlerConfig  `yaml:"ens"`
	Loot *LootHandlerConfig `yaml:"loot"`
}

type EnsHandlerConfig struct {
	Enabled *bool  `yaml:"enabled"`
	BaseUrl string `yaml:"baseUrl"`
}

type LootHandlerConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	RpcUrl   string `yaml:"rpcUrl"`
	PageSize int    `yaml:"pageSize"`
}

type ExtendConfig struct {
	IpfsGateway string `yaml:"ipfsGateway"`
}

// Duration accepts "500ms"/"2s" strings or plain integers as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var stringValue string
	if err := unmarshal(&stringValue); err == nil {
		stringValue = strings.TrimSpace(stringValue)
		if ms, err := strconv.ParseInt(stringValue, 10, 64); err == nil {
			*d = Duration(time.Duration(ms) * time.Millisecond)
			return nil
		}
		duration, err := time.ParseDuration(stringValue)
		if err != nil {
			return fmt.Errorf("invalid duration format: %v", err)
		}
		*d = Duration(duration)
		return nil
	}
	var intValue int64
	if err := unmarshal(&intValue); err == nil {
		*d = Duration(time.Duration(intValue) * time.Millisecond)
		return nil
	}
	return fmt.Errorf("cannot unmarshal duration value")
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func DurationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// LoadConfig loads the configuration from the specified file, expanding ${ENV}
// references before parsing, then applies defaults and validates the result.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ProvidersConfig) MarshalZerologObject(e *zerolog.Event) {
	for name, pc := range map[string]*ProviderConfig{
		"opensea":    c.Opensea,
		"rarible":    c.Rarible,
		"simplehash": c.Simplehash,
		"centerdev":  c.Centerdev,
		"soundxyz":   c.Soundxyz,
		"modulenft":  c.Modulenft,
	} {
		if pc != nil {
			e.Object(name, pc)
		}
	}
}

func (c *ProviderConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Str("baseUrl", c.BaseUrl).
		Bool("hasApiKey", c.ApiKey != "")
	if c.MaxBatchSize != nil {
		e.Int("maxBatchSize", *c.MaxBatchSize)
	}
	if c.Timeout != nil {
		e.Str("timeout", c.Timeout.String())
	}
}

var (
	NftmetaVersion   = "dev"
	NftmetaCommitSha = "none"
)
