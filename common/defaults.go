package common

import (
	"github.com/nftmeta/nftmeta/util"
)

const (
	DefaultHttpPort    = 3000
	DefaultMetricsPort = 4001
	DefaultIpfsGateway = "https://ipfs.io/ipfs/"
	DefaultLootPage    = 20
)

func (c *Config) SetDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	c.Server.SetDefaults()
	if c.Metrics != nil {
		c.Metrics.SetDefaults()
	}
	if c.Tracing != nil {
		c.Tracing.SetDefaults()
	}
	if c.Providers == nil {
		c.Providers = &ProvidersConfig{}
	}
	c.Providers.SetDefaults()
	if c.Custom == nil {
		c.Custom = &CustomConfig{}
	}
	c.Custom.SetDefaults()
	if c.Extend == nil {
		c.Extend = &ExtendConfig{}
	}
	if c.Extend.IpfsGateway == "" {
		c.Extend.IpfsGateway = DefaultIpfsGateway
	}
	return nil
}

func (s *ServerConfig) SetDefaults() {
	if s.HttpHost == "" {
		s.HttpHost = "0.0.0.0"
	}
	if s.HttpPort == 0 {
		s.HttpPort = DefaultHttpPort
	}
	if s.CORS != nil {
		if len(s.CORS.AllowedMethods) == 0 {
			s.CORS.AllowedMethods = []string{"GET", "OPTIONS"}
		}
		if len(s.CORS.AllowedHeaders) == 0 {
			s.CORS.AllowedHeaders = []string{"Content-Type"}
		}
	}
}

func (m *MetricsConfig) SetDefaults() {
	if m.Host == "" {
		m.Host = "0.0.0.0"
	}
	if m.Port == 0 {
		m.Port = DefaultMetricsPort
	}
}

func (t *TracingConfig) SetDefaults() {
	if t.Protocol == "" {
		t.Protocol = TracingProtocolGrpc
	}
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
}

func (p *ProvidersConfig) SetDefaults() {
	for _, pc := range []**ProviderConfig{
		&p.Opensea, &p.Rarible, &p.Simplehash, &p.Centerdev, &p.Soundxyz, &p.Modulenft,
	} {
		if *pc == nil {
			*pc = &ProviderConfig{}
		}
	}
}

func (c *CustomConfig) SetDefaults() {
	if c.Ens == nil {
		c.Ens = &EnsHandlerConfig{}
	}
	if c.Ens.Enabled == nil {
		c.Ens.Enabled = util.BoolPtr(true)
	}
	if c.Loot == nil {
		c.Loot = &LootHandlerConfig{}
	}
	if c.Loot.Enabled == nil {
		c.Loot.Enabled = util.BoolPtr(c.Loot.RpcUrl != "")
	}
	if c.Loot.PageSize == 0 {
		c.Loot.PageSize = DefaultLootPage
	}
}
