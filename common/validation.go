package common

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) Validate() error {
	if c.Server != nil {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port is invalid: %d", c.Metrics.Port)
		}
		if c.Server != nil && c.Metrics.Port == c.Server.HttpPort {
			return fmt.Errorf("metrics.port must differ from server.httpPort (%d)", c.Metrics.Port)
		}
	}
	if c.Tracing != nil && c.Tracing.Enabled {
		if c.Tracing.Protocol != TracingProtocolGrpc && c.Tracing.Protocol != TracingProtocolHttp {
			return fmt.Errorf("tracing.protocol must be one of [grpc, http], got %q", c.Tracing.Protocol)
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sampleRate must be between 0 and 1")
		}
	}
	if c.Providers != nil {
		if err := c.Providers.Validate(); err != nil {
			return err
		}
	}
	if c.Custom != nil && c.Custom.Loot != nil && c.Custom.Loot.Enabled != nil && *c.Custom.Loot.Enabled {
		if c.Custom.Loot.RpcUrl == "" {
			return fmt.Errorf("custom.loot.rpcUrl is required when the loot handler is enabled")
		}
	}
	if c.Extend != nil && c.Extend.IpfsGateway != "" {
		if !strings.HasSuffix(c.Extend.IpfsGateway, "/") {
			return fmt.Errorf("extend.ipfsGateway must end with '/': %s", c.Extend.IpfsGateway)
		}
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.HttpPort <= 0 || s.HttpPort > 65535 {
		return fmt.Errorf("server.httpPort is invalid: %d", s.HttpPort)
	}
	if s.MaxTimeout != nil && s.MaxTimeout.Duration() <= 0 {
		return fmt.Errorf("server.maxTimeout must be positive")
	}
	return nil
}

func (p *ProvidersConfig) Validate() error {
	named := map[string]*ProviderConfig{
		"opensea":    p.Opensea,
		"rarible":    p.Rarible,
		"simplehash": p.Simplehash,
		"centerdev":  p.Centerdev,
		"soundxyz":   p.Soundxyz,
		"modulenft":  p.Modulenft,
	}
	for name, pc := range named {
		if pc == nil {
			continue
		}
		if pc.BaseUrl != "" {
			u, err := url.Parse(pc.BaseUrl)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("providers.%s.baseUrl is not a valid url: %s", name, pc.BaseUrl)
			}
		}
		if pc.MaxBatchSize != nil && *pc.MaxBatchSize < 0 {
			return fmt.Errorf("providers.%s.maxBatchSize cannot be negative", name)
		}
	}
	return nil
}
