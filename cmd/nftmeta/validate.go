package main

import (
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

type ConfigStats struct {
	Providers         []ProviderStats
	CustomHandlers    []string
	MetricsEnabled    bool
	TracingEnabled    bool
	IpfsGateway       string
	MissingApiKeys    []string
	OverriddenBatches map[string]int
}

type ProviderStats struct {
	Name         string
	HasApiKey    bool
	HasBaseUrl   bool
	HasTimeout   bool
	BatchCeiling *int
}

// AnalyseConfig prints what a loaded config will actually run with.
func AnalyseConfig(cfg *common.Config, logger zerolog.Logger) ConfigStats {
	stats := calculateConfigStats(cfg)
	printConfigStats(logger, stats)
	return stats
}

func calculateConfigStats(cfg *common.Config) ConfigStats {
	stats := ConfigStats{
		OverriddenBatches: map[string]int{},
	}

	if cfg.Providers != nil {
		for _, named := range []struct {
			name string
			cfg  *common.ProviderConfig
		}{
			{"opensea", cfg.Providers.Opensea},
			{"rarible", cfg.Providers.Rarible},
			{"simplehash", cfg.Providers.Simplehash},
			{"centerdev", cfg.Providers.Centerdev},
			{"soundxyz", cfg.Providers.Soundxyz},
			{"modulenft", cfg.Providers.Modulenft},
		} {
			if named.cfg == nil {
				continue
			}
			ps := ProviderStats{
				Name:         named.name,
				HasApiKey:    named.cfg.ApiKey != "",
				HasBaseUrl:   named.cfg.BaseUrl != "",
				HasTimeout:   named.cfg.Timeout != nil,
				BatchCeiling: named.cfg.MaxBatchSize,
			}
			if !ps.HasApiKey {
				stats.MissingApiKeys = append(stats.MissingApiKeys, named.name)
			}
			if named.cfg.MaxBatchSize != nil {
				stats.OverriddenBatches[named.name] = *named.cfg.MaxBatchSize
			}
			stats.Providers = append(stats.Providers, ps)
		}
	}

	if cfg.Custom != nil {
		if cfg.Custom.Ens != nil && cfg.Custom.Ens.Enabled != nil && *cfg.Custom.Ens.Enabled {
			stats.CustomHandlers = append(stats.CustomHandlers, "ens")
		}
		if cfg.Custom.Loot != nil && cfg.Custom.Loot.Enabled != nil && *cfg.Custom.Loot.Enabled {
			stats.CustomHandlers = append(stats.CustomHandlers, "loot")
		}
	}

	stats.MetricsEnabled = cfg.Metrics != nil && cfg.Metrics.Enabled
	stats.TracingEnabled = cfg.Tracing != nil && cfg.Tracing.Enabled
	if cfg.Extend != nil {
		stats.IpfsGateway = cfg.Extend.IpfsGateway
	}

	return stats
}

func printConfigStats(logger zerolog.Logger, stats ConfigStats) {
	logger.Info().Msg("Configuration Statistics:")

	providerLogger := logger.With().Str("component", "providers").Logger()
	for _, p := range stats.Providers {
		ev := providerLogger.Info().
			Str("provider", p.Name).
			Bool("apiKey", p.HasApiKey).
			Bool("customBaseUrl", p.HasBaseUrl).
			Bool("customTimeout", p.HasTimeout)
		if p.BatchCeiling != nil {
			ev = ev.Int("maxBatchSize", *p.BatchCeiling)
		}
		ev.Msg("Provider configured")
	}
	if len(stats.MissingApiKeys) > 0 {
		providerLogger.Warn().Strs("providers", stats.MissingApiKeys).Msg("Providers without an api key will use anonymous quotas")
	}

	logger.Info().
		Strs("customHandlers", stats.CustomHandlers).
		Bool("metrics", stats.MetricsEnabled).
		Bool("tracing", stats.TracingEnabled).
		Str("ipfsGateway", stats.IpfsGateway).
		Msg("Runtime features")
}
