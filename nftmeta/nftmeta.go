package nftmeta

import (
	"context"
	"errors"
	"strconv"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/custom"
	"github.com/nftmeta/nftmeta/extend"
	"github.com/nftmeta/nftmeta/telemetry"
	"github.com/nftmeta/nftmeta/thirdparty"
	"github.com/rs/zerolog"
)

// NftMeta owns the request-independent collaborators of the resolution
// pipeline. It holds no per-request state and is safe for concurrent use.
type NftMeta struct {
	logger    *zerolog.Logger
	providers *thirdparty.ProvidersRegistry
	custom    *custom.Registry
	extender  *extend.Extender
}

func NewNftMeta(
	ctx context.Context,
	logger *zerolog.Logger,
	cfg *common.Config,
) (*NftMeta, error) {
	providers, err := thirdparty.NewProvidersRegistry(logger, cfg.Providers)
	if err != nil {
		return nil, err
	}

	customRegistry, err := custom.NewRegistryFromConfig(ctx, logger, cfg.Custom)
	if err != nil {
		return nil, err
	}

	return NewNftMetaWith(logger, providers, customRegistry, extend.NewExtender(logger, cfg.Extend)), nil
}

func NewNftMetaWith(
	logger *zerolog.Logger,
	providers *thirdparty.ProvidersRegistry,
	customRegistry *custom.Registry,
	extender *extend.Extender,
) *NftMeta {
	lg := logger.With().Str("component", "resolver").Logger()
	if customRegistry == nil {
		customRegistry = custom.NewRegistry(logger)
	}
	if extender == nil {
		extender = extend.NewExtender(logger, nil)
	}
	return &NftMeta{
		logger:    &lg,
		providers: providers,
		custom:    customRegistry,
		extender:  extender,
	}
}

// Resolve validates the network and method of a request. Nothing external is
// contacted, so an invalid request never costs provider quota.
func (n *NftMeta) Resolve(network string, method string) (int64, thirdparty.Provider, error) {
	chainId, err := common.ResolveChainId(network)
	if err != nil {
		return 0, nil, err
	}
	provider, err := n.providers.LookupByMethod(method)
	if err != nil {
		return 0, nil, err
	}
	return chainId, provider, nil
}

// absorb records the failure of an advisory stage; the caller continues as if
// the stage contributed nothing.
func (n *NftMeta) absorb(chainId int64, stage string, err error) {
	code := "ErrUnknown"
	var se common.StandardError
	if errors.As(err, &se) {
		code = string(se.Base().Code)
	}
	n.logger.Warn().Err(err).
		Int64("chainId", chainId).
		Str("stage", stage).
		Msg("advisory stage failed, continuing without its results")
	telemetry.CounterHandle(telemetry.MetricAbsorbedFailuresTotal, chainLabel(chainId), stage, code).Inc()
}

func chainLabel(chainId int64) string {
	return strconv.FormatInt(chainId, 10)
}
