package custom

import (
	"context"
	"fmt"
	"strings"

	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

// Handler replaces generic provider resolution for exactly one contract on one chain.
type Handler interface {
	Name() string
	ChainId() int64
	Contract() string
	FetchToken(ctx context.Context, ref common.TokenRef) (*common.TokenMetadata, error)
	FetchCollection(ctx context.Context, ref common.CollectionRef) (*common.Collection, error)
	FetchContractTokens(ctx context.Context, continuation string) (*common.Result[*common.TokensPage], error)
}

// Registry answers whether a contract is overridden and dispatches to its
// handler. When HasOverride is true no provider may be consulted for that
// contract.
type Registry struct {
	logger   *zerolog.Logger
	handlers map[string]Handler
}

func NewRegistry(logger *zerolog.Logger, handlers ...Handler) *Registry {
	lg := logger.With().Str("component", "customRegistry").Logger()
	r := &Registry{
		logger:   &lg,
		handlers: make(map[string]Handler, len(handlers)),
	}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// NewRegistryFromConfig wires the built-in handlers enabled in cfg.
func NewRegistryFromConfig(ctx context.Context, logger *zerolog.Logger, cfg *common.CustomConfig) (*Registry, error) {
	r := NewRegistry(logger)
	if cfg == nil {
		return r, nil
	}

	if cfg.Ens != nil && cfg.Ens.Enabled != nil && *cfg.Ens.Enabled {
		ens, err := NewEnsHandler(logger, cfg.Ens)
		if err != nil {
			return nil, err
		}
		r.Register(ens)
	}
	if cfg.Loot != nil && cfg.Loot.Enabled != nil && *cfg.Loot.Enabled {
		reader, err := NewEthLootReader(ctx, cfg.Loot.RpcUrl)
		if err != nil {
			return nil, err
		}
		r.Register(NewLootHandler(logger, reader, cfg.Loot.PageSize))
	}

	return r, nil
}

func handlerKey(chainId int64, contract string) string {
	return fmt.Sprintf("%d:%s", chainId, strings.ToLower(contract))
}

func (r *Registry) Register(h Handler) {
	r.handlers[handlerKey(h.ChainId(), h.Contract())] = h
	r.logger.Debug().Str("handler", h.Name()).Int64("chainId", h.ChainId()).Str("contract", h.Contract()).Msg("registered custom handler")
}

func (r *Registry) HasOverride(chainId int64, contract string) bool {
	_, ok := r.handlers[handlerKey(chainId, contract)]
	return ok
}

func (r *Registry) lookup(chainId int64, contract string) (Handler, error) {
	h, ok := r.handlers[handlerKey(chainId, contract)]
	if !ok {
		return nil, fmt.Errorf("no custom handler for %s on chain %d", contract, chainId)
	}
	return h, nil
}

func (r *Registry) ResolveToken(ctx context.Context, chainId int64, ref common.TokenRef) (*common.TokenMetadata, error) {
	h, err := r.lookup(chainId, ref.Contract)
	if err != nil {
		return nil, err
	}
	md, err := h.FetchToken(ctx, ref)
	if err != nil {
		return nil, common.NewErrCustomHandler(h.Name(), err)
	}
	return md, nil
}

func (r *Registry) ResolveCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Collection, error) {
	h, err := r.lookup(chainId, ref.Contract)
	if err != nil {
		return nil, err
	}
	c, err := h.FetchCollection(ctx, ref)
	if err != nil {
		return nil, common.NewErrCustomHandler(h.Name(), err)
	}
	return c, nil
}

func (r *Registry) ResolveContractPage(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	h, err := r.lookup(chainId, contract)
	if err != nil {
		return nil, err
	}
	page, err := h.FetchContractTokens(ctx, continuation)
	if err != nil {
		return nil, common.NewErrCustomHandler(h.Name(), err)
	}
	return page, nil
}
