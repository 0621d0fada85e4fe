package thirdparty

import (
	"fmt"

	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

// PrimaryIndexer is consulted as an advisory pre-pass regardless of the
// selected method and cannot be selected itself.
const PrimaryIndexer = "modulenft"

type ProvidersRegistry struct {
	providers []Provider
	primary   Provider
}

// NewProvidersRegistry builds one adapter per supported method, handing each
// its own credentials.
func NewProvidersRegistry(logger *zerolog.Logger, cfg *common.ProvidersConfig) (*ProvidersRegistry, error) {
	if cfg == nil {
		cfg = &common.ProvidersConfig{}
		cfg.SetDefaults()
	}
	r := &ProvidersRegistry{}

	builders := []func() (Provider, error){
		func() (Provider, error) { return NewOpenseaProvider(logger, cfg.Opensea) },
		func() (Provider, error) { return NewRaribleProvider(logger, cfg.Rarible) },
		func() (Provider, error) { return NewSimplehashProvider(logger, cfg.Simplehash) },
		func() (Provider, error) { return NewCenterdevProvider(logger, cfg.Centerdev) },
		func() (Provider, error) { return NewSoundxyzProvider(logger, cfg.Soundxyz) },
	}
	for _, build := range builders {
		p, err := build()
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}

	primary, err := NewModulenftProvider(logger, cfg.Modulenft)
	if err != nil {
		return nil, err
	}
	r.primary = primary

	return r, nil
}

// NewProvidersRegistryWith is used when adapters are built elsewhere.
func NewProvidersRegistryWith(primary Provider, providers ...Provider) *ProvidersRegistry {
	r := &ProvidersRegistry{primary: primary}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *ProvidersRegistry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

func (r *ProvidersRegistry) SupportedMethods() []string {
	methods := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		methods = append(methods, p.Name())
	}
	return methods
}

// LookupByMethod is a pure lookup; unknown methods fail validation.
func (r *ProvidersRegistry) LookupByMethod(method string) (Provider, error) {
	for _, p := range r.providers {
		if p.Name() == method {
			return p, nil
		}
	}
	return nil, common.NewErrUnknownMethod(method, r.SupportedMethods())
}

func (r *ProvidersRegistry) Primary() Provider {
	return r.primary
}

func (r *ProvidersRegistry) String() string {
	return fmt.Sprintf("ProvidersRegistry{methods: %v, primary: %v}", r.SupportedMethods(), r.primary != nil)
}
