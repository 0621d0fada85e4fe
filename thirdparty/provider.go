package thirdparty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

// Provider is the capability set every metadata indexing service exposes.
// Absence of data is reported through the result status; err is reserved for
// calls that actually failed.
type Provider interface {
	Name() string
	SupportsChain(chainId int64) bool
	// MaxBatchSize is the largest token batch accepted by FetchTokens, 0 when unbounded.
	MaxBatchSize() int
	FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error)
	FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error)
	FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error)
}

// chainEndpoint is what a provider needs to reach a given chain: its own name
// for the network and the API root serving it.
type chainEndpoint struct {
	network string
	baseUrl string
	// withApiKey is false for public testnet endpoints that reject foreign keys.
	withApiKey bool
}

type baseProvider struct {
	name         string
	logger       *zerolog.Logger
	maxBatchSize int
	chains       map[int64]chainEndpoint
	clients      map[int64]*clients.ProviderHttpClient
}

func newBaseProvider(
	logger *zerolog.Logger,
	name string,
	cfg *common.ProviderConfig,
	defaultMaxBatchSize int,
	chains map[int64]chainEndpoint,
	authHeader string,
) (*baseProvider, error) {
	if cfg == nil {
		cfg = &common.ProviderConfig{}
	}
	lg := logger.With().Str("component", "provider").Str("provider", name).Logger()
	p := &baseProvider{
		name:         name,
		logger:       &lg,
		maxBatchSize: defaultMaxBatchSize,
		chains:       chains,
		clients:      make(map[int64]*clients.ProviderHttpClient, len(chains)),
	}
	if cfg.MaxBatchSize != nil {
		p.maxBatchSize = *cfg.MaxBatchSize
	}

	var timeout time.Duration
	if cfg.Timeout != nil {
		timeout = cfg.Timeout.Duration()
	}

	// a configured baseUrl replaces the mainnet endpoint, or the only endpoint
	// when the provider serves every chain from one root
	shared := map[string]*clients.ProviderHttpClient{}
	for chainId, ep := range chains {
		baseUrl := ep.baseUrl
		if cfg.BaseUrl != "" && (chainId == 1 || sameBaseUrl(chains)) {
			baseUrl = cfg.BaseUrl
		}
		headers := map[string]string{}
		if authHeader != "" && cfg.ApiKey != "" && ep.withApiKey {
			headers[authHeader] = cfg.ApiKey
		}
		key := fmt.Sprintf("%s|%v", baseUrl, ep.withApiKey)
		if c, ok := shared[key]; ok {
			p.clients[chainId] = c
			continue
		}
		c, err := clients.NewProviderHttpClient(&lg, name, baseUrl, headers, timeout)
		if err != nil {
			return nil, err
		}
		shared[key] = c
		p.clients[chainId] = c
	}

	return p, nil
}

func sameBaseUrl(chains map[int64]chainEndpoint) bool {
	first := ""
	for _, ep := range chains {
		if first == "" {
			first = ep.baseUrl
		} else if ep.baseUrl != first {
			return false
		}
	}
	return true
}

func (p *baseProvider) Name() string {
	return p.name
}

func (p *baseProvider) MaxBatchSize() int {
	return p.maxBatchSize
}

func (p *baseProvider) SupportsChain(chainId int64) bool {
	_, ok := p.chains[chainId]
	return ok
}

func (p *baseProvider) endpoint(chainId int64) (string, *clients.ProviderHttpClient, error) {
	ep, ok := p.chains[chainId]
	if !ok {
		return "", nil, common.NewErrUnsupportedChain(p.name, chainId)
	}
	return ep.network, p.clients[chainId], nil
}

type trait struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

func parseTraits(traits []trait) []common.Attribute {
	attrs := make([]common.Attribute, 0, len(traits))
	for _, t := range traits {
		attrs = append(attrs, common.NewAttribute(t.TraitType, t.Value))
	}
	return attrs
}

// firstNonEmpty implements the "prefer the optimized url" precedence rules.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func continuationOf(next string) *string {
	if next == "" {
		return nil
	}
	return &next
}

func royaltyIfPositive(recipient string, bps int) []common.Royalty {
	if recipient == "" || bps <= 0 {
		return []common.Royalty{}
	}
	return []common.Royalty{{Recipient: strings.ToLower(recipient), Bps: bps}}
}
