package nftmeta

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/custom"
	"github.com/nftmeta/nftmeta/extend"
	"github.com/nftmeta/nftmeta/thirdparty"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/mock"
)

func init() {
	util.ConfigureTestLogger()
}

const (
	contractA = "0x00000000000000000000000000000000000000aa"
	contractB = "0x00000000000000000000000000000000000000bb"
	contractC = "0x00000000000000000000000000000000000000cc"
)

type spyProvider struct {
	mock.Mock
	name     string
	maxBatch int
	chains   []int64
}

func newSpyProvider(name string, maxBatch int, chains ...int64) *spyProvider {
	if len(chains) == 0 {
		chains = []int64{1, 4, 5, 10, 137}
	}
	return &spyProvider{name: name, maxBatch: maxBatch, chains: chains}
}

func (p *spyProvider) Name() string { return p.name }

func (p *spyProvider) SupportsChain(chainId int64) bool {
	for _, c := range p.chains {
		if c == chainId {
			return true
		}
	}
	return false
}

func (p *spyProvider) MaxBatchSize() int { return p.maxBatch }

func (p *spyProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	args := p.Called(ctx, chainId, refs)
	res, _ := args.Get(0).(*common.Result[[]*common.TokenMetadata])
	return res, args.Error(1)
}

func (p *spyProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	args := p.Called(ctx, chainId, ref)
	res, _ := args.Get(0).(*common.Result[*common.Collection])
	return res, args.Error(1)
}

func (p *spyProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	args := p.Called(ctx, chainId, contract, continuation)
	res, _ := args.Get(0).(*common.Result[*common.TokensPage])
	return res, args.Error(1)
}

type spyHandler struct {
	mock.Mock
	contract string
}

func (h *spyHandler) Name() string     { return "spy" }
func (h *spyHandler) ChainId() int64   { return 1 }
func (h *spyHandler) Contract() string { return h.contract }

func (h *spyHandler) FetchToken(ctx context.Context, ref common.TokenRef) (*common.TokenMetadata, error) {
	args := h.Called(ctx, ref)
	md, _ := args.Get(0).(*common.TokenMetadata)
	return md, args.Error(1)
}

func (h *spyHandler) FetchCollection(ctx context.Context, ref common.CollectionRef) (*common.Collection, error) {
	args := h.Called(ctx, ref)
	c, _ := args.Get(0).(*common.Collection)
	return c, args.Error(1)
}

func (h *spyHandler) FetchContractTokens(ctx context.Context, continuation string) (*common.Result[*common.TokensPage], error) {
	args := h.Called(ctx, continuation)
	res, _ := args.Get(0).(*common.Result[*common.TokensPage])
	return res, args.Error(1)
}

type fixture struct {
	nm        *NftMeta
	primary   *spyProvider
	opensea   *spyProvider
	centerdev *spyProvider
}

func newFixture(t *testing.T, handlers ...custom.Handler) *fixture {
	t.Helper()
	f := &fixture{
		primary:   newSpyProvider(thirdparty.PrimaryIndexer, 0, 1),
		opensea:   newSpyProvider("opensea", 20, 1, 4, 5),
		centerdev: newSpyProvider("centerdev", 100, 1, 5, 10, 137),
	}
	logger := util.TestLogger()
	registry := thirdparty.NewProvidersRegistryWith(f.primary, f.opensea, f.centerdev)
	f.nm = NewNftMetaWith(logger, registry, custom.NewRegistry(logger, handlers...), extend.NewExtender(logger, nil))
	return f
}

func tokenRef(contract string, id int) common.TokenRef {
	return common.TokenRef{Contract: contract, TokenId: fmt.Sprintf("%d", id)}
}

func tokenRefs(contract string, from, to int) []common.TokenRef {
	refs := make([]common.TokenRef, 0, to-from+1)
	for i := from; i <= to; i++ {
		refs = append(refs, tokenRef(contract, i))
	}
	return refs
}

func tokenMd(contract string, id int64, name string) *common.TokenMetadata {
	return &common.TokenMetadata{
		Contract:   contract,
		TokenId:    big.NewInt(id),
		Name:       name,
		Collection: contract,
		Attributes: []common.Attribute{},
	}
}

func foundTokens(mds ...*common.TokenMetadata) *common.Result[[]*common.TokenMetadata] {
	return common.Found(mds)
}

func names(mds []*common.TokenMetadata) []string {
	out := make([]string, 0, len(mds))
	for _, md := range mds {
		out = append(out, md.Name)
	}
	return out
}
