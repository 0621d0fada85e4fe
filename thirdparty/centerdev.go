package thirdparty

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const (
	centerdevDefaultBaseUrl  = "https://api.center.dev"
	centerdevDefaultMaxBatch = 100
)

type CenterdevProvider struct {
	*baseProvider
}

func NewCenterdevProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*CenterdevProvider, error) {
	chains := map[int64]chainEndpoint{}
	for chainId, network := range map[int64]string{
		1:   "ethereum-mainnet",
		5:   "ethereum-goerli",
		10:  "optimism-mainnet",
		137: "polygon-mainnet",
	} {
		chains[chainId] = chainEndpoint{network: network, baseUrl: centerdevDefaultBaseUrl, withApiKey: true}
	}
	base, err := newBaseProvider(logger, "centerdev", cfg, centerdevDefaultMaxBatch, chains, "X-API-Key")
	if err != nil {
		return nil, err
	}
	return &CenterdevProvider{baseProvider: base}, nil
}

type centerdevAssetRef struct {
	Address string `json:"Address"`
	TokenID string `json:"TokenID"`
}

type centerdevAsset struct {
	Address               string `json:"address"`
	TokenId               string `json:"tokenId"`
	Name                  string `json:"name"`
	MediumPreviewImageUrl string `json:"mediumPreviewImageUrl"`
	Metadata              *struct {
		Description  string  `json:"description"`
		Image        string  `json:"image"`
		AnimationUrl string  `json:"animation_url"`
		Attributes   []trait `json:"attributes"`
	} `json:"metadata"`
}

type centerdevCollection struct {
	Address          string `json:"address"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	FeaturedImageUrl string `json:"featuredImageUrl"`
	BannerImageUrl   string `json:"bannerImageUrl"`
	ExternalUrl      string `json:"externalUrl"`
}

func (p *CenterdevProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}

	assets := make([]centerdevAssetRef, 0, len(refs))
	for _, ref := range refs {
		assets = append(assets, centerdevAssetRef{Address: ref.Contract, TokenID: ref.TokenId})
	}

	var resp []*centerdevAsset
	err = client.Do(ctx, &clients.Request{
		Method:    "POST",
		Path:      "/v1/" + network + "/assets",
		Body:      map[string]interface{}{"assets": assets},
		ChainId:   chainId,
		Operation: "fetchTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	metadata := make([]*common.TokenMetadata, 0, len(resp))
	for _, a := range resp {
		if md := parseCenterdevAsset(a); md != nil {
			metadata = append(metadata, md)
		}
	}
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *CenterdevProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	return common.Unsupported[*common.TokensPage](), nil
}

func (p *CenterdevProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var resp centerdevCollection
	err = client.Do(ctx, &clients.Request{
		Path:      "/v1/" + network + "/" + ref.Contract,
		ChainId:   chainId,
		Operation: "fetchCollection",
	}, &resp)
	if err != nil {
		if clients.IsNotFound(err) {
			return common.Empty[*common.Collection](), nil
		}
		return nil, err
	}
	if resp.Address == "" && resp.Name == "" {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseCenterdevCollection(ref.Contract, &resp)), nil
}

func parseCenterdevAsset(a *centerdevAsset) *common.TokenMetadata {
	if a == nil {
		return nil
	}
	contract, err := common.NormalizeContract(a.Address)
	if err != nil {
		return nil
	}
	tokenId, ok := common.ParseTokenId(a.TokenId)
	if !ok {
		return nil
	}
	md := &common.TokenMetadata{
		Contract:   contract,
		TokenId:    tokenId,
		Name:       a.Name,
		Collection: contract,
		ImageUrl:   a.MediumPreviewImageUrl,
		Attributes: []common.Attribute{},
	}
	if a.Metadata != nil {
		md.Description = a.Metadata.Description
		md.ImageUrl = firstNonEmpty(a.MediumPreviewImageUrl, a.Metadata.Image)
		md.MediaUrl = a.Metadata.AnimationUrl
		md.Attributes = parseTraits(a.Metadata.Attributes)
	}
	return md
}

func parseCenterdevCollection(contract string, cc *centerdevCollection) *common.Collection {
	c := common.NewCollection(contract)
	c.Name = cc.Name
	c.Slug = slug.Make(cc.Name)
	c.Metadata = common.CollectionMetadata{
		Description:    cc.Description,
		ImageUrl:       cc.FeaturedImageUrl,
		BannerImageUrl: cc.BannerImageUrl,
		ExternalUrl:    cc.ExternalUrl,
	}
	return c
}
