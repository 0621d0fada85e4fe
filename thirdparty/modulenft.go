package thirdparty

import (
	"context"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const modulenftDefaultBaseUrl = "https://api.modulenft.xyz"

type ModulenftProvider struct {
	*baseProvider
}

func NewModulenftProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*ModulenftProvider, error) {
	base, err := newBaseProvider(logger, "modulenft", cfg, 0, map[int64]chainEndpoint{
		1: {network: "eth", baseUrl: modulenftDefaultBaseUrl, withApiKey: true},
	}, "X-API-KEY")
	if err != nil {
		return nil, err
	}
	return &ModulenftProvider{baseProvider: base}, nil
}

type modulenftTokenMetadata struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
	ImageCached  string  `json:"image_cached"`
	AnimationUrl string  `json:"animation_url"`
	Attributes   []trait `json:"attributes"`
}

type modulenftToken struct {
	OriginalRequest string `json:"originalRequest"`
	Data            *struct {
		Metadata *modulenftTokenMetadata `json:"metadata"`
	} `json:"data"`
}

type modulenftCollection struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Images      struct {
		ImageUrl       string `json:"image_url"`
		BannerImageUrl string `json:"banner_image_url"`
	} `json:"images"`
	Socials struct {
		DiscordUrl      string `json:"discord_url"`
		ExternalUrl     string `json:"external_url"`
		TwitterUsername string `json:"twitter_username"`
	} `json:"socials"`
	Fees struct {
		SellerFee        int    `json:"sellerFee"`
		SellerFeeAddress string `json:"sellerFeeAddress"`
	} `json:"fees"`
}

func (p *ModulenftProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.String())
	}

	var tokens []modulenftToken
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v2/" + network + "/nft/batchGetToken",
		Query:     url.Values{"token": []string{strings.Join(ids, ",")}},
		ChainId:   chainId,
		Operation: "fetchTokens",
	}, &tokens)
	if err != nil {
		return nil, err
	}

	metadata := make([]*common.TokenMetadata, 0, len(tokens))
	for i := range tokens {
		if md := parseModulenftToken(&tokens[i]); md != nil {
			metadata = append(metadata, md)
		}
	}
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *ModulenftProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data *modulenftCollection `json:"data"`
	}
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v2/" + network + "/nft/collection",
		Query:     url.Values{"contractAddress": []string{ref.Contract}},
		ChainId:   chainId,
		Operation: "fetchCollection",
	}, &resp)
	if err != nil {
		if clients.IsNotFound(err) {
			return common.Empty[*common.Collection](), nil
		}
		return nil, err
	}
	if resp.Data == nil {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseModulenftCollection(ref.Contract, resp.Data)), nil
}

func (p *ModulenftProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	return common.Unsupported[*common.TokensPage](), nil
}

func parseModulenftToken(t *modulenftToken) *common.TokenMetadata {
	if t == nil || t.Data == nil || t.Data.Metadata == nil {
		return nil
	}
	ref, err := common.ParseTokenRef(t.OriginalRequest)
	if err != nil {
		return nil
	}
	md := t.Data.Metadata
	return &common.TokenMetadata{
		Contract:    ref.Contract,
		TokenId:     ref.Id(),
		Name:        md.Name,
		Collection:  ref.Contract,
		Description: md.Description,
		ImageUrl:    firstNonEmpty(md.ImageCached, md.Image),
		MediaUrl:    md.AnimationUrl,
		Attributes:  parseTraits(md.Attributes),
	}
}

func parseModulenftCollection(contract string, data *modulenftCollection) *common.Collection {
	c := common.NewCollection(contract)
	c.Slug = slug.Make(data.Slug)
	c.Name = data.Name
	c.Metadata = common.CollectionMetadata{
		Description:     data.Description,
		ImageUrl:        data.Images.ImageUrl,
		BannerImageUrl:  data.Images.BannerImageUrl,
		DiscordUrl:      data.Socials.DiscordUrl,
		ExternalUrl:     data.Socials.ExternalUrl,
		TwitterUsername: data.Socials.TwitterUsername,
	}
	c.Royalties = royaltyIfPositive(data.Fees.SellerFeeAddress, data.Fees.SellerFee)
	return c
}
