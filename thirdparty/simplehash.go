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

const simplehashDefaultBaseUrl = "https://api.simplehash.com"

type SimplehashProvider struct {
	*baseProvider
}

func NewSimplehashProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*SimplehashProvider, error) {
	chains := map[int64]chainEndpoint{}
	for chainId, network := range map[int64]string{
		1:   "ethereum",
		4:   "ethereum-rinkeby",
		5:   "ethereum-goerli",
		10:  "optimism",
		137: "polygon",
	} {
		chains[chainId] = chainEndpoint{network: network, baseUrl: simplehashDefaultBaseUrl, withApiKey: true}
	}
	base, err := newBaseProvider(logger, "simplehash", cfg, 0, chains, "X-API-KEY")
	if err != nil {
		return nil, err
	}
	return &SimplehashProvider{baseProvider: base}, nil
}

type simplehashRoyalty struct {
	Source     string `json:"source"`
	Recipients []struct {
		Address     string `json:"address"`
		BasisPoints int    `json:"basis_points"`
	} `json:"recipients"`
}

type simplehashCollection struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ImageUrl         string `json:"image_url"`
	BannerImageUrl   string `json:"banner_image_url"`
	DiscordUrl       string `json:"discord_url"`
	ExternalUrl      string `json:"external_url"`
	TwitterUsername  string `json:"twitter_username"`
	MarketplacePages []struct {
		MarketplaceId           string `json:"marketplace_id"`
		MarketplaceCollectionId string `json:"marketplace_collection_id"`
	} `json:"marketplace_pages"`
	Royalty []simplehashRoyalty `json:"royalty"`
}

type simplehashNft struct {
	ContractAddress string `json:"contract_address"`
	TokenId         string `json:"token_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ImageUrl        string `json:"image_url"`
	VideoUrl        string `json:"video_url"`
	Previews        struct {
		ImageMediumUrl string `json:"image_medium_url"`
	} `json:"previews"`
	ExtraMetadata struct {
		Attributes           []trait `json:"attributes"`
		ImageOriginalUrl     string  `json:"image_original_url"`
		AnimationOriginalUrl string  `json:"animation_original_url"`
	} `json:"extra_metadata"`
	Collection *simplehashCollection `json:"collection"`
}

type simplehashNftsResponse struct {
	Next       string           `json:"next"`
	NextCursor string           `json:"next_cursor"`
	Nfts       []*simplehashNft `json:"nfts"`
}

func (p *SimplehashProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, network+"."+ref.Contract+"."+ref.TokenId)
	}

	var resp simplehashNftsResponse
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v0/nfts/assets",
		Query:     url.Values{"nft_ids": []string{strings.Join(ids, ",")}},
		ChainId:   chainId,
		Operation: "fetchTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	metadata := parseSimplehashNfts(resp.Nfts)
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *SimplehashProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if continuation != "" {
		query.Set("cursor", continuation)
	}

	var resp simplehashNftsResponse
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v0/nfts/" + network + "/" + contract,
		Query:     query,
		ChainId:   chainId,
		Operation: "fetchContractTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return common.Found(&common.TokensPage{
		Continuation: continuationOf(resp.NextCursor),
		Metadata:     parseSimplehashNfts(resp.Nfts),
	}), nil
}

// FetchCollection reads the collection embedded in a representative token,
// the first token of the contract when none is given.
func (p *SimplehashProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var nft *simplehashNft
	if ref.TokenId != "" {
		nft = &simplehashNft{}
		err = client.Do(ctx, &clients.Request{
			Path:      "/api/v0/nfts/" + network + "/" + ref.Contract + "/" + ref.TokenId,
			ChainId:   chainId,
			Operation: "fetchCollection",
		}, nft)
	} else {
		var resp simplehashNftsResponse
		err = client.Do(ctx, &clients.Request{
			Path:      "/api/v0/nfts/" + network + "/" + ref.Contract,
			Query:     url.Values{"limit": []string{"1"}},
			ChainId:   chainId,
			Operation: "fetchCollection",
		}, &resp)
		if len(resp.Nfts) > 0 {
			nft = resp.Nfts[0]
		}
	}
	if err != nil {
		if clients.IsNotFound(err) {
			return common.Empty[*common.Collection](), nil
		}
		return nil, err
	}
	if nft == nil || nft.Collection == nil {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseSimplehashCollection(ref.Contract, nft.Collection)), nil
}

func parseSimplehashNfts(nfts []*simplehashNft) []*common.TokenMetadata {
	metadata := make([]*common.TokenMetadata, 0, len(nfts))
	for _, n := range nfts {
		if md := parseSimplehashNft(n); md != nil {
			metadata = append(metadata, md)
		}
	}
	return metadata
}

func parseSimplehashNft(n *simplehashNft) *common.TokenMetadata {
	if n == nil {
		return nil
	}
	contract, err := common.NormalizeContract(n.ContractAddress)
	if err != nil {
		return nil
	}
	tokenId, ok := common.ParseTokenId(n.TokenId)
	if !ok {
		return nil
	}
	return &common.TokenMetadata{
		Contract:    contract,
		TokenId:     tokenId,
		Name:        n.Name,
		Collection:  contract,
		Description: n.Description,
		ImageUrl:    firstNonEmpty(n.Previews.ImageMediumUrl, n.ImageUrl, n.ExtraMetadata.ImageOriginalUrl),
		MediaUrl:    firstNonEmpty(n.VideoUrl, n.ExtraMetadata.AnimationOriginalUrl),
		Attributes:  parseTraits(n.ExtraMetadata.Attributes),
	}
}

func parseSimplehashCollection(contract string, sc *simplehashCollection) *common.Collection {
	c := common.NewCollection(contract)
	c.Name = sc.Name
	c.Metadata = common.CollectionMetadata{
		Description:     sc.Description,
		ImageUrl:        sc.ImageUrl,
		BannerImageUrl:  sc.BannerImageUrl,
		DiscordUrl:      sc.DiscordUrl,
		ExternalUrl:     sc.ExternalUrl,
		TwitterUsername: sc.TwitterUsername,
	}

	slugSource := sc.Name
	for _, mp := range sc.MarketplacePages {
		if mp.MarketplaceId == "opensea" && mp.MarketplaceCollectionId != "" {
			slugSource = mp.MarketplaceCollectionId
			break
		}
	}
	c.Slug = slug.Make(slugSource)

	for _, r := range sc.Royalty {
		var target *[]common.Royalty
		switch {
		case r.Source == "opensea":
			target = &c.OpenseaRoyalties
		case len(c.Royalties) == 0:
			target = &c.Royalties
		default:
			continue
		}
		for _, rec := range r.Recipients {
			*target = append(*target, royaltyIfPositive(rec.Address, rec.BasisPoints)...)
		}
	}
	return c
}
