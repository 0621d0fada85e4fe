package thirdparty

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const (
	openseaDefaultBaseUrl  = "https://api.opensea.io"
	openseaDefaultMaxBatch = 20
	openseaPageSize        = 50
)

type OpenseaProvider struct {
	*baseProvider
}

func NewOpenseaProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*OpenseaProvider, error) {
	base, err := newBaseProvider(logger, "opensea", cfg, openseaDefaultMaxBatch, map[int64]chainEndpoint{
		1: {network: "ethereum", baseUrl: openseaDefaultBaseUrl, withApiKey: true},
		4: {network: "rinkeby", baseUrl: "https://rinkeby-api.opensea.io"},
		5: {network: "goerli", baseUrl: "https://testnets-api.opensea.io"},
	}, "X-API-KEY")
	if err != nil {
		return nil, err
	}
	return &OpenseaProvider{baseProvider: base}, nil
}

type openseaAsset struct {
	TokenId          string  `json:"token_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ImageUrl         string  `json:"image_url"`
	ImageOriginalUrl string  `json:"image_original_url"`
	AnimationUrl     string  `json:"animation_url"`
	Traits           []trait `json:"traits"`
	AssetContract    struct {
		Address string `json:"address"`
	} `json:"asset_contract"`
}

type openseaAssetsResponse struct {
	Next   string          `json:"next"`
	Assets []*openseaAsset `json:"assets"`
}

type openseaCollection struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ImageUrl        string `json:"image_url"`
	BannerImageUrl  string `json:"banner_image_url"`
	DiscordUrl      string `json:"discord_url"`
	ExternalUrl     string `json:"external_url"`
	TwitterUsername string `json:"twitter_username"`
	Fees            *struct {
		SellerFees map[string]int `json:"seller_fees"`
	} `json:"fees"`
}

type openseaAssetContract struct {
	Address                 string             `json:"address"`
	Name                    string             `json:"name"`
	DevSellerFeeBasisPoints int                `json:"dev_seller_fee_basis_points"`
	PayoutAddress           string             `json:"payout_address"`
	Collection              *openseaCollection `json:"collection"`
}

func (p *OpenseaProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	_, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}

	query := url.Values{}
	for _, ref := range refs {
		query.Add("asset_contract_addresses", ref.Contract)
		query.Add("token_ids", ref.TokenId)
	}
	query.Set("limit", strconv.Itoa(len(refs)))

	var resp openseaAssetsResponse
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v1/assets",
		Query:     query,
		ChainId:   chainId,
		Operation: "fetchTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	metadata := parseOpenseaAssets(resp.Assets)
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *OpenseaProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	_, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"asset_contract_address": []string{contract},
		"limit":                  []string{strconv.Itoa(openseaPageSize)},
	}
	if continuation != "" {
		query.Set("cursor", continuation)
	}

	var resp openseaAssetsResponse
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v1/assets",
		Query:     query,
		ChainId:   chainId,
		Operation: "fetchContractTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return common.Found(&common.TokensPage{
		Continuation: continuationOf(resp.Next),
		Metadata:     parseOpenseaAssets(resp.Assets),
	}), nil
}

func (p *OpenseaProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	_, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var resp openseaAssetContract
	err = client.Do(ctx, &clients.Request{
		Path:      "/api/v1/asset_contract/" + ref.Contract,
		ChainId:   chainId,
		Operation: "fetchCollection",
	}, &resp)
	if err != nil {
		if clients.IsNotFound(err) {
			return common.Empty[*common.Collection](), nil
		}
		return nil, err
	}
	if resp.Collection == nil {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseOpenseaCollection(ref.Contract, &resp)), nil
}

func parseOpenseaAssets(assets []*openseaAsset) []*common.TokenMetadata {
	metadata := make([]*common.TokenMetadata, 0, len(assets))
	for _, a := range assets {
		if md := parseOpenseaAsset(a); md != nil {
			metadata = append(metadata, md)
		}
	}
	return metadata
}

func parseOpenseaAsset(a *openseaAsset) *common.TokenMetadata {
	if a == nil {
		return nil
	}
	contract, err := common.NormalizeContract(a.AssetContract.Address)
	if err != nil {
		return nil
	}
	tokenId, ok := common.ParseTokenId(a.TokenId)
	if !ok {
		return nil
	}
	return &common.TokenMetadata{
		Contract:    contract,
		TokenId:     tokenId,
		Name:        a.Name,
		Collection:  contract,
		Description: a.Description,
		ImageUrl:    firstNonEmpty(a.ImageUrl, a.ImageOriginalUrl),
		MediaUrl:    a.AnimationUrl,
		Attributes:  parseTraits(a.Traits),
	}
}

func parseOpenseaCollection(contract string, ac *openseaAssetContract) *common.Collection {
	col := ac.Collection
	c := common.NewCollection(contract)
	c.Slug = slug.Make(col.Slug)
	c.Name = firstNonEmpty(col.Name, ac.Name)
	c.Metadata = common.CollectionMetadata{
		Description:     col.Description,
		ImageUrl:        col.ImageUrl,
		BannerImageUrl:  col.BannerImageUrl,
		DiscordUrl:      col.DiscordUrl,
		ExternalUrl:     col.ExternalUrl,
		TwitterUsername: col.TwitterUsername,
	}
	c.Royalties = royaltyIfPositive(ac.PayoutAddress, ac.DevSellerFeeBasisPoints)

	if col.Fees != nil && len(col.Fees.SellerFees) > 0 {
		recipients := make([]string, 0, len(col.Fees.SellerFees))
		for r := range col.Fees.SellerFees {
			recipients = append(recipients, r)
		}
		sort.Strings(recipients)
		for _, r := range recipients {
			c.OpenseaRoyalties = append(c.OpenseaRoyalties, royaltyIfPositive(r, col.Fees.SellerFees[r])...)
		}
	}
	return c
}
