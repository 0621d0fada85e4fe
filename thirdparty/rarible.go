package thirdparty

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const (
	raribleDefaultBaseUrl  = "https://api.rarible.org"
	raribleDefaultMaxBatch = 50
	rariblePageSize        = 50
)

type RaribleProvider struct {
	*baseProvider
}

func NewRaribleProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*RaribleProvider, error) {
	base, err := newBaseProvider(logger, "rarible", cfg, raribleDefaultMaxBatch, map[int64]chainEndpoint{
		1:   {network: "ETHEREUM", baseUrl: raribleDefaultBaseUrl, withApiKey: true},
		5:   {network: "ETHEREUM", baseUrl: "https://testnet-api.rarible.org"},
		10:  {network: "OPTIMISM", baseUrl: raribleDefaultBaseUrl, withApiKey: true},
		137: {network: "POLYGON", baseUrl: raribleDefaultBaseUrl, withApiKey: true},
	}, "X-API-KEY")
	if err != nil {
		return nil, err
	}
	return &RaribleProvider{baseProvider: base}, nil
}

type raribleContent struct {
	Type           string `json:"@type"`
	Url            string `json:"url"`
	Representation string `json:"representation"`
}

type raribleAttribute struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type raribleItem struct {
	Id       string `json:"id"`
	Contract string `json:"contract"`
	TokenId  string `json:"tokenId"`
	Meta     *struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Attributes  []raribleAttribute `json:"attributes"`
		Content     []raribleContent   `json:"content"`
	} `json:"meta"`
}

type raribleItemsResponse struct {
	Continuation string         `json:"continuation"`
	Items        []*raribleItem `json:"items"`
}

type raribleCollection struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Meta *struct {
		Name                 string           `json:"name"`
		Description          string           `json:"description"`
		Content              []raribleContent `json:"content"`
		ExternalLink         string           `json:"externalLink"`
		SellerFeeBasisPoints int              `json:"sellerFeeBasisPoints"`
		FeeRecipient         string           `json:"feeRecipient"`
	} `json:"meta"`
}

func (p *RaribleProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, network+":"+ref.String())
	}

	var resp raribleItemsResponse
	err = client.Do(ctx, &clients.Request{
		Method:    "POST",
		Path:      "/v0.1/items/byIds",
		Body:      map[string]interface{}{"ids": ids},
		ChainId:   chainId,
		Operation: "fetchTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	metadata := parseRaribleItems(resp.Items)
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *RaribleProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"collection": []string{network + ":" + contract},
		"size":       []string{strconv.Itoa(rariblePageSize)},
	}
	if continuation != "" {
		query.Set("continuation", continuation)
	}

	var resp raribleItemsResponse
	err = client.Do(ctx, &clients.Request{
		Path:      "/v0.1/items/byCollection",
		Query:     query,
		ChainId:   chainId,
		Operation: "fetchContractTokens",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return common.Found(&common.TokensPage{
		Continuation: continuationOf(resp.Continuation),
		Metadata:     parseRaribleItems(resp.Items),
	}), nil
}

func (p *RaribleProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	network, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var resp raribleCollection
	err = client.Do(ctx, &clients.Request{
		Path:      "/v0.1/collections/" + network + ":" + ref.Contract,
		ChainId:   chainId,
		Operation: "fetchCollection",
	}, &resp)
	if err != nil {
		if clients.IsNotFound(err) {
			return common.Empty[*common.Collection](), nil
		}
		return nil, err
	}
	if resp.Id == "" && resp.Name == "" {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseRaribleCollection(ref.Contract, &resp)), nil
}

// stripBlockchain turns "ETHEREUM:0xabc" into "0xabc".
func stripBlockchain(v string) string {
	if i := strings.Index(v, ":"); i >= 0 {
		return v[i+1:]
	}
	return v
}

func parseRaribleItems(items []*raribleItem) []*common.TokenMetadata {
	metadata := make([]*common.TokenMetadata, 0, len(items))
	for _, it := range items {
		if md := parseRaribleItem(it); md != nil {
			metadata = append(metadata, md)
		}
	}
	return metadata
}

func parseRaribleItem(it *raribleItem) *common.TokenMetadata {
	if it == nil {
		return nil
	}
	contract, err := common.NormalizeContract(stripBlockchain(it.Contract))
	if err != nil {
		return nil
	}
	tokenId, ok := common.ParseTokenId(it.TokenId)
	if !ok {
		return nil
	}
	md := &common.TokenMetadata{
		Contract:   contract,
		TokenId:    tokenId,
		Collection: contract,
		Attributes: []common.Attribute{},
	}
	if it.Meta == nil {
		return md
	}
	md.Name = it.Meta.Name
	md.Description = it.Meta.Description
	md.ImageUrl = raribleContentUrl(it.Meta.Content, "IMAGE")
	md.MediaUrl = raribleContentUrl(it.Meta.Content, "VIDEO")
	for _, a := range it.Meta.Attributes {
		md.Attributes = append(md.Attributes, common.NewAttribute(a.Key, a.Value))
	}
	return md
}

// raribleContentUrl prefers the resized representations over the original upload.
func raribleContentUrl(content []raribleContent, kind string) string {
	byRepresentation := map[string]string{}
	for _, c := range content {
		if c.Type != kind || c.Url == "" {
			continue
		}
		if _, seen := byRepresentation[c.Representation]; !seen {
			byRepresentation[c.Representation] = c.Url
		}
	}
	return firstNonEmpty(byRepresentation["BIG"], byRepresentation["PREVIEW"], byRepresentation["ORIGINAL"])
}

func parseRaribleCollection(contract string, rc *raribleCollection) *common.Collection {
	c := common.NewCollection(contract)
	c.Name = rc.Name
	if rc.Meta != nil {
		c.Name = firstNonEmpty(rc.Meta.Name, rc.Name)
		c.Metadata = common.CollectionMetadata{
			Description: rc.Meta.Description,
			ImageUrl:    raribleContentUrl(rc.Meta.Content, "IMAGE"),
			ExternalUrl: rc.Meta.ExternalLink,
		}
		c.Royalties = royaltyIfPositive(stripBlockchain(rc.Meta.FeeRecipient), rc.Meta.SellerFeeBasisPoints)
	}
	c.Slug = slug.Make(c.Name)
	return c
}
