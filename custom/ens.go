package custom

import (
	"context"

	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const (
	EnsContract       = "0x57f1887a8bf19b14fc0df6fd9b2acc9af147ea85"
	ensDefaultBaseUrl = "https://metadata.ens.domains"
)

// EnsHandler serves the ENS base registrar from the ENS metadata service,
// which renders names no indexer reliably carries.
type EnsHandler struct {
	logger *zerolog.Logger
	client *clients.ProviderHttpClient
}

func NewEnsHandler(logger *zerolog.Logger, cfg *common.EnsHandlerConfig) (*EnsHandler, error) {
	baseUrl := ensDefaultBaseUrl
	if cfg != nil && cfg.BaseUrl != "" {
		baseUrl = cfg.BaseUrl
	}
	lg := logger.With().Str("component", "customHandler").Str("handler", "ens").Logger()
	client, err := clients.NewProviderHttpClient(&lg, "ens", baseUrl, nil, 0)
	if err != nil {
		return nil, err
	}
	return &EnsHandler{logger: &lg, client: client}, nil
}

func (h *EnsHandler) Name() string     { return "ens" }
func (h *EnsHandler) ChainId() int64   { return 1 }
func (h *EnsHandler) Contract() string { return EnsContract }

type ensAttribute struct {
	TraitType   string      `json:"trait_type"`
	DisplayType string      `json:"display_type"`
	Value       interface{} `json:"value"`
}

type ensMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	ImageUrl    string         `json:"image_url"`
	Attributes  []ensAttribute `json:"attributes"`
}

func (h *EnsHandler) FetchToken(ctx context.Context, ref common.TokenRef) (*common.TokenMetadata, error) {
	var md ensMetadata
	err := h.client.Do(ctx, &clients.Request{
		Path:      "/mainnet/" + EnsContract + "/" + ref.TokenId,
		ChainId:   1,
		Operation: "fetchToken",
	}, &md)
	if err != nil {
		return nil, err
	}

	attrs := make([]common.Attribute, 0, len(md.Attributes))
	for _, a := range md.Attributes {
		attrs = append(attrs, common.NewAttribute(a.TraitType, a.Value))
	}
	image := md.ImageUrl
	if image == "" {
		image = md.Image
	}
	return &common.TokenMetadata{
		Contract:    EnsContract,
		TokenId:     ref.Id(),
		Name:        md.Name,
		Collection:  EnsContract,
		Description: md.Description,
		ImageUrl:    image,
		Attributes:  attrs,
	}, nil
}

func (h *EnsHandler) FetchCollection(ctx context.Context, ref common.CollectionRef) (*common.Collection, error) {
	c := common.NewCollection(EnsContract)
	c.Slug = "ens"
	c.Name = "ENS: Ethereum Name Service"
	c.Metadata = common.CollectionMetadata{
		Description:     "Ethereum Name Service (ENS) domains are secure domain names for the decentralized world.",
		ImageUrl:        "https://app.ens.domains/static/favicon-small.png",
		ExternalUrl:     "https://ens.domains",
		DiscordUrl:      "https://chat.ens.domains",
		TwitterUsername: "ensdomains",
	}
	return c, nil
}

func (h *EnsHandler) FetchContractTokens(ctx context.Context, continuation string) (*common.Result[*common.TokensPage], error) {
	return common.Unsupported[*common.TokensPage](), nil
}
