package thirdparty

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/clients"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

const soundxyzDefaultBaseUrl = "https://api.sound.xyz"

const soundxyzReleaseQuery = `query ReleaseFromToken($input: ReleaseFromTokenInput!) {
  releaseFromToken(input: $input) {
    id
    title
    titleSlug
    description
    behindTheMusic
    externalUrl
    coverImage { url }
    goldenEggImage { url }
    eggGame { goldenEggTokenId }
    track { revealedAudio { url } }
    artist { name user { publicAddress } }
    royaltyBps
    fundingAddress
  }
}`

// SoundxyzProvider resolves tokens one GraphQL call at a time, since the API
// has no batch lookup.
type SoundxyzProvider struct {
	*baseProvider
}

func NewSoundxyzProvider(logger *zerolog.Logger, cfg *common.ProviderConfig) (*SoundxyzProvider, error) {
	base, err := newBaseProvider(logger, "soundxyz", cfg, 0, map[int64]chainEndpoint{
		1: {network: "mainnet", baseUrl: soundxyzDefaultBaseUrl, withApiKey: true},
		5: {network: "goerli", baseUrl: "https://staging.api.sound.xyz", withApiKey: true},
	}, "X-Sound-Client-Key")
	if err != nil {
		return nil, err
	}
	return &SoundxyzProvider{baseProvider: base}, nil
}

type soundxyzUrl struct {
	Url string `json:"url"`
}

type soundxyzRelease struct {
	Id             string       `json:"id"`
	Title          string       `json:"title"`
	TitleSlug      string       `json:"titleSlug"`
	Description    string       `json:"description"`
	BehindTheMusic string       `json:"behindTheMusic"`
	ExternalUrl    string       `json:"externalUrl"`
	CoverImage     *soundxyzUrl `json:"coverImage"`
	GoldenEggImage *soundxyzUrl `json:"goldenEggImage"`
	EggGame        *struct {
		GoldenEggTokenId string `json:"goldenEggTokenId"`
	} `json:"eggGame"`
	Track *struct {
		RevealedAudio *soundxyzUrl `json:"revealedAudio"`
	} `json:"track"`
	Artist *struct {
		Name string `json:"name"`
		User *struct {
			PublicAddress string `json:"publicAddress"`
		} `json:"user"`
	} `json:"artist"`
	RoyaltyBps     int    `json:"royaltyBps"`
	FundingAddress string `json:"fundingAddress"`
}

type soundxyzResponse struct {
	Data *struct {
		ReleaseFromToken *soundxyzRelease `json:"releaseFromToken"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *SoundxyzProvider) fetchRelease(ctx context.Context, chainId int64, contract string, tokenId string, operation string) (*soundxyzRelease, error) {
	_, client, err := p.endpoint(chainId)
	if err != nil {
		return nil, err
	}

	var resp soundxyzResponse
	err = client.Do(ctx, &clients.Request{
		Method: "POST",
		Path:   "/graphql",
		Body: map[string]interface{}{
			"query": soundxyzReleaseQuery,
			"variables": map[string]interface{}{
				"input": map[string]interface{}{
					"contractAddress": contract,
					"tokenId":         tokenId,
				},
			},
		},
		ChainId:   chainId,
		Operation: operation,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil && len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, common.NewErrProviderRequest(p.name, 0, errors.New(strings.Join(msgs, "; ")), nil)
	}
	if resp.Data == nil {
		return nil, nil
	}
	return resp.Data.ReleaseFromToken, nil
}

func (p *SoundxyzProvider) FetchTokens(ctx context.Context, chainId int64, refs []common.TokenRef) (*common.Result[[]*common.TokenMetadata], error) {
	if !p.SupportsChain(chainId) {
		return nil, common.NewErrUnsupportedChain(p.name, chainId)
	}

	metadata := make([]*common.TokenMetadata, 0, len(refs))
	for _, ref := range refs {
		release, err := p.fetchRelease(ctx, chainId, ref.Contract, ref.TokenId, "fetchTokens")
		if err != nil {
			return nil, err
		}
		if md := parseSoundxyzRelease(ref, release); md != nil {
			metadata = append(metadata, md)
		}
	}
	if len(metadata) == 0 {
		return common.Empty[[]*common.TokenMetadata](), nil
	}
	return common.Found(metadata), nil
}

func (p *SoundxyzProvider) FetchContractTokens(ctx context.Context, chainId int64, contract string, continuation string) (*common.Result[*common.TokensPage], error) {
	return common.Unsupported[*common.TokensPage](), nil
}

func (p *SoundxyzProvider) FetchCollection(ctx context.Context, chainId int64, ref common.CollectionRef) (*common.Result[*common.Collection], error) {
	tokenId := ref.TokenId
	if tokenId == "" {
		tokenId = "1"
	}
	release, err := p.fetchRelease(ctx, chainId, ref.Contract, tokenId, "fetchCollection")
	if err != nil {
		return nil, err
	}
	if release == nil {
		return common.Empty[*common.Collection](), nil
	}
	return common.Found(parseSoundxyzCollection(ref.Contract, release)), nil
}

func parseSoundxyzRelease(ref common.TokenRef, r *soundxyzRelease) *common.TokenMetadata {
	if r == nil {
		return nil
	}
	md := &common.TokenMetadata{
		Contract:    ref.Contract,
		TokenId:     ref.Id(),
		Name:        r.Title,
		Collection:  ref.Contract,
		Description: firstNonEmpty(r.BehindTheMusic, r.Description),
		Attributes:  []common.Attribute{},
	}
	if r.CoverImage != nil {
		md.ImageUrl = r.CoverImage.Url
	}
	if r.Track != nil && r.Track.RevealedAudio != nil {
		md.MediaUrl = r.Track.RevealedAudio.Url
	}
	if r.Artist != nil && r.Artist.Name != "" {
		md.Attributes = append(md.Attributes, common.NewAttribute("Artist", r.Artist.Name))
	}

	isGoldenEgg := false
	if r.EggGame != nil && r.EggGame.GoldenEggTokenId != "" {
		if id, ok := common.ParseTokenId(r.EggGame.GoldenEggTokenId); ok && md.TokenId != nil && id.Cmp(md.TokenId) == 0 {
			isGoldenEgg = true
		}
	}
	if isGoldenEgg {
		md.Attributes = append(md.Attributes, common.NewAttribute("Golden Egg", "Yes"))
		if r.GoldenEggImage != nil && r.GoldenEggImage.Url != "" {
			md.ImageUrl = r.GoldenEggImage.Url
		}
	}
	return md
}

func parseSoundxyzCollection(contract string, r *soundxyzRelease) *common.Collection {
	c := common.NewCollection(contract)
	c.Name = r.Title
	c.Slug = slug.Make(firstNonEmpty(r.TitleSlug, r.Title))
	c.Metadata = common.CollectionMetadata{
		Description: firstNonEmpty(r.BehindTheMusic, r.Description),
		ExternalUrl: r.ExternalUrl,
	}
	if r.CoverImage != nil {
		c.Metadata.ImageUrl = r.CoverImage.Url
	}
	c.Royalties = royaltyIfPositive(r.FundingAddress, r.RoyaltyBps)
	return c
}
