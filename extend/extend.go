package extend

import (
	"context"
	"math/big"
	"strings"

	"github.com/gosimple/slug"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
)

// Extender applies the provider-agnostic normalization every record goes
// through before it is returned. Every rule is idempotent.
type Extender struct {
	logger      *zerolog.Logger
	ipfsGateway string
}

func NewExtender(logger *zerolog.Logger, cfg *common.ExtendConfig) *Extender {
	gateway := common.DefaultIpfsGateway
	if cfg != nil && cfg.IpfsGateway != "" {
		gateway = cfg.IpfsGateway
	}
	lg := logger.With().Str("component", "extender").Logger()
	return &Extender{logger: &lg, ipfsGateway: gateway}
}

// Token returns a normalized copy of md; the input is left untouched.
func (e *Extender) Token(ctx context.Context, chainId int64, md *common.TokenMetadata) *common.TokenMetadata {
	if md == nil {
		return nil
	}
	out := *md
	out.Contract = strings.ToLower(strings.TrimSpace(md.Contract))
	out.Collection = strings.ToLower(strings.TrimSpace(md.Collection))
	if out.Collection == "" {
		out.Collection = out.Contract
	}
	if md.TokenId != nil {
		out.TokenId = new(big.Int).Set(md.TokenId)
	}
	out.ImageUrl = e.resolveUrl(md.ImageUrl)
	out.MediaUrl = e.resolveUrl(md.MediaUrl)
	out.Attributes = normalizeAttributes(md.Attributes)

	e.logger.Trace().Int64("chainId", chainId).Str("token", out.Ref().String()).Msg("extended token metadata")
	return &out
}

func (e *Extender) Tokens(ctx context.Context, chainId int64, mds []*common.TokenMetadata) []*common.TokenMetadata {
	out := make([]*common.TokenMetadata, 0, len(mds))
	for _, md := range mds {
		if ext := e.Token(ctx, chainId, md); ext != nil {
			out = append(out, ext)
		}
	}
	return out
}

// Collection returns a normalized copy of c. The token set id is always
// recomputed from contract and range, never trusted from the input.
func (e *Extender) Collection(ctx context.Context, chainId int64, c *common.Collection) *common.Collection {
	if c == nil {
		return nil
	}
	out := *c
	out.Contract = strings.ToLower(strings.TrimSpace(c.Contract))
	out.Id = strings.ToLower(strings.TrimSpace(c.Id))
	if out.Id == "" {
		out.Id = out.Contract
	}
	if out.Contract == "" {
		out.Contract = out.Id
	}
	if c.Slug != "" {
		out.Slug = slug.Make(c.Slug)
	}
	out.Metadata.ImageUrl = e.resolveUrl(c.Metadata.ImageUrl)
	out.Metadata.BannerImageUrl = e.resolveUrl(c.Metadata.BannerImageUrl)
	out.Royalties = mergeRoyalties(c.Royalties)
	out.OpenseaRoyalties = mergeRoyalties(c.OpenseaRoyalties)
	if c.TokenIdRange != nil && c.TokenIdRange[0] != nil && c.TokenIdRange[1] != nil {
		rng := common.TokenIdRange{new(big.Int).Set(c.TokenIdRange[0]), new(big.Int).Set(c.TokenIdRange[1])}
		out.TokenIdRange = &rng
	} else {
		out.TokenIdRange = nil
	}
	out.TokenSetId = common.DeriveTokenSetId(out.Contract, out.TokenIdRange)

	e.logger.Trace().Int64("chainId", chainId).Str("collection", out.Id).Msg("extended collection metadata")
	return &out
}

// resolveUrl routes ipfs:// references through the configured gateway.
func (e *Extender) resolveUrl(u string) string {
	u = strings.TrimSpace(u)
	if !strings.HasPrefix(u, "ipfs://") {
		return u
	}
	path := strings.TrimPrefix(u, "ipfs://")
	path = strings.TrimPrefix(path, "ipfs/")
	return e.ipfsGateway + path
}

func normalizeAttributes(attrs []common.Attribute) []common.Attribute {
	out := make([]common.Attribute, 0, len(attrs))
	for _, a := range attrs {
		key := strings.TrimSpace(a.Key)
		if key == "" {
			continue
		}
		rank := a.Rank
		if rank == 0 {
			rank = 1
		}
		out = append(out, common.Attribute{
			Key:   key,
			Value: a.Value,
			Kind:  common.KindOf(a.Value),
			Rank:  rank,
		})
	}
	return out
}

// mergeRoyalties folds entries for the same recipient into one, keeping the
// order in which recipients first appear.
func mergeRoyalties(royalties []common.Royalty) []common.Royalty {
	out := make([]common.Royalty, 0, len(royalties))
	index := map[string]int{}
	for _, r := range royalties {
		if r.Bps <= 0 {
			continue
		}
		recipient := strings.ToLower(strings.TrimSpace(r.Recipient))
		if recipient == "" {
			continue
		}
		if i, ok := index[recipient]; ok {
			out[i].Bps += r.Bps
			continue
		}
		index[recipient] = len(out)
		out = append(out, common.Royalty{Recipient: recipient, Bps: r.Bps})
	}
	return out
}
