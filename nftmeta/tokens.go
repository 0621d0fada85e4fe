package nftmeta

import (
	"context"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/telemetry"
	"github.com/nftmeta/nftmeta/thirdparty"
	"github.com/nftmeta/nftmeta/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	StagePrimary  = "primary"
	StageProvider = "provider"
	StageCustom   = "custom"
)

const customTokensConcurrency = 8

// ResolveTokens runs the staged fallback chain for a list of tokens:
// primary indexer pre-pass, then the selected provider on the residue, then
// custom handlers for overridden contracts. Results are concatenated in that
// order. Tokens nobody could resolve are simply absent.
func (n *NftMeta) ResolveTokens(
	ctx context.Context,
	chainId int64,
	provider thirdparty.Provider,
	refs []common.TokenRef,
) ([]*common.TokenMetadata, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ResolveTokens",
		trace.WithAttributes(
			attribute.Int64("chain.id", chainId),
			attribute.String("method", provider.Name()),
			attribute.Int("tokens.count", len(refs)),
		),
	)
	defer span.End()

	refs = dedupeRefs(refs)

	var overridden, generic []common.TokenRef
	for _, ref := range refs {
		if n.custom.HasOverride(chainId, ref.Contract) {
			overridden = append(overridden, ref)
		} else {
			generic = append(generic, ref)
		}
	}

	lg := n.logger.With().
		Int64("chainId", chainId).
		Str("method", provider.Name()).
		Int("generic", len(generic)).
		Int("overridden", len(overridden)).
		Logger()
	lg.Debug().Msg("resolving tokens")

	fromPrimary, remaining := n.primaryPrePass(ctx, chainId, generic)

	if max := provider.MaxBatchSize(); max > 0 && len(remaining) > max {
		err := common.NewErrBatchTooLarge(provider.Name(), len(remaining), max)
		tracing.SetError(span, err)
		return nil, err
	}

	var fromProvider []*common.TokenMetadata
	if len(remaining) > 0 {
		res, err := provider.FetchTokens(ctx, chainId, remaining)
		if err != nil {
			tracing.SetError(span, err)
			return nil, err
		}
		if res.IsFound() {
			fromProvider, _ = matchRequested(remaining, res.Value)
		}
	}

	fromCustom, err := n.resolveCustomTokens(ctx, chainId, overridden)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	chain := chainLabel(chainId)
	telemetry.CounterHandle(telemetry.MetricResolvedTokensTotal, chain, StagePrimary).Add(float64(len(fromPrimary)))
	telemetry.CounterHandle(telemetry.MetricResolvedTokensTotal, chain, StageProvider).Add(float64(len(fromProvider)))
	telemetry.CounterHandle(telemetry.MetricResolvedTokensTotal, chain, StageCustom).Add(float64(len(fromCustom)))

	result := make([]*common.TokenMetadata, 0, len(fromPrimary)+len(fromProvider)+len(fromCustom))
	result = append(result, n.extender.Tokens(ctx, chainId, fromPrimary)...)
	result = append(result, n.extender.Tokens(ctx, chainId, fromProvider)...)
	result = append(result, n.extender.Tokens(ctx, chainId, fromCustom)...)

	lg.Debug().
		Int("primary", len(fromPrimary)).
		Int("provider", len(fromProvider)).
		Int("custom", len(fromCustom)).
		Msg("tokens resolved")
	span.SetAttributes(attribute.Int("tokens.resolved", len(result)))

	return result, nil
}

// primaryPrePass asks the primary indexer for every generic ref and returns
// what it matched plus the refs still left to resolve. It never fails: any
// error is absorbed and treated as zero matches.
func (n *NftMeta) primaryPrePass(
	ctx context.Context,
	chainId int64,
	refs []common.TokenRef,
) ([]*common.TokenMetadata, []common.TokenRef) {
	primary := n.providers.Primary()
	if primary == nil || len(refs) == 0 {
		return nil, refs
	}
	if !primary.SupportsChain(chainId) {
		n.logger.Trace().Int64("chainId", chainId).Str("primary", primary.Name()).Msg("primary indexer does not serve this chain")
		return nil, refs
	}

	ctx, span := tracing.StartSpan(ctx, "Resolver.PrimaryPrePass",
		trace.WithAttributes(attribute.String("provider", primary.Name())),
	)
	defer span.End()

	res, err := primary.FetchTokens(ctx, chainId, refs)
	if err != nil {
		tracing.SetError(span, err)
		n.absorb(chainId, StagePrimary, err)
		return nil, refs
	}
	if !res.IsFound() {
		return nil, refs
	}

	return matchRequested(refs, res.Value)
}

// matchRequested keeps the first record for each requested ref, comparing by
// contract and numeric token id, and reports the refs left without a record.
// Records for tokens nobody asked for are dropped.
func matchRequested(refs []common.TokenRef, mds []*common.TokenMetadata) ([]*common.TokenMetadata, []common.TokenRef) {
	resolved := make([]bool, len(refs))
	matched := make([]*common.TokenMetadata, 0, len(mds))
	for _, md := range mds {
		for i, ref := range refs {
			if !resolved[i] && ref.Matches(md) {
				resolved[i] = true
				matched = append(matched, md)
				break
			}
		}
	}

	remaining := make([]common.TokenRef, 0, len(refs)-len(matched))
	for i, ref := range refs {
		if !resolved[i] {
			remaining = append(remaining, ref)
		}
	}
	return matched, remaining
}

// resolveCustomTokens fans out over the overridden refs. Handlers are
// authoritative, so the first failure fails the request.
func (n *NftMeta) resolveCustomTokens(
	ctx context.Context,
	chainId int64,
	refs []common.TokenRef,
) ([]*common.TokenMetadata, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	slots := make([]*common.TokenMetadata, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(customTokensConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			md, err := n.custom.ResolveToken(gctx, chainId, ref)
			if err != nil {
				return err
			}
			slots[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*common.TokenMetadata, 0, len(slots))
	for _, md := range slots {
		if md != nil {
			out = append(out, md)
		}
	}
	return out, nil
}

func dedupeRefs(refs []common.TokenRef) []common.TokenRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]common.TokenRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out
}
