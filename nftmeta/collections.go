package nftmeta

import (
	"context"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/thirdparty"
	"github.com/nftmeta/nftmeta/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResolveCollection returns the first non-empty collection record from the
// custom handler (exclusive when one exists), the primary indexer, then the
// selected provider. Fields are never merged across stages.
func (n *NftMeta) ResolveCollection(
	ctx context.Context,
	chainId int64,
	provider thirdparty.Provider,
	ref common.CollectionRef,
) (*common.Collection, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ResolveCollection",
		trace.WithAttributes(
			attribute.Int64("chain.id", chainId),
			attribute.String("method", provider.Name()),
			attribute.String("contract", ref.Contract),
		),
	)
	defer span.End()

	if n.custom.HasOverride(chainId, ref.Contract) {
		c, err := n.custom.ResolveCollection(ctx, chainId, ref)
		if err != nil {
			tracing.SetError(span, err)
			return nil, err
		}
		if c == nil {
			err := common.NewErrCollectionNotFound(chainId, ref.Contract)
			tracing.SetError(span, err)
			return nil, err
		}
		span.SetAttributes(attribute.String("stage", StageCustom))
		return n.extender.Collection(ctx, chainId, c), nil
	}

	if c := n.primaryCollection(ctx, chainId, ref); c != nil {
		span.SetAttributes(attribute.String("stage", StagePrimary))
		return n.extender.Collection(ctx, chainId, c), nil
	}

	res, err := provider.FetchCollection(ctx, chainId, ref)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	if !res.IsFound() || res.Value == nil || res.Value.IsEmpty() {
		err := common.NewErrCollectionNotFound(chainId, ref.Contract)
		tracing.SetError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("stage", StageProvider))
	return n.extender.Collection(ctx, chainId, res.Value), nil
}

func (n *NftMeta) primaryCollection(ctx context.Context, chainId int64, ref common.CollectionRef) *common.Collection {
	primary := n.providers.Primary()
	if primary == nil || !primary.SupportsChain(chainId) {
		return nil
	}
	res, err := primary.FetchCollection(ctx, chainId, ref)
	if err != nil {
		n.absorb(chainId, StagePrimary, err)
		return nil
	}
	if !res.IsFound() || res.Value == nil || res.Value.IsEmpty() {
		return nil
	}
	return res.Value
}
