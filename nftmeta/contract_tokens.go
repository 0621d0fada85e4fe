package nftmeta

import (
	"context"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/telemetry"
	"github.com/nftmeta/nftmeta/thirdparty"
	"github.com/nftmeta/nftmeta/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResolveContractTokens fetches one page of a contract's token set. The
// continuation is handed to the owner of the sequence untouched, and the next
// one is returned untouched. An Unsupported result means the provider has no
// pagination at all, not that the contract has no tokens.
func (n *NftMeta) ResolveContractTokens(
	ctx context.Context,
	chainId int64,
	provider thirdparty.Provider,
	contract string,
	continuation string,
) (*common.Result[*common.TokensPage], error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ResolveContractTokens",
		trace.WithAttributes(
			attribute.Int64("chain.id", chainId),
			attribute.String("method", provider.Name()),
			attribute.String("contract", contract),
			attribute.Bool("continuation", continuation != ""),
		),
	)
	defer span.End()

	if n.custom.HasOverride(chainId, contract) {
		page, err := n.custom.ResolveContractPage(ctx, chainId, contract, continuation)
		if err != nil {
			tracing.SetError(span, err)
			return nil, err
		}
		span.SetAttributes(attribute.String("stage", StageCustom))
		return page, nil
	}

	res, err := provider.FetchContractTokens(ctx, chainId, contract, continuation)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("stage", StageProvider))

	switch {
	case res.IsUnsupported():
		n.logger.Debug().Int64("chainId", chainId).Str("method", provider.Name()).Msg("provider does not paginate contract tokens")
		return res, nil
	case !res.IsFound() || res.Value == nil:
		return common.Found(&common.TokensPage{Metadata: []*common.TokenMetadata{}}), nil
	}

	telemetry.CounterHandle(telemetry.MetricResolvedTokensTotal, chainLabel(chainId), StageProvider).Add(float64(len(res.Value.Metadata)))

	return common.Found(&common.TokensPage{
		Continuation: res.Value.Continuation,
		Metadata:     n.extender.Tokens(ctx, chainId, res.Value.Metadata),
	}), nil
}
