package nftmeta

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func namedCollection(contract, name string) *common.Collection {
	c := common.NewCollection(contract)
	c.Name = name
	return c
}

func TestNftMeta_ResolveCollection(t *testing.T) {
	ctx := context.Background()
	ref := common.CollectionRef{Contract: contractA, TokenId: "1"}

	t.Run("PrimaryWinsWhenItHasData", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).
			Return(common.Found(namedCollection(contractA, "From Primary")), nil).Once()

		c, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		require.NoError(t, err)
		assert.Equal(t, "From Primary", c.Name)
		f.opensea.AssertNotCalled(t, "FetchCollection", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FallsBackToSelectedProvider", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Empty[*common.Collection](), nil).Once()
		f.opensea.On("FetchCollection", mock.Anything, int64(1), ref).
			Return(common.Found(namedCollection(contractA, "From Opensea")), nil).Once()

		c, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		require.NoError(t, err)
		assert.Equal(t, "From Opensea", c.Name)
		assert.Equal(t, "contract:"+contractA, c.TokenSetId)
	})

	t.Run("PrimaryFailureIsAbsorbed", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(nil, errors.New("connection reset")).Once()
		f.opensea.On("FetchCollection", mock.Anything, int64(1), ref).
			Return(common.Found(namedCollection(contractA, "From Opensea")), nil).Once()

		c, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		require.NoError(t, err)
		assert.Equal(t, "From Opensea", c.Name)
	})

	t.Run("NothingAnywhereIsNotFound", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Empty[*common.Collection](), nil).Once()
		f.opensea.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Empty[*common.Collection](), nil).Once()

		c, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		assert.Nil(t, c)
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, common.ErrCodeCollectionNotFound))
		assert.Equal(t, http.StatusNotFound, common.StatusCodeOf(err))
	})

	t.Run("EmptyRecordCountsAsNothing", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Found(&common.Collection{}), nil).Once()
		f.opensea.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Found(&common.Collection{}), nil).Once()

		_, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		assert.True(t, common.HasErrorCode(err, common.ErrCodeCollectionNotFound))
	})

	t.Run("SelectedProviderFailurePropagates", func(t *testing.T) {
		f := newFixture(t)
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Empty[*common.Collection](), nil).Once()
		f.opensea.On("FetchCollection", mock.Anything, int64(1), ref).
			Return(nil, common.NewErrProviderMalformedResponse("opensea", errors.New("unexpected token"))).Once()

		_, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, common.ErrCodeProviderMalformedResponse))
	})

	t.Run("CustomHandlerIsExclusive", func(t *testing.T) {
		handler := &spyHandler{contract: contractC}
		f := newFixture(t, handler)
		customRef := common.CollectionRef{Contract: contractC}
		handler.On("FetchCollection", mock.Anything, customRef).Return(namedCollection(contractC, "Custom"), nil).Once()

		c, err := f.nm.ResolveCollection(ctx, 1, f.opensea, customRef)
		require.NoError(t, err)
		assert.Equal(t, "Custom", c.Name)
		f.primary.AssertNotCalled(t, "FetchCollection", mock.Anything, mock.Anything, mock.Anything)
		f.opensea.AssertNotCalled(t, "FetchCollection", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ResultIsExtended", func(t *testing.T) {
		f := newFixture(t)
		c := namedCollection(contractA, "Raw")
		c.Slug = "Raw Collection"
		c.Royalties = []common.Royalty{
			{Recipient: "0xABC", Bps: 250},
			{Recipient: "0xabc", Bps: 250},
			{Recipient: "0xdef", Bps: 0},
		}
		f.primary.On("FetchCollection", mock.Anything, int64(1), ref).Return(common.Found(c), nil).Once()

		out, err := f.nm.ResolveCollection(ctx, 1, f.opensea, ref)
		require.NoError(t, err)
		assert.Equal(t, "raw-collection", out.Slug)
		assert.Equal(t, []common.Royalty{{Recipient: "0xabc", Bps: 500}}, out.Royalties)
	})
}

func TestNftMeta_ResolveContractTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("UnsupportedIsNotAnError", func(t *testing.T) {
		f := newFixture(t)
		f.centerdev.On("FetchContractTokens", mock.Anything, int64(1), contractA, "").
			Return(common.Unsupported[*common.TokensPage](), nil).Once()

		res, err := f.nm.ResolveContractTokens(ctx, 1, f.centerdev, contractA, "")
		require.NoError(t, err)
		assert.True(t, res.IsUnsupported())
	})

	t.Run("ContinuationRoundTripsUnchanged", func(t *testing.T) {
		f := newFixture(t)
		next := "opaque/cursor==?x"
		f.opensea.On("FetchContractTokens", mock.Anything, int64(1), contractA, "prev+cursor").
			Return(common.Found(&common.TokensPage{
				Continuation: &next,
				Metadata:     []*common.TokenMetadata{tokenMd("0x00000000000000000000000000000000000000AA", 5, "five")},
			}), nil).Once()

		res, err := f.nm.ResolveContractTokens(ctx, 1, f.opensea, contractA, "prev+cursor")
		require.NoError(t, err)
		require.True(t, res.IsFound())
		require.NotNil(t, res.Value.Continuation)
		assert.Equal(t, next, *res.Value.Continuation)
		require.Len(t, res.Value.Metadata, 1)
		assert.Equal(t, contractA, res.Value.Metadata[0].Contract)
	})

	t.Run("EmptyPageHasNoContinuation", func(t *testing.T) {
		f := newFixture(t)
		f.opensea.On("FetchContractTokens", mock.Anything, int64(1), contractA, "").
			Return(common.Empty[*common.TokensPage](), nil).Once()

		res, err := f.nm.ResolveContractTokens(ctx, 1, f.opensea, contractA, "")
		require.NoError(t, err)
		require.True(t, res.IsFound())
		assert.Nil(t, res.Value.Continuation)
		assert.Empty(t, res.Value.Metadata)
	})

	t.Run("ProviderFailurePropagates", func(t *testing.T) {
		f := newFixture(t)
		f.opensea.On("FetchContractTokens", mock.Anything, int64(1), contractA, "").
			Return(nil, common.NewErrProviderThrottled("opensea", "", 4)).Once()

		_, err := f.nm.ResolveContractTokens(ctx, 1, f.opensea, contractA, "")
		assert.True(t, common.HasErrorCode(err, common.ErrCodeProviderThrottled))
	})

	t.Run("CustomPageIsReturnedAsIs", func(t *testing.T) {
		handler := &spyHandler{contract: contractC}
		f := newFixture(t, handler)
		page := common.Found(&common.TokensPage{
			Continuation: util.StringPtr("21"),
			Metadata:     []*common.TokenMetadata{tokenMd(contractC, 1, "one")},
		})
		handler.On("FetchContractTokens", mock.Anything, "1").Return(page, nil).Once()

		res, err := f.nm.ResolveContractTokens(ctx, 1, f.opensea, contractC, "1")
		require.NoError(t, err)
		assert.Same(t, page, res)
		f.opensea.AssertNotCalled(t, "FetchContractTokens", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
