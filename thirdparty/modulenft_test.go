package thirdparty

import (
	"context"
	"math/big"
	"testing"

	"github.com/h2non/gock"
	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModulenft(t *testing.T) *ModulenftProvider {
	t.Helper()
	p, err := NewModulenftProvider(util.TestLogger(), &common.ProviderConfig{ApiKey: "mk"})
	require.NoError(t, err)
	return p
}

func TestModulenft_FetchTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("ParsesBatchAndPrefersCachedImage", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(modulenftDefaultBaseUrl).
			Get("/api/v2/eth/nft/batchGetToken").
			MatchHeader("X-API-KEY", "mk").
			MatchParam("token", testContract+":1,"+testContract+":2").
			Reply(200).
			JSON([]interface{}{
				map[string]interface{}{
					"originalRequest": testContract + ":1",
					"data": map[string]interface{}{
						"metadata": map[string]interface{}{
							"name":          "One",
							"image":         "ipfs://raw",
							"image_cached":  "https://cdn/1.png",
							"animation_url": "https://cdn/1.mp4",
							"attributes": []interface{}{
								map[string]interface{}{"trait_type": "Level", "value": 3},
							},
						},
					},
				},
				map[string]interface{}{
					"originalRequest": testContract + ":2",
					"data":            nil,
				},
			})

		res, err := newModulenft(t).FetchTokens(ctx, 1, []common.TokenRef{
			{Contract: testContract, TokenId: "1"},
			{Contract: testContract, TokenId: "2"},
		})
		require.NoError(t, err)
		require.True(t, res.IsFound())
		require.Len(t, res.Value, 1)

		md := res.Value[0]
		assert.Equal(t, testContract, md.Contract)
		assert.Equal(t, 0, md.TokenId.Cmp(big.NewInt(1)))
		assert.Equal(t, "https://cdn/1.png", md.ImageUrl)
		assert.Equal(t, "https://cdn/1.mp4", md.MediaUrl)
		assert.Equal(t, []common.Attribute{{Key: "Level", Value: float64(3), Kind: common.AttributeKindNumber, Rank: 1}}, md.Attributes)
	})

	t.Run("OnlyMainnet", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		_, err := newModulenft(t).FetchTokens(ctx, 137, []common.TokenRef{{Contract: testContract, TokenId: "1"}})
		assert.True(t, common.HasErrorCode(err, common.ErrCodeUnsupportedChain))
		assert.False(t, gock.HasUnmatchedRequest())
	})

	t.Run("ServerErrorIsReturned", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(modulenftDefaultBaseUrl).
			Get("/api/v2/eth/nft/batchGetToken").
			Reply(500)

		_, err := newModulenft(t).FetchTokens(ctx, 1, []common.TokenRef{{Contract: testContract, TokenId: "1"}})
		assert.True(t, common.HasErrorCode(err, common.ErrCodeProviderRequest))
	})
}

func TestModulenft_FetchCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("MapsFeesToRoyalties", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(modulenftDefaultBaseUrl).
			Get("/api/v2/eth/nft/collection").
			MatchParam("contractAddress", testContract).
			Reply(200).
			JSON(map[string]interface{}{
				"data": map[string]interface{}{
					"name":        "Cool Cats",
					"slug":        "Cool Cats NFT",
					"description": "cats",
					"images":      map[string]interface{}{"image_url": "https://img", "banner_image_url": "https://banner"},
					"socials":     map[string]interface{}{"discord_url": "https://discord", "twitter_username": "coolcats"},
					"fees":        map[string]interface{}{"sellerFee": 500, "sellerFeeAddress": "0x00000000000000000000000000000000000000AA"},
				},
			})

		res, err := newModulenft(t).FetchCollection(ctx, 1, common.CollectionRef{Contract: testContract})
		require.NoError(t, err)
		require.True(t, res.IsFound())

		c := res.Value
		assert.Equal(t, testContract, c.Id)
		assert.Equal(t, "cool-cats-nft", c.Slug)
		assert.Equal(t, "Cool Cats", c.Name)
		assert.Nil(t, c.Community)
		assert.Equal(t, "https://banner", c.Metadata.BannerImageUrl)
		assert.Equal(t, "coolcats", c.Metadata.TwitterUsername)
		assert.Equal(t, []common.Royalty{{Recipient: "0x00000000000000000000000000000000000000aa", Bps: 500}}, c.Royalties)
		assert.Empty(t, c.OpenseaRoyalties)
		assert.Equal(t, "contract:"+testContract, c.TokenSetId)
	})

	t.Run("NoFeeAddressMeansNoRoyalties", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(modulenftDefaultBaseUrl).
			Get("/api/v2/eth/nft/collection").
			Reply(200).
			JSON(map[string]interface{}{
				"data": map[string]interface{}{
					"name": "x",
					"fees": map[string]interface{}{"sellerFee": 500, "sellerFeeAddress": ""},
				},
			})

		res, err := newModulenft(t).FetchCollection(ctx, 1, common.CollectionRef{Contract: testContract})
		require.NoError(t, err)
		assert.Empty(t, res.Value.Royalties)
	})

	t.Run("MissingDataIsEmpty", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(modulenftDefaultBaseUrl).
			Get("/api/v2/eth/nft/collection").
			Reply(404)

		res, err := newModulenft(t).FetchCollection(ctx, 1, common.CollectionRef{Contract: testContract})
		require.NoError(t, err)
		assert.Equal(t, common.FetchStatusEmpty, res.Status)
	})
}

func TestModulenft_ContractPaginationUnsupported(t *testing.T) {
	res, err := newModulenft(t).FetchContractTokens(context.Background(), 1, testContract, "")
	require.NoError(t, err)
	assert.True(t, res.IsUnsupported())
}
