package thirdparty

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimplehash(t *testing.T) *SimplehashProvider {
	t.Helper()
	p, err := NewSimplehashProvider(util.TestLogger(), &common.ProviderConfig{ApiKey: "sh"})
	require.NoError(t, err)
	return p
}

func simplehashNftJson(tokenId string) map[string]interface{} {
	return map[string]interface{}{
		"contract_address": testContract,
		"token_id":         tokenId,
		"name":             "Hash " + tokenId,
		"image_url":        "https://raw/" + tokenId,
		"previews":         map[string]interface{}{"image_medium_url": "https://medium/" + tokenId},
		"extra_metadata": map[string]interface{}{
			"attributes": []interface{}{
				map[string]interface{}{"trait_type": "Power", "value": 9000},
			},
		},
		"collection": map[string]interface{}{
			"name": "Hashes",
			"marketplace_pages": []interface{}{
				map[string]interface{}{"marketplace_id": "opensea", "marketplace_collection_id": "hashes-official"},
			},
			"royalty": []interface{}{
				map[string]interface{}{
					"source":     "opensea",
					"recipients": []interface{}{map[string]interface{}{"address": "0x00000000000000000000000000000000000000ee", "basis_points": 100}},
				},
				map[string]interface{}{
					"source":     "erc2981",
					"recipients": []interface{}{map[string]interface{}{"address": "0x00000000000000000000000000000000000000ff", "basis_points": 500}},
				},
			},
		},
	}
}

func TestSimplehash_FetchTokens(t *testing.T) {
	util.ResetGock()
	defer util.ResetGock()

	gock.New(simplehashDefaultBaseUrl).
		Get("/api/v0/nfts/assets").
		MatchHeader("X-API-KEY", "sh").
		MatchParam("nft_ids", "optimism."+testContract+".3").
		Reply(200).
		JSON(map[string]interface{}{"nfts": []interface{}{simplehashNftJson("3")}})

	res, err := newSimplehash(t).FetchTokens(context.Background(), 10, []common.TokenRef{{Contract: testContract, TokenId: "3"}})
	require.NoError(t, err)
	require.True(t, res.IsFound())

	md := res.Value[0]
	assert.Equal(t, "https://medium/3", md.ImageUrl)
	assert.Equal(t, common.AttributeKindNumber, md.Attributes[0].Kind)
}

func TestSimplehash_FetchContractTokens(t *testing.T) {
	util.ResetGock()
	defer util.ResetGock()

	gock.New(simplehashDefaultBaseUrl).
		Get("/api/v0/nfts/ethereum/"+testContract).
		MatchParam("cursor", "c1").
		Reply(200).
		JSON(map[string]interface{}{
			"next_cursor": "c2",
			"nfts":        []interface{}{simplehashNftJson("1"), simplehashNftJson("2")},
		})

	res, err := newSimplehash(t).FetchContractTokens(context.Background(), 1, testContract, "c1")
	require.NoError(t, err)
	require.True(t, res.IsFound())
	assert.Equal(t, "c2", *res.Value.Continuation)
	assert.Len(t, res.Value.Metadata, 2)
}

func TestSimplehash_FetchCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("ThroughRepresentativeToken", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(simplehashDefaultBaseUrl).
			Get("/api/v0/nfts/ethereum/" + testContract + "/4").
			Reply(200).
			JSON(simplehashNftJson("4"))

		res, err := newSimplehash(t).FetchCollection(ctx, 1, common.CollectionRef{Contract: testContract, TokenId: "4"})
		require.NoError(t, err)
		require.True(t, res.IsFound())

		c := res.Value
		assert.Equal(t, "Hashes", c.Name)
		assert.Equal(t, "hashes-official", c.Slug)
		assert.Equal(t, []common.Royalty{{Recipient: "0x00000000000000000000000000000000000000ff", Bps: 500}}, c.Royalties)
		assert.Equal(t, []common.Royalty{{Recipient: "0x00000000000000000000000000000000000000ee", Bps: 100}}, c.OpenseaRoyalties)
	})

	t.Run("FirstTokenWhenNoneGiven", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(simplehashDefaultBaseUrl).
			Get("/api/v0/nfts/ethereum/"+testContract).
			MatchParam("limit", "1").
			Reply(200).
			JSON(map[string]interface{}{"nfts": []interface{}{}})

		res, err := newSimplehash(t).FetchCollection(ctx, 1, common.CollectionRef{Contract: testContract})
		require.NoError(t, err)
		assert.Equal(t, common.FetchStatusEmpty, res.Status)
	})
}
