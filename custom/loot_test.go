package custom

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLootReader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeLootReader) TokenURI(ctx context.Context, tokenId *big.Int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	payload := fmt.Sprintf(`{"name":"Bag #%s","description":"Loot bag","image":"data:image/svg+xml;base64,PHN2Zz4="}`, tokenId)
	return lootDataUri + base64.StdEncoding.EncodeToString([]byte(payload)), nil
}

func (f *fakeLootReader) Item(ctx context.Context, slot string, tokenId *big.Int) (string, error) {
	return fmt.Sprintf("%s of %s", slot, tokenId), nil
}

func TestLootHandler_FetchToken(t *testing.T) {
	h := NewLootHandler(util.TestLogger(), &fakeLootReader{}, 5)

	md, err := h.FetchToken(context.Background(), common.TokenRef{Contract: LootContract, TokenId: "7"})
	require.NoError(t, err)
	assert.Equal(t, "Bag #7", md.Name)
	assert.Equal(t, "data:image/svg+xml;base64,PHN2Zz4=", md.ImageUrl)
	require.Len(t, md.Attributes, len(lootSlots))
	assert.Equal(t, common.Attribute{Key: "Weapon", Value: "Weapon of 7", Kind: common.AttributeKindString, Rank: 1}, md.Attributes[0])

	_, err = h.FetchToken(context.Background(), common.TokenRef{Contract: LootContract, TokenId: "8001"})
	assert.Error(t, err)
}

func TestLootHandler_FetchContractTokens(t *testing.T) {
	reader := &fakeLootReader{}
	h := NewLootHandler(util.TestLogger(), reader, 3)
	ctx := context.Background()

	t.Run("FirstPage", func(t *testing.T) {
		res, err := h.FetchContractTokens(ctx, "")
		require.NoError(t, err)
		require.True(t, res.IsFound())
		require.Len(t, res.Value.Metadata, 3)
		assert.Equal(t, "1", res.Value.Metadata[0].TokenId.String())
		assert.Equal(t, "3", res.Value.Metadata[2].TokenId.String())
		require.NotNil(t, res.Value.Continuation)
		assert.Equal(t, "4", *res.Value.Continuation)
	})

	t.Run("LastPageHasNoContinuation", func(t *testing.T) {
		res, err := h.FetchContractTokens(ctx, "7999")
		require.NoError(t, err)
		assert.Len(t, res.Value.Metadata, 2)
		assert.Nil(t, res.Value.Continuation)
	})

	t.Run("InvalidContinuation", func(t *testing.T) {
		_, err := h.FetchContractTokens(ctx, "abc")
		assert.Error(t, err)
	})
}

func TestLootHandler_CollectionHasRange(t *testing.T) {
	h := NewLootHandler(util.TestLogger(), &fakeLootReader{}, 0)

	c, err := h.FetchCollection(context.Background(), common.CollectionRef{Contract: LootContract})
	require.NoError(t, err)
	require.NotNil(t, c.TokenIdRange)
	assert.Equal(t, "range:"+LootContract+":1:8000", c.TokenSetId)
}

func TestLootAbi_PacksEveryGetter(t *testing.T) {
	for _, slot := range lootSlots {
		_, err := lootAbi.Pack("get"+slot, big.NewInt(1))
		assert.NoError(t, err, slot)
	}
	_, err := lootAbi.Pack("tokenURI", big.NewInt(1))
	assert.NoError(t, err)
}
