package extend

import (
	"context"
	"math/big"
	"testing"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	util.ConfigureTestLogger()
}

const contract = "0x0000000000000000000000000000000000000ABC"

func newExtender() *Extender {
	return NewExtender(util.TestLogger(), &common.ExtendConfig{IpfsGateway: "https://gw.example/ipfs/"})
}

func sampleToken() *common.TokenMetadata {
	return &common.TokenMetadata{
		Contract: contract,
		TokenId:  big.NewInt(1),
		Name:     "One",
		ImageUrl: "ipfs://ipfs/QmImage",
		MediaUrl: "ipfs://QmMedia",
		Attributes: []common.Attribute{
			{Key: "Eyes", Value: "Blue"},
			{Key: " Level ", Value: float64(3), Kind: common.AttributeKindString, Rank: 2},
			{Key: "", Value: "dropped"},
		},
	}
}

func sampleCollection() *common.Collection {
	return &common.Collection{
		Contract: contract,
		Slug:     "My Cool Collection",
		Name:     "My Cool Collection",
		Metadata: common.CollectionMetadata{ImageUrl: "ipfs://QmCol"},
		Royalties: []common.Royalty{
			{Recipient: "0x00000000000000000000000000000000000000AA", Bps: 100},
			{Recipient: "0x00000000000000000000000000000000000000bb", Bps: 0},
			{Recipient: "0x00000000000000000000000000000000000000cc", Bps: 50},
			{Recipient: "0x00000000000000000000000000000000000000aa", Bps: 150},
		},
		TokenSetId: "stale",
	}
}

func TestExtender_Token(t *testing.T) {
	e := newExtender()
	md := e.Token(context.Background(), 1, sampleToken())

	assert.Equal(t, "0x0000000000000000000000000000000000000abc", md.Contract)
	assert.Equal(t, md.Contract, md.Collection)
	assert.Equal(t, "https://gw.example/ipfs/QmImage", md.ImageUrl)
	assert.Equal(t, "https://gw.example/ipfs/QmMedia", md.MediaUrl)
	assert.Equal(t, []common.Attribute{
		{Key: "Eyes", Value: "Blue", Kind: common.AttributeKindString, Rank: 1},
		{Key: "Level", Value: float64(3), Kind: common.AttributeKindNumber, Rank: 2},
	}, md.Attributes)
}

func TestExtender_TokenDoesNotMutateInput(t *testing.T) {
	in := sampleToken()
	_ = newExtender().Token(context.Background(), 1, in)
	assert.Equal(t, contract, in.Contract)
	assert.Len(t, in.Attributes, 3)
}

func TestExtender_TokenIsIdempotent(t *testing.T) {
	e := newExtender()
	ctx := context.Background()

	once := e.Token(ctx, 1, sampleToken())
	twice := e.Token(ctx, 1, once)
	assert.Equal(t, once, twice)
}

func TestExtender_Collection(t *testing.T) {
	c := newExtender().Collection(context.Background(), 1, sampleCollection())

	assert.Equal(t, "0x0000000000000000000000000000000000000abc", c.Id)
	assert.Equal(t, "my-cool-collection", c.Slug)
	assert.Equal(t, "https://gw.example/ipfs/QmCol", c.Metadata.ImageUrl)
	assert.Equal(t, "contract:0x0000000000000000000000000000000000000abc", c.TokenSetId)
	assert.Equal(t, []common.Royalty{
		{Recipient: "0x00000000000000000000000000000000000000aa", Bps: 250},
		{Recipient: "0x00000000000000000000000000000000000000cc", Bps: 50},
	}, c.Royalties)
	assert.NotNil(t, c.OpenseaRoyalties)
}

func TestExtender_CollectionWithRange(t *testing.T) {
	in := sampleCollection()
	in.TokenIdRange = &common.TokenIdRange{big.NewInt(1), big.NewInt(100)}

	c := newExtender().Collection(context.Background(), 1, in)
	assert.Equal(t, "range:0x0000000000000000000000000000000000000abc:1:100", c.TokenSetId)
}

func TestExtender_CollectionIsIdempotent(t *testing.T) {
	e := newExtender()
	ctx := context.Background()

	in := sampleCollection()
	in.TokenIdRange = &common.TokenIdRange{big.NewInt(1), big.NewInt(100)}

	once := e.Collection(ctx, 1, in)
	twice := e.Collection(ctx, 1, once)
	require.NotNil(t, twice)
	assert.Equal(t, once, twice)
}

func TestExtender_Tokens_SkipsNil(t *testing.T) {
	out := newExtender().Tokens(context.Background(), 1, []*common.TokenMetadata{nil, sampleToken()})
	assert.Len(t, out, 1)
}
