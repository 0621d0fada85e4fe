package common

import (
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x00000000000000000000000000000000000000Ab"

func TestParseTokenRef(t *testing.T) {
	t.Run("LowercasesAndNormalizesId", func(t *testing.T) {
		ref, err := ParseTokenRef(testAddress + ":0x0a")
		require.NoError(t, err)
		assert.Equal(t, TokenRef{Contract: "0x00000000000000000000000000000000000000ab", TokenId: "10"}, ref)
		assert.Equal(t, "0x00000000000000000000000000000000000000ab:10", ref.String())
	})

	cases := map[string]string{
		"MissingSeparator": testAddress,
		"EmptyTokenId":     testAddress + ":",
		"BadAddress":       "0x123:1",
		"NegativeId":       testAddress + ":-1",
		"TextId":           testAddress + ":one",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTokenRef(raw)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, http.StatusBadRequest, StatusCodeOf(err))
		})
	}
}

func TestTokenRef_Matches(t *testing.T) {
	ref := TokenRef{Contract: "0x00000000000000000000000000000000000000ab", TokenId: "1"}

	assert.True(t, ref.Matches(&TokenMetadata{Contract: testAddress, TokenId: big.NewInt(1)}))
	assert.False(t, ref.Matches(&TokenMetadata{Contract: testAddress, TokenId: big.NewInt(2)}))
	assert.False(t, ref.Matches(&TokenMetadata{Contract: "0x00000000000000000000000000000000000000cd", TokenId: big.NewInt(1)}))
	assert.False(t, ref.Matches(&TokenMetadata{Contract: testAddress}))
	assert.False(t, ref.Matches(nil))
}

func TestParseTokenId(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
		ok   bool
	}{
		{"0001", "1", true},
		{" 42 ", "42", true},
		{"0xff", "255", true},
		{float64(7), "7", true},
		{float64(7.5), "", false},
		{int64(9), "9", true},
		{json.Number("12"), "12", true},
		{big.NewInt(3), "3", true},
		{"", "", false},
		{nil, "", false},
		{-1, "", false},
	}
	for _, c := range cases {
		n, ok := ParseTokenId(c.in)
		assert.Equal(t, c.ok, ok, "%v", c.in)
		if c.ok {
			assert.Equal(t, c.want, n.String())
		}
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, AttributeKindNumber, KindOf(float64(3)))
	assert.Equal(t, AttributeKindNumber, KindOf(12))
	assert.Equal(t, AttributeKindNumber, KindOf(json.Number("1.5")))
	assert.Equal(t, AttributeKindString, KindOf("3"))
	assert.Equal(t, AttributeKindString, KindOf(true))
	assert.Equal(t, AttributeKindString, KindOf(nil))

	attr := NewAttribute("Eyes", "Blue")
	assert.Equal(t, Attribute{Key: "Eyes", Value: "Blue", Kind: AttributeKindString, Rank: 1}, attr)
}

func TestTokenMetadata_TokenIdIsANumberOnTheWire(t *testing.T) {
	md := &TokenMetadata{Contract: "0xabc", TokenId: big.NewInt(1), Attributes: []Attribute{}}
	buf, err := SonicCfg.Marshal(md)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"tokenId":1`)
}

func TestParseCollectionRef(t *testing.T) {
	ref, err := ParseCollectionRef(testAddress)
	require.NoError(t, err)
	assert.Equal(t, CollectionRef{Contract: "0x00000000000000000000000000000000000000ab"}, ref)

	ref, err = ParseCollectionRef(testAddress + ":0012")
	require.NoError(t, err)
	assert.Equal(t, "12", ref.TokenId)

	_, err = ParseCollectionRef("")
	assert.True(t, HasErrorCode(err, ErrCodeMissingToken))

	_, err = ParseCollectionRef("nope")
	assert.True(t, HasErrorCode(err, ErrCodeInvalidTokenRef))
}

func TestDeriveTokenSetId(t *testing.T) {
	assert.Equal(t, "contract:0xabc", DeriveTokenSetId("0xABC", nil))
	rng := &TokenIdRange{big.NewInt(1), big.NewInt(8000)}
	assert.Equal(t, "range:0xabc:1:8000", DeriveTokenSetId("0xabc", rng))
	assert.Equal(t, "contract:0xabc", DeriveTokenSetId("0xabc", &TokenIdRange{big.NewInt(1), nil}))

	c := NewCollection("0xABC")
	assert.Equal(t, "0xabc", c.Id)
	assert.Equal(t, "contract:0xabc", c.TokenSetId)
	assert.False(t, c.IsEmpty())
	assert.True(t, (&Collection{}).IsEmpty())
}

func TestResolveChainId(t *testing.T) {
	expected := map[string]int64{
		"mainnet":  1,
		"rinkeby":  4,
		"goerli":   5,
		"optimism": 10,
		"polygon":  137,
	}
	for network, chainId := range expected {
		got, err := ResolveChainId(network)
		require.NoError(t, err)
		assert.Equal(t, chainId, got)
		assert.Equal(t, network, NetworkName(chainId))
	}

	for _, network := range []string{"", "Mainnet", "ropsten", "arbitrum"} {
		_, err := ResolveChainId(network)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeUnknownNetwork))
	}
	assert.Equal(t, "chain-42161", NetworkName(42161))
}

func TestErrProviderThrottled(t *testing.T) {
	err := NewErrProviderThrottled("opensea", "slow down", 30)

	assert.Equal(t, http.StatusTooManyRequests, StatusCodeOf(err))
	var body ErrorWithBody
	require.ErrorAs(t, err, &body)
	assert.Equal(t, map[string]interface{}{"error": "slow down", "expires_in": 30}, body.ErrorResponseBody())

	wrapped := NewErrCustomHandler("ens", err)
	assert.True(t, HasErrorCode(wrapped, ErrCodeProviderThrottled))
	assert.Equal(t, "ErrCustomHandler <- ErrProviderThrottled", wrapped.(StandardError).CodeChain())
}
