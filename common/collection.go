package common

import (
	"fmt"
	"math/big"
	"strings"
)

type CollectionRef struct {
	Contract string
	// TokenId is optional; some providers only answer collection lookups through
	// a representative token.
	TokenId string
}

// ParseCollectionRef accepts "contract" or "contract:tokenId".
func ParseCollectionRef(raw string) (CollectionRef, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return CollectionRef{}, NewErrMissingToken()
	}
	contract, tokenId, _ := strings.Cut(raw, ":")
	contract, err := NormalizeContract(contract)
	if err != nil {
		return CollectionRef{}, NewErrInvalidTokenRef(raw, err.Error())
	}
	ref := CollectionRef{Contract: contract}
	if tokenId != "" {
		id, ok := ParseTokenId(tokenId)
		if !ok {
			return CollectionRef{}, NewErrInvalidTokenRef(raw, "token id must be a non-negative integer")
		}
		ref.TokenId = id.String()
	}
	return ref, nil
}

type Royalty struct {
	Recipient string `json:"recipient"`
	Bps       int    `json:"bps"`
}

type CollectionMetadata struct {
	Description     string `json:"description"`
	ImageUrl        string `json:"imageUrl"`
	BannerImageUrl  string `json:"bannerImageUrl"`
	DiscordUrl      string `json:"discordUrl"`
	ExternalUrl     string `json:"externalUrl"`
	TwitterUsername string `json:"twitterUsername"`
}

// TokenIdRange is rendered as a two element array [min, max].
type TokenIdRange [2]*big.Int

func (r *TokenIdRange) String() string {
	return fmt.Sprintf("%s:%s", r[0].String(), r[1].String())
}

// Collection is the canonical collection record returned regardless of provider.
type Collection struct {
	Id               string             `json:"id"`
	Slug             string             `json:"slug"`
	Name             string             `json:"name"`
	Community        *string            `json:"community"`
	Metadata         CollectionMetadata `json:"metadata"`
	Royalties        []Royalty          `json:"royalties"`
	OpenseaRoyalties []Royalty          `json:"openseaRoyalties"`
	Contract         string             `json:"contract"`
	TokenIdRange     *TokenIdRange      `json:"tokenIdRange"`
	TokenSetId       string             `json:"tokenSetId"`
}

// DeriveTokenSetId is the only place a token set id is produced: it is a pure
// function of the contract and the optional id range.
func DeriveTokenSetId(contract string, rng *TokenIdRange) string {
	contract = strings.ToLower(contract)
	if rng != nil && rng[0] != nil && rng[1] != nil {
		return fmt.Sprintf("range:%s:%s", contract, rng.String())
	}
	return "contract:" + contract
}

// NewCollection fills the identity fields shared by every provider parser.
func NewCollection(contract string) *Collection {
	contract = strings.ToLower(contract)
	return &Collection{
		Id:               contract,
		Contract:         contract,
		Royalties:        []Royalty{},
		OpenseaRoyalties: []Royalty{},
		TokenSetId:       DeriveTokenSetId(contract, nil),
	}
}

// IsEmpty mirrors the "no usable data" check applied before answering a lookup.
func (c *Collection) IsEmpty() bool {
	return c == nil || (c.Id == "" && c.Contract == "" && c.Name == "")
}
