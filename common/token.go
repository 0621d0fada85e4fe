package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenRef identifies a single token across providers. Contract is always lowercased
// and TokenId is a base-10 numeric string.
type TokenRef struct {
	Contract string `json:"contract"`
	TokenId  string `json:"tokenId"`
}

// ParseTokenRef splits a "contract:tokenId" identifier.
func ParseTokenRef(raw string) (TokenRef, error) {
	contract, tokenId, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found || tokenId == "" {
		return TokenRef{}, NewErrInvalidTokenRef(raw, "expected <contract>:<tokenId>")
	}
	contract, err := NormalizeContract(contract)
	if err != nil {
		return TokenRef{}, NewErrInvalidTokenRef(raw, err.Error())
	}
	id, ok := ParseTokenId(tokenId)
	if !ok {
		return TokenRef{}, NewErrInvalidTokenRef(raw, "token id must be a non-negative integer")
	}
	return TokenRef{Contract: contract, TokenId: id.String()}, nil
}

func (t TokenRef) String() string {
	return t.Contract + ":" + t.TokenId
}

// Id returns the numeric form of the token id.
func (t TokenRef) Id() *big.Int {
	id, _ := ParseTokenId(t.TokenId)
	return id
}

// Matches compares by contract and numeric token id, since providers disagree on
// how ids are spelled ("0001", 1, "1").
func (t TokenRef) Matches(md *TokenMetadata) bool {
	if md == nil || md.TokenId == nil {
		return false
	}
	if !strings.EqualFold(t.Contract, md.Contract) {
		return false
	}
	id := t.Id()
	return id != nil && id.Cmp(md.TokenId) == 0
}

// NormalizeContract validates a hex address and returns it lowercased.
func NormalizeContract(contract string) (string, error) {
	contract = strings.TrimSpace(contract)
	if !common.IsHexAddress(contract) {
		return "", fmt.Errorf("invalid contract address %q", contract)
	}
	return strings.ToLower(contract), nil
}

// ParseTokenId accepts decimal strings, 0x-prefixed hex strings, JSON numbers and
// already-parsed big integers.
func ParseTokenId(v interface{}) (*big.Int, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case *big.Int:
		if t == nil || t.Sign() < 0 {
			return nil, false
		}
		return new(big.Int).Set(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			base = 16
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok || n.Sign() < 0 {
			return nil, false
		}
		return n, true
	case float64:
		if t < 0 || t != float64(int64(t)) {
			return nil, false
		}
		return big.NewInt(int64(t)), true
	case int:
		if t < 0 {
			return nil, false
		}
		return big.NewInt(int64(t)), true
	case int64:
		if t < 0 {
			return nil, false
		}
		return big.NewInt(t), true
	case fmt.Stringer:
		return ParseTokenId(t.String())
	}
	return nil, false
}

type AttributeKind string

const (
	AttributeKindNumber AttributeKind = "number"
	AttributeKindString AttributeKind = "string"
)

type Attribute struct {
	Key   string        `json:"key"`
	Value interface{}   `json:"value"`
	Kind  AttributeKind `json:"kind"`
	Rank  int           `json:"rank"`
}

// NewAttribute derives the kind from the runtime type of value.
func NewAttribute(key string, value interface{}) Attribute {
	return Attribute{
		Key:   key,
		Value: value,
		Kind:  KindOf(value),
		Rank:  1,
	}
}

func KindOf(value interface{}) AttributeKind {
	switch v := value.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return AttributeKindNumber
	case interface{ Float64() (float64, error) }:
		if _, err := v.Float64(); err == nil {
			return AttributeKindNumber
		}
	}
	return AttributeKindString
}

// TokenMetadata is the canonical token record returned regardless of provider.
type TokenMetadata struct {
	Contract    string      `json:"contract"`
	TokenId     *big.Int    `json:"tokenId"`
	Name        string      `json:"name"`
	Collection  string      `json:"collection"`
	Description string      `json:"description"`
	ImageUrl    string      `json:"imageUrl"`
	MediaUrl    string      `json:"mediaUrl"`
	Attributes  []Attribute `json:"attributes"`
}

func (m *TokenMetadata) Ref() TokenRef {
	ref := TokenRef{Contract: strings.ToLower(m.Contract)}
	if m.TokenId != nil {
		ref.TokenId = m.TokenId.String()
	}
	return ref
}

// TokensPage is one page of a contract's token set. An empty Continuation means
// the sequence is exhausted.
type TokensPage struct {
	Continuation *string          `json:"continuation"`
	Metadata     []*TokenMetadata `json:"metadata"`
}
