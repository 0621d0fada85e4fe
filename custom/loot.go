package custom

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	LootContract = "0xff9c1b15b16263c61d017ee9f65c50e4ae0113d7"
	lootMaxId    = 8000
	lootDataUri  = "data:application/json;base64,"
)

// lootSlots are the item getters exposed by the contract, in display order.
var lootSlots = []string{"Weapon", "Chest", "Head", "Waist", "Foot", "Hand", "Neck", "Ring"}

// LootReader reads the contract state the metadata is computed from.
type LootReader interface {
	TokenURI(ctx context.Context, tokenId *big.Int) (string, error)
	Item(ctx context.Context, slot string, tokenId *big.Int) (string, error)
}

// LootHandler computes metadata from on-chain state: the contract renders its
// own tokenURI and exposes every item of a bag through a getter.
type LootHandler struct {
	logger   *zerolog.Logger
	reader   LootReader
	pageSize int
}

func NewLootHandler(logger *zerolog.Logger, reader LootReader, pageSize int) *LootHandler {
	if pageSize <= 0 {
		pageSize = common.DefaultLootPage
	}
	lg := logger.With().Str("component", "customHandler").Str("handler", "loot").Logger()
	return &LootHandler{logger: &lg, reader: reader, pageSize: pageSize}
}

func (h *LootHandler) Name() string     { return "loot" }
func (h *LootHandler) ChainId() int64   { return 1 }
func (h *LootHandler) Contract() string { return LootContract }

type lootTokenUri struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (h *LootHandler) FetchToken(ctx context.Context, ref common.TokenRef) (*common.TokenMetadata, error) {
	tokenId := ref.Id()
	if tokenId == nil || tokenId.Sign() <= 0 || tokenId.Cmp(big.NewInt(lootMaxId)) > 0 {
		return nil, fmt.Errorf("loot token id out of range: %s", ref.TokenId)
	}

	uri, err := h.reader.TokenURI(ctx, tokenId)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeLootTokenUri(uri)
	if err != nil {
		return nil, err
	}

	attrs := make([]common.Attribute, 0, len(lootSlots))
	for _, slot := range lootSlots {
		item, err := h.reader.Item(ctx, slot, tokenId)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, common.NewAttribute(slot, item))
	}

	return &common.TokenMetadata{
		Contract:    LootContract,
		TokenId:     tokenId,
		Name:        decoded.Name,
		Collection:  LootContract,
		Description: decoded.Description,
		ImageUrl:    decoded.Image,
		Attributes:  attrs,
	}, nil
}

func decodeLootTokenUri(uri string) (*lootTokenUri, error) {
	if !strings.HasPrefix(uri, lootDataUri) {
		return nil, fmt.Errorf("unexpected tokenURI encoding")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, lootDataUri))
	if err != nil {
		return nil, fmt.Errorf("cannot decode tokenURI: %w", err)
	}
	var out lootTokenUri
	if err := common.SonicCfg.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cannot parse tokenURI json: %w", err)
	}
	return &out, nil
}

func (h *LootHandler) FetchCollection(ctx context.Context, ref common.CollectionRef) (*common.Collection, error) {
	c := common.NewCollection(LootContract)
	c.Slug = "lootproject"
	c.Name = "Loot (for Adventurers)"
	c.Metadata = common.CollectionMetadata{
		Description:     "Loot is randomized adventurer gear generated and stored on chain.",
		ImageUrl:        "https://lh3.googleusercontent.com/Wkf3tqqCVGHeUVbQ63hGWoc-ka9rrsQFpW3u0b6ANaDEfqZIGoD3CkHIQOdyOZDQJWFfkXm-qvPzKYUE37TaBuOqqtLsjLpJsKl5",
		ExternalUrl:     "https://www.lootproject.com",
		TwitterUsername: "lootproject",
	}
	rng := common.TokenIdRange{big.NewInt(1), big.NewInt(lootMaxId)}
	c.TokenIdRange = &rng
	c.TokenSetId = common.DeriveTokenSetId(LootContract, &rng)
	return c, nil
}

// FetchContractTokens enumerates the fixed id space; the continuation is the
// next id to read.
func (h *LootHandler) FetchContractTokens(ctx context.Context, continuation string) (*common.Result[*common.TokensPage], error) {
	start := int64(1)
	if continuation != "" {
		n, err := strconv.ParseInt(continuation, 10, 64)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid continuation %q", continuation)
		}
		start = n
	}
	if start > lootMaxId {
		return common.Found(&common.TokensPage{Metadata: []*common.TokenMetadata{}}), nil
	}

	end := start + int64(h.pageSize) - 1
	if end > lootMaxId {
		end = lootMaxId
	}

	metadata := make([]*common.TokenMetadata, end-start+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for id := start; id <= end; id++ {
		i, ref := id-start, common.TokenRef{Contract: LootContract, TokenId: strconv.FormatInt(id, 10)}
		g.Go(func() error {
			md, err := h.FetchToken(gctx, ref)
			if err != nil {
				return err
			}
			metadata[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &common.TokensPage{Metadata: metadata}
	if end < lootMaxId {
		next := strconv.FormatInt(end+1, 10)
		page.Continuation = &next
	}
	return common.Found(page), nil
}

var lootAbi abi.ABI

func init() {
	methods := make([]string, 0, len(lootSlots)+1)
	methods = append(methods, lootAbiMethod("tokenURI"))
	for _, slot := range lootSlots {
		methods = append(methods, lootAbiMethod("get"+slot))
	}
	parsed, err := abi.JSON(strings.NewReader("[" + strings.Join(methods, ",") + "]"))
	if err != nil {
		panic(err)
	}
	lootAbi = parsed
}

func lootAbiMethod(name string) string {
	return fmt.Sprintf(`{"inputs":[{"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":%q,"outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}`, name)
}

// EthLootReader calls the mainnet contract through a JSON-RPC endpoint.
type EthLootReader struct {
	client   *ethclient.Client
	contract gethcommon.Address
}

func NewEthLootReader(ctx context.Context, rpcUrl string) (*EthLootReader, error) {
	client, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("cannot dial loot rpc endpoint: %w", err)
	}
	return &EthLootReader{client: client, contract: gethcommon.HexToAddress(LootContract)}, nil
}

func (r *EthLootReader) call(ctx context.Context, method string, tokenId *big.Int) (string, error) {
	data, err := lootAbi.Pack(method, tokenId)
	if err != nil {
		return "", err
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contract,
		Data: data,
	}, nil)
	if err != nil {
		return "", err
	}
	values, err := lootAbi.Unpack(method, out)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", fmt.Errorf("unexpected %s output length %d", method, len(values))
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s output type %T", method, values[0])
	}
	return s, nil
}

func (r *EthLootReader) TokenURI(ctx context.Context, tokenId *big.Int) (string, error) {
	return r.call(ctx, "tokenURI", tokenId)
}

func (r *EthLootReader) Item(ctx context.Context, slot string, tokenId *big.Int) (string, error) {
	return r.call(ctx, "get"+slot, tokenId)
}
