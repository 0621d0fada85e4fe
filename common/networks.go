package common

import (
	"fmt"
	"sort"
)

const DefaultNetwork = "mainnet"

var networkChainIds = map[string]int64{
	"mainnet":  1,
	"rinkeby":  4,
	"goerli":   5,
	"optimism": 10,
	"polygon":  137,
}

// ResolveChainId maps a network name to its chain id. It never touches the network.
func ResolveChainId(network string) (int64, error) {
	chainId, ok := networkChainIds[network]
	if !ok {
		return 0, NewErrUnknownNetwork(network)
	}
	return chainId, nil
}

func SupportedNetworks() []string {
	names := make([]string, 0, len(networkChainIds))
	for n := range networkChainIds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NetworkName is the reverse lookup used in log fields and provider URLs.
func NetworkName(chainId int64) string {
	for n, id := range networkChainIds {
		if id == chainId {
			return n
		}
	}
	return fmt.Sprintf("chain-%d", chainId)
}
