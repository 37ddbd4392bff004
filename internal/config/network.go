package config

import (
	"fmt"
	"sort"
	"strings"
)

// Network describes one Story Protocol deployment.
type Network struct {
	Name                  string `json:"name"`
	ChainID               int64  `json:"chainId"`
	RPCProviderURL        string `json:"rpcProviderUrl"`
	BlockExplorer         string `json:"blockExplorer"`
	ProtocolExplorer      string `json:"protocolExplorer"`
	DefaultNFTContract    string `json:"defaultNftContract,omitempty"`
	DefaultSPGNFTContract string `json:"defaultSpgNftContract"`
}

const (
	NetworkAeneid  = "aeneid"
	NetworkMainnet = "mainnet"
)

var networks = map[string]Network{
	NetworkAeneid: {
		Name:                  NetworkAeneid,
		ChainID:               1315,
		RPCProviderURL:        "https://aeneid.storyrpc.io",
		BlockExplorer:         "https://aeneid.storyscan.io",
		ProtocolExplorer:      "https://aeneid.explorer.story.foundation",
		DefaultNFTContract:    "0x937bef10ba6fb941ed84b8d249abc76031429a9a",
		DefaultSPGNFTContract: "0xc32A8a0FF3beDDDa58393d022aF433e78739FAbc",
	},
	NetworkMainnet: {
		Name:                  NetworkMainnet,
		ChainID:               1514,
		RPCProviderURL:        "https://mainnet.storyrpc.io",
		BlockExplorer:         "https://storyscan.io",
		ProtocolExplorer:      "https://explorer.story.foundation",
		DefaultSPGNFTContract: "0x98971c660ac20880b60F86Cc3113eBd979eb3aAE",
	},
}

// LookupNetwork resolves a network by name. Empty selects aeneid.
func LookupNetwork(name string) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = NetworkAeneid
	}
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("invalid network: %s. Must be one of: %s", name, strings.Join(NetworkNames(), ", "))
	}
	return n, nil
}

func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for k := range networks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TxURL links a transaction hash on the block explorer.
func (n Network) TxURL(hash string) string {
	return strings.TrimRight(n.BlockExplorer, "/") + "/tx/" + hash
}

// IPAssetURL links an IP asset on the protocol explorer.
func (n Network) IPAssetURL(ipID string) string {
	return strings.TrimRight(n.ProtocolExplorer, "/") + "/ipa/" + ipID
}
