package oracle

import (
	"fmt"
	"strings"
)

// Chain describes a network reachable through Infura
type Chain struct {
	Name    string
	ChainID int64
	host    string
}

// RPCURL returns the Infura endpoint for the chain
func (c Chain) RPCURL(infuraKey string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", c.host, infuraKey)
}

var chains = map[int64]Chain{
	1:        {Name: "mainnet", ChainID: 1, host: "mainnet"},
	10:       {Name: "optimism-mainnet", ChainID: 10, host: "optimism-mainnet"},
	137:      {Name: "polygon-mainnet", ChainID: 137, host: "polygon-mainnet"},
	8453:     {Name: "base-mainnet", ChainID: 8453, host: "base-mainnet"},
	17000:    {Name: "holesky", ChainID: 17000, host: "holesky"},
	42161:    {Name: "arbitrum-mainnet", ChainID: 42161, host: "arbitrum-mainnet"},
	59144:    {Name: "linea-mainnet", ChainID: 59144, host: "linea-mainnet"},
	59145:    {Name: "linea-sepolia", ChainID: 59145, host: "linea-sepolia"},
	80001:    {Name: "polygon-mumbai", ChainID: 80001, host: "polygon-mumbai"},
	84532:    {Name: "base-sepolia", ChainID: 84532, host: "base-sepolia"},
	11155111: {Name: "sepolia", ChainID: 11155111, host: "sepolia"},
}

// LookupChain returns the known chain with the given id
func LookupChain(id int64) (Chain, error) {
	c, ok := chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("unknown chain id %d", id)
	}
	return c, nil
}

// ResolveRPCURL picks the explicit override or the chain's Infura endpoint
func ResolveRPCURL(chainID int64, override, infuraKey string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}
	c, err := LookupChain(chainID)
	if err != nil {
		return "", err
	}
	if infuraKey == "" {
		return "", fmt.Errorf("no RPC URL configured and INFURA_KEY is empty for %s", c.Name)
	}
	return c.RPCURL(infuraKey), nil
}
