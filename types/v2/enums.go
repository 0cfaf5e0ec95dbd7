package v2

import "fmt"

// Scheme is the scheme enum.
type Scheme string

const (
	SchemeExact Scheme = "exact"
)

// Network is the network enum.
type Network string

const (
	NetworkBase Network = "eip155:8453"
)

// NetworkForChain returns the CAIP-2 network identifier of an EVM chain.
func NetworkForChain(chainID int64) Network {
	return Network(fmt.Sprintf("eip155:%d", chainID))
}
