package utils

import (
	"fmt"
	"strings"
)

type NetworkType string

const (
	Mainnet    NetworkType = "mainnet"
	Testnet    NetworkType = "testnet"
	Regression NetworkType = "regression"
	Unknown    NetworkType = "unknown"
)

// Display returns the title case network name.
func (n NetworkType) Display() string {
	switch n {
	case Mainnet:
		return "Mainnet"
	case Testnet:
		return "Testnet"
	case Regression:
		return "Regression"
	default:
		return "Unknown"
	}
}

// ToNetworkType maps the provided network string identifier to the available
// network type constants.
func ToNetworkType(str string) NetworkType {
	switch strings.ToLower(str) {
	case "mainnet", "main":
		return Mainnet
	case "testnet", "test":
		return Testnet
	case "regression", "reg", "regnet":
		return Regression
	default:
		return Unknown
	}
}

// NetParams holds the remote endpoints used for a network.
type NetParams struct {
	Name NetworkType
	// NodeRPC is the JSON-RPC endpoint of the node used for estimates,
	// submissions, transaction status and contract reads.
	NodeRPC string
	// Indexer is the REST endpoint of the contract index.
	Indexer string
}

var (
	MainnetParams = &NetParams{
		Name:    Mainnet,
		NodeRPC: "http://127.0.0.1:9009",
		Indexer: "https://api.idena.io/",
	}
	TestnetParams = &NetParams{
		Name:    Testnet,
		NodeRPC: "http://127.0.0.1:9019",
		Indexer: "https://api.testnet.idena.io/",
	}
	RegnetParams = &NetParams{
		Name:    Regression,
		NodeRPC: "http://127.0.0.1:9029",
		Indexer: "http://127.0.0.1:1234/",
	}
)

// NetworkParams returns the default endpoints for netType.
func NetworkParams(netType NetworkType) (*NetParams, error) {
	switch netType {
	case Mainnet:
		return MainnetParams, nil
	case Testnet:
		return TestnetParams, nil
	case Regression:
		return RegnetParams, nil
	default:
		return nil, fmt.Errorf("%v: (%v)", ErrInvalidNet, netType)
	}
}
