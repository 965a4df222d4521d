package registry

import (
	"fmt"
	"strings"
)

// ResolveRPCURL picks the endpoint for a network: an explicit override
// wins, otherwise the configured per-network endpoint.
func ResolveRPCURL(override string, network NetworkConfig) (string, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override), nil
	}
	if strings.TrimSpace(network.RPCURL) != "" {
		return strings.TrimSpace(network.RPCURL), nil
	}
	return "", fmt.Errorf("no rpc endpoint configured for network %s; provide --rpc-url", network.Key)
}
