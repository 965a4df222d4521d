package registry

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	FamilyEVM    = "evm"
	FamilySolana = "solana"
)

// DefaultDestGasLimit is the gas forwarded for destination-side execution
// when a network does not override it.
const DefaultDestGasLimit uint64 = 500_000

type TokenInfo struct {
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// NetworkConfig describes one payable network. Key is the canonical
// registry key: the decimal chain id for EVM networks, a short cluster
// name (e.g. "devnet") for non-EVM ones.
type NetworkConfig struct {
	Key            string               `yaml:"key"`
	Name           string               `yaml:"name"`
	Family         string               `yaml:"family"`
	EVMChainID     int64                `yaml:"evm_chain_id"`
	ChainSelector  uint64               `yaml:"chain_selector"`
	Router         string               `yaml:"router"`
	RPCURL         string               `yaml:"rpc_url"`
	NativeSymbol   string               `yaml:"native_symbol"`
	NativeDecimals int                  `yaml:"native_decimals"`
	DestGasLimit   uint64               `yaml:"dest_gas_limit"`
	FeeTokens      map[string]string    `yaml:"fee_tokens"`
	Tokens         map[string]TokenInfo `yaml:"tokens"`
}

func (n NetworkConfig) IsEVM() bool { return n.Family == FamilyEVM }

// DestinationGasLimit returns the per-network override or the default.
func (n NetworkConfig) DestinationGasLimit() uint64 {
	if n.DestGasLimit > 0 {
		return n.DestGasLimit
	}
	return DefaultDestGasLimit
}

// FeeTokenAddress resolves a configured fee token symbol on this network.
func (n NetworkConfig) FeeTokenAddress(symbol string) (string, bool) {
	addr, ok := n.FeeTokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return addr, ok
}

// Token resolves a payment token symbol on this network.
func (n NetworkConfig) Token(symbol string) (TokenInfo, bool) {
	t, ok := n.Tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

type Registry struct {
	networks map[string]NetworkConfig
	routes   map[string]map[string]bool
}

type fileNetworks struct {
	Networks []NetworkConfig `yaml:"networks"`
	Routes   []struct {
		Source      string `yaml:"source"`
		Destination string `yaml:"destination"`
	} `yaml:"routes"`
}

// Load builds the registry from built-in defaults plus an optional yaml
// table that adds or replaces networks and routes. Every network is
// validated before the registry becomes usable; a corrupted row aborts
// the load rather than surfacing later as a wrong-selector send.
func Load(networksFile string, rpcOverrides map[string]string) (*Registry, error) {
	r := &Registry{
		networks: map[string]NetworkConfig{},
		routes:   map[string]map[string]bool{},
	}
	for _, n := range defaultNetworks() {
		r.networks[n.Key] = n
	}
	for _, pair := range defaultRoutes() {
		r.addRoute(pair[0], pair[1])
	}

	if strings.TrimSpace(networksFile) != "" {
		buf, err := os.ReadFile(networksFile)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "read networks file", err)
		}
		var extra fileNetworks
		if err := yaml.Unmarshal(buf, &extra); err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "parse networks yaml", err)
		}
		for _, n := range extra.Networks {
			n.Key = NormalizeKey(n.Key)
			r.networks[n.Key] = n
		}
		for _, route := range extra.Routes {
			r.addRoute(NormalizeKey(route.Source), NormalizeKey(route.Destination))
		}
	}

	for key, url := range rpcOverrides {
		norm := NormalizeKey(key)
		if n, ok := r.networks[norm]; ok && strings.TrimSpace(url) != "" {
			n.RPCURL = strings.TrimSpace(url)
			r.networks[norm] = n
		}
	}

	for _, n := range r.networks {
		if err := validateNetwork(n); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NormalizeKey maps any accepted chain identifier spelling to the
// canonical registry key. Numeric inputs are EVM chain ids; everything
// else is lowercased (so "Devnet" and "devnet" address the same row).
func NormalizeKey(input string) string {
	raw := strings.ToLower(strings.TrimSpace(input))
	if raw == "" {
		return ""
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(id, 10)
	}
	return raw
}

// Get resolves a network by chain id or key.
func (r *Registry) Get(chainIDOrKey string) (NetworkConfig, error) {
	key := NormalizeKey(chainIDOrKey)
	if key == "" {
		return NetworkConfig{}, clierr.New(clierr.CodeUsage, "network key is required")
	}
	n, ok := r.networks[key]
	if !ok {
		return NetworkConfig{}, clierr.New(clierr.CodeUnsupportedRoute, fmt.Sprintf("unknown network: %s", chainIDOrKey))
	}
	return n, nil
}

// RouteSupported reports whether the ordered source->destination pair
// is an allowed cross-chain route.
func (r *Registry) RouteSupported(sourceKey, destKey string) bool {
	dests, ok := r.routes[NormalizeKey(sourceKey)]
	if !ok {
		return false
	}
	return dests[NormalizeKey(destKey)]
}

// Networks returns all configured networks sorted by key.
func (r *Registry) Networks() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sortNetworks(out)
	return out
}

// Routes returns all ordered route pairs sorted by source then destination.
func (r *Registry) Routes() [][2]string {
	out := make([][2]string, 0)
	for src, dests := range r.routes {
		for dst, ok := range dests {
			if ok {
				out = append(out, [2]string{src, dst})
			}
		}
	}
	sortRoutes(out)
	return out
}

func (r *Registry) addRoute(src, dst string) {
	if src == "" || dst == "" || src == dst {
		return
	}
	if r.routes[src] == nil {
		r.routes[src] = map[string]bool{}
	}
	r.routes[src][dst] = true
}

// validateNetwork is the load-time corruption gate. A selector that is
// zero, or whose decimal form collides with the network's display name
// or key, indicates a corrupted table row (name written into the
// selector column) and must never reach fee estimation or send.
func validateNetwork(n NetworkConfig) error {
	if strings.TrimSpace(n.Key) != NormalizeKey(n.Key) || n.Key == "" {
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %q has a non-canonical key", n.Key))
	}
	if strings.TrimSpace(n.Name) == "" {
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s is missing a display name", n.Key))
	}
	switch n.Family {
	case FamilyEVM:
		if n.EVMChainID <= 0 {
			return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s has an invalid evm chain id", n.Key))
		}
		if n.Key != strconv.FormatInt(n.EVMChainID, 10) {
			return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s key does not match its chain id %d", n.Key, n.EVMChainID))
		}
	case FamilySolana:
	default:
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s has unknown family %q", n.Key, n.Family))
	}
	if n.ChainSelector == 0 {
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s has a zero chain selector", n.Key))
	}
	selector := strconv.FormatUint(n.ChainSelector, 10)
	if strings.EqualFold(selector, strings.TrimSpace(n.Name)) || selector == n.Key {
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s selector column holds a name or key, not a selector", n.Key))
	}
	if n.NativeDecimals <= 0 {
		return clierr.New(clierr.CodeConfigCorruption, fmt.Sprintf("network %s has invalid native decimals", n.Key))
	}
	return nil
}

func sortNetworks(items []NetworkConfig) {
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
}

func sortRoutes(items [][2]string) {
	sort.Slice(items, func(i, j int) bool {
		if items[i][0] != items[j][0] {
			return items[i][0] < items[j][0]
		}
		return items[i][1] < items[j][1]
	})
}
