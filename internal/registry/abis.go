package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments used by the payment builders.
const (
	erc20ABIJSON = `[
		{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	routerABIJSON = `[
		{"name":"getFee","type":"function","stateMutability":"view","inputs":[{"name":"destinationChainSelector","type":"uint64"},{"name":"message","type":"tuple","components":[{"name":"receiver","type":"bytes"},{"name":"data","type":"bytes"},{"name":"tokenAmounts","type":"tuple[]","components":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}]},{"name":"feeToken","type":"address"},{"name":"extraArgs","type":"bytes"}]}],"outputs":[{"name":"fee","type":"uint256"}]},
		{"name":"ccipSend","type":"function","stateMutability":"payable","inputs":[{"name":"destinationChainSelector","type":"uint64"},{"name":"message","type":"tuple","components":[{"name":"receiver","type":"bytes"},{"name":"data","type":"bytes"},{"name":"tokenAmounts","type":"tuple[]","components":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}]},{"name":"feeToken","type":"address"},{"name":"extraArgs","type":"bytes"}]}],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"isChainSupported","type":"function","stateMutability":"view","inputs":[{"name":"destChainSelector","type":"uint64"}],"outputs":[{"name":"supported","type":"bool"}]}
	]`
)

// Parsed once at init and shared by every package that encodes
// calldata. The fragments are constants; a parse failure is a
// programming error.
var (
	ERC20MinimalABI = mustParseABI(erc20ABIJSON)
	RouterABI       = mustParseABI(routerABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
