package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Provider is the wallet boundary the payment core talks to. The
// resolution layer never assumes a chain is selected: ActiveChainKey
// returns an empty key when the provider cannot tell.
type Provider interface {
	// ActiveChainKey reports the registry key of the currently selected
	// network, or "" when no network is detectable.
	ActiveChainKey(ctx context.Context) (string, error)
	// Address is the payer account, zero when no account is connected.
	Address() common.Address
	// CallContract performs a read-only call (eth_call) as given.
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	// NativeBalance reads the native-coin balance of an account.
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	// ChainID reads the live chain id from the endpoint.
	ChainID(ctx context.Context) (*big.Int, error)
}
