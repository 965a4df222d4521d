// Package signer authorizes payment transactions. A payment plan is
// assembled unsigned; nothing leaves the machine until a Signer binds
// it to the payer's key.
package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer signs one assembled payment or approval transaction. SignTx
// takes the chain id explicitly so a plan built for one network can
// never be replayed on another.
type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}
