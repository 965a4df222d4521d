// Package agent fetches payment profiles for marketplace agents. A
// profile is untrusted remote input and is validated before any plan
// is built from it.
package agent

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

// Profile describes where and how an agent gets paid.
type Profile struct {
	AgentID          string `json:"agentId" validate:"required,min=1,max=128"`
	Name             string `json:"name" validate:"required,max=256"`
	RecipientAddress string `json:"recipientAddress" validate:"required"`
	TokenSymbol      string `json:"tokenSymbol" validate:"required,alphanum,max=16"`
	AmountDecimal    string `json:"amountDecimal" validate:"required"`
	FeeToken         string `json:"feeToken,omitempty" validate:"omitempty,alphanum,max=16"`
	ChainKey         string `json:"chainKey" validate:"required,max=64"`
}

var validate = validator.New()

// Validate checks the profile structurally and then against the
// network it names: the chain must exist and the recipient must be a
// plausible address for that chain's family.
func (p Profile) Validate(reg *registry.Registry) error {
	if err := validate.Struct(p); err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "marketplace returned an invalid agent profile", err)
	}
	network, err := reg.Get(registry.NormalizeKey(p.ChainKey))
	if err != nil {
		return clierr.New(clierr.CodeUnsupportedRoute, "agent profile names unknown network "+p.ChainKey)
	}
	recipient := strings.TrimSpace(p.RecipientAddress)
	if network.IsEVM() {
		if !common.IsHexAddress(recipient) {
			return clierr.New(clierr.CodeUnavailable, "agent profile recipient is not a valid EVM address")
		}
	} else if len(common.FromHex(recipient)) != 32 {
		return clierr.New(clierr.CodeUnavailable, "agent profile recipient is not a 32-byte account for "+network.Name)
	}
	return nil
}
