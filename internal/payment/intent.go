// Package payment resolves a payment intent against the connected
// wallet: same network means a direct token transfer, a supported lane
// means a routed cross-chain send, anything else is reported with
// guidance instead of a transaction.
package payment

import (
	"math/big"
	"strings"

	ccip "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/ccip"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
)

// Intent is a validated request to pay an agent. Amounts are decimal
// base-unit strings fixed before resolution starts.
type Intent struct {
	AgentID         string
	Recipient       string
	TokenSymbol     string
	AmountBaseUnits string
	DestinationKey  string
	FeeToken        ccip.FeeTokenChoice
}

func (in Intent) validate() error {
	if strings.TrimSpace(in.AgentID) == "" {
		return clierr.New(clierr.CodeUsage, "agent id is required")
	}
	if strings.TrimSpace(in.Recipient) == "" {
		return clierr.New(clierr.CodeUsage, "recipient is required")
	}
	if strings.TrimSpace(in.TokenSymbol) == "" {
		return clierr.New(clierr.CodeUsage, "payment token is required")
	}
	if strings.TrimSpace(in.DestinationKey) == "" {
		return clierr.New(clierr.CodeUsage, "destination network is required")
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(in.AmountBaseUnits), 10)
	if !ok || amount.Sign() <= 0 {
		return clierr.New(clierr.CodeUsage, "payment amount must be a positive integer in base units")
	}
	return nil
}
