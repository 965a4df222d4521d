// Package allowance checks and grants ERC-20 spending approvals for
// the routing contract. Allowance reads are always live; a stored
// value could green-light a send the chain would reject.
package allowance

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/rs/zerolog"
)

// ApproveGasLimit bounds a plain erc20 approve.
const ApproveGasLimit uint64 = 80_000

var erc20ABI = registry.ERC20MinimalABI

type Manager struct {
	registry *registry.Registry
	provider wallet.Provider
	log      zerolog.Logger
	now      func() time.Time
}

func NewManager(reg *registry.Registry, provider wallet.Provider, log zerolog.Logger) *Manager {
	return &Manager{registry: reg, provider: provider, log: log, now: time.Now}
}

// Check reads the current allowance the owner has granted the source
// router for the payment token and compares it to the required amount.
func (m *Manager) Check(ctx context.Context, sourceKey, tokenSymbol string, owner common.Address, required *big.Int) (model.AllowanceCheck, error) {
	source, token, err := m.resolve(sourceKey, tokenSymbol)
	if err != nil {
		return model.AllowanceCheck{}, err
	}
	spender := common.HexToAddress(source.Router)

	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return model.AllowanceCheck{}, clierr.Wrap(clierr.CodeInternal, "encode allowance call", err)
	}
	tokenAddr := common.HexToAddress(token.Address)
	out, err := m.provider.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data})
	if err != nil {
		return model.AllowanceCheck{}, clierr.Wrap(clierr.CodeUnavailable, "allowance call", err)
	}
	vals, err := erc20ABI.Unpack("allowance", out)
	if err != nil || len(vals) != 1 {
		return model.AllowanceCheck{}, clierr.Wrap(clierr.CodeUnavailable, "decode allowance result", err)
	}
	current, ok := vals[0].(*big.Int)
	if !ok {
		return model.AllowanceCheck{}, clierr.New(clierr.CodeUnavailable, "allowance returned a non-integer value")
	}

	check := model.AllowanceCheck{
		Token:     tokenAddr.Hex(),
		Owner:     owner.Hex(),
		Spender:   spender.Hex(),
		Current:   current.String(),
		Required:  required.String(),
		Approved:  current.Cmp(required) >= 0,
		CheckedAt: m.now().UTC().Format(time.RFC3339),
	}
	m.log.Debug().
		Str("token", check.Token).
		Str("current", check.Current).
		Str("required", check.Required).
		Bool("approved", check.Approved).
		Msg("allowance checked")
	return check, nil
}

type ApproveInput struct {
	SourceKey   string
	TokenSymbol string
	Owner       common.Address
	Amount      *big.Int
}

// BuildApprovePlan assembles an erc20 approve granting the source
// router the exact amount. The connected signer must be the owner and
// the wallet must sit on the source network; either mismatch is fatal
// because the approval would bind the wrong account or the wrong chain.
func (m *Manager) BuildApprovePlan(ctx context.Context, in ApproveInput) (model.TransactionPlan, error) {
	source, token, err := m.resolve(in.SourceKey, in.TokenSymbol)
	if err != nil {
		return model.TransactionPlan{}, err
	}
	if in.Amount == nil || in.Amount.Sign() <= 0 {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUsage, "approval amount must be a positive integer in base units")
	}

	signerAddr := m.provider.Address()
	if !strings.EqualFold(signerAddr.Hex(), in.Owner.Hex()) {
		return model.TransactionPlan{}, clierr.New(clierr.CodeSigner, "connected signer "+signerAddr.Hex()+" is not the allowance owner "+in.Owner.Hex())
	}
	activeKey, err := m.provider.ActiveChainKey(ctx)
	if err != nil {
		return model.TransactionPlan{}, clierr.Wrap(clierr.CodeUnavailable, "read active network", err)
	}
	if activeKey != source.Key {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUsage, "wallet is on network "+activeKey+", approval must be sent from "+source.Key)
	}

	spender := common.HexToAddress(source.Router)
	data, err := erc20ABI.Pack("approve", spender, in.Amount)
	if err != nil {
		return model.TransactionPlan{}, clierr.Wrap(clierr.CodeInternal, "encode approve calldata", err)
	}

	return model.TransactionPlan{
		Kind:            model.PlanKindApproval,
		ChainKey:        source.Key,
		EVMChainID:      source.EVMChainID,
		To:              common.HexToAddress(token.Address).Hex(),
		Data:            "0x" + common.Bytes2Hex(data),
		Value:           "0",
		GasLimit:        ApproveGasLimit,
		TokenAddress:    common.HexToAddress(token.Address).Hex(),
		AmountBaseUnits: in.Amount.String(),
		Recipient:       spender.Hex(),
	}, nil
}

func (m *Manager) resolve(sourceKey, tokenSymbol string) (registry.NetworkConfig, registry.TokenInfo, error) {
	source, err := m.registry.Get(sourceKey)
	if err != nil {
		return registry.NetworkConfig{}, registry.TokenInfo{}, err
	}
	if !source.IsEVM() || !common.IsHexAddress(source.Router) {
		return registry.NetworkConfig{}, registry.TokenInfo{}, clierr.New(clierr.CodeUnsupportedRoute, "allowances only apply to EVM networks with a router")
	}
	token, ok := source.Token(tokenSymbol)
	if !ok {
		return registry.NetworkConfig{}, registry.TokenInfo{}, clierr.New(clierr.CodeUnsupportedRoute, "payment token "+strings.ToUpper(tokenSymbol)+" is not configured on "+source.Name)
	}
	return source, token, nil
}
