package payment

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

// TransferGasLimit bounds a plain erc20 transfer.
const TransferGasLimit uint64 = 100_000

var erc20ABI = registry.ERC20MinimalABI

// buildTransferPlan assembles a direct token transfer on the network
// the wallet is already on. No router, no fee quote, no value.
func buildTransferPlan(source registry.NetworkConfig, tokenSymbol, recipient, amountBaseUnits string) (model.TransactionPlan, error) {
	if !source.IsEVM() {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUnsupportedRoute, "direct transfers are only built for EVM networks")
	}
	token, ok := source.Token(tokenSymbol)
	if !ok {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUnsupportedRoute, "payment token "+strings.ToUpper(tokenSymbol)+" is not configured on "+source.Name)
	}
	if !common.IsHexAddress(recipient) {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUsage, "recipient is not a valid EVM address")
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(amountBaseUnits), 10)
	if !ok || amount.Sign() <= 0 {
		return model.TransactionPlan{}, clierr.New(clierr.CodeUsage, "payment amount must be a positive integer in base units")
	}

	data, err := erc20ABI.Pack("transfer", common.HexToAddress(recipient), amount)
	if err != nil {
		return model.TransactionPlan{}, clierr.Wrap(clierr.CodeInternal, "encode transfer calldata", err)
	}

	return model.TransactionPlan{
		Kind:            model.PlanKindSameChainTransfer,
		ChainKey:        source.Key,
		EVMChainID:      source.EVMChainID,
		To:              common.HexToAddress(token.Address).Hex(),
		Data:            "0x" + common.Bytes2Hex(data),
		Value:           "0",
		GasLimit:        TransferGasLimit,
		TokenAddress:    common.HexToAddress(token.Address).Hex(),
		AmountBaseUnits: amount.String(),
		Recipient:       common.HexToAddress(recipient).Hex(),
	}, nil
}
