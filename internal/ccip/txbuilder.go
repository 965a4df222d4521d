package ccip

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/rs/zerolog"
)

// SendGasLimit caps source-side execution of a routed send. Router
// sends touch token pulls and lane accounting, so the ceiling sits well
// above a plain transfer.
const SendGasLimit uint64 = 1_000_000

type Builder struct {
	registry  *registry.Registry
	estimator *Estimator
	log       zerolog.Logger
}

func NewBuilder(reg *registry.Registry, estimator *Estimator, log zerolog.Logger) *Builder {
	return &Builder{registry: reg, estimator: estimator, log: log}
}

type PlanInput struct {
	SourceKey       string
	DestinationKey  string
	Recipient       string
	TokenSymbol     string
	AmountBaseUnits string
	FeeToken        FeeTokenChoice
}

// BuildSendPlan resolves both networks fresh from the registry, builds
// the message, quotes the fee, and assembles the unsigned transaction.
func (b *Builder) BuildSendPlan(ctx context.Context, in PlanInput) (model.TransactionPlan, model.FeeEstimate, []string, error) {
	source, err := b.registry.Get(in.SourceKey)
	if err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, err
	}
	dest, err := b.registry.Get(in.DestinationKey)
	if err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, err
	}
	if !source.IsEVM() {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, clierr.New(clierr.CodeUnsupportedRoute, "source network must be EVM to build a send transaction")
	}
	if !common.IsHexAddress(source.Router) {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, clierr.New(clierr.CodeConfigCorruption, "source network has no router address")
	}
	// The registry validated the table at load; re-check the selector
	// here so a mutated in-memory row can never be encoded into calldata.
	if err := checkSelector(dest); err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, err
	}

	token, ok := source.Token(in.TokenSymbol)
	if !ok {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, clierr.New(clierr.CodeUnsupportedRoute, "payment token "+strings.ToUpper(in.TokenSymbol)+" is not configured on "+source.Name)
	}

	msg, warnings, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       in.Recipient,
		TokenAddress:    token.Address,
		AmountBaseUnits: in.AmountBaseUnits,
		FeeToken:        in.FeeToken,
	})
	if err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, err
	}

	fee, err := b.estimator.Estimate(ctx, source, dest, msg)
	if err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, err
	}
	if fee.UsedFallback {
		warnings = append(warnings, "router fee quote failed; plan uses a static fallback fee denominated in the native coin")
	}

	data, err := routerABI.Pack("ccipSend", dest.ChainSelector, msg)
	if err != nil {
		return model.TransactionPlan{}, model.FeeEstimate{}, nil, clierr.Wrap(clierr.CodeInternal, "encode ccipSend calldata", err)
	}

	// The native fee rides as msg.value; a token-denominated fee is
	// pulled by the router and the transaction carries no value.
	value := "0"
	if msg.FeeToken == (common.Address{}) {
		value = fee.BufferedFee
	}

	plan := model.TransactionPlan{
		Kind:            model.PlanKindCrossChainSend,
		ChainKey:        source.Key,
		EVMChainID:      source.EVMChainID,
		To:              common.HexToAddress(source.Router).Hex(),
		Data:            "0x" + common.Bytes2Hex(data),
		Value:           value,
		GasLimit:        SendGasLimit,
		TokenAddress:    common.HexToAddress(token.Address).Hex(),
		AmountBaseUnits: in.AmountBaseUnits,
		Recipient:       in.Recipient,
	}
	return plan, fee, warnings, nil
}

func checkSelector(n registry.NetworkConfig) error {
	if n.ChainSelector == 0 {
		return clierr.New(clierr.CodeConfigCorruption, "destination "+n.Key+" has a zero chain selector")
	}
	selector := strconv.FormatUint(n.ChainSelector, 10)
	if strings.EqualFold(selector, strings.TrimSpace(n.Name)) || selector == n.Key {
		return clierr.New(clierr.CodeConfigCorruption, "destination "+n.Key+" selector holds a name or key, not a selector")
	}
	return nil
}
