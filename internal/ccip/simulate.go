package ccip

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/rs/zerolog"
)

type Simulator struct {
	provider wallet.Provider
	log      zerolog.Logger
}

func NewSimulator(provider wallet.Provider, log zerolog.Logger) *Simulator {
	return &Simulator{provider: provider, log: log}
}

// Preflight runs the cheap checks before the dry run: the router must
// accept the destination lane and the sender must hold the value the
// transaction carries.
func (s *Simulator) Preflight(ctx context.Context, source registry.NetworkConfig, destSelector uint64, from common.Address, value *big.Int) error {
	data, err := routerABI.Pack("isChainSupported", destSelector)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "encode isChainSupported call", err)
	}
	router := common.HexToAddress(source.Router)
	out, err := s.provider.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data})
	if err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "router isChainSupported call", err)
	}
	vals, err := routerABI.Unpack("isChainSupported", out)
	if err != nil || len(vals) != 1 {
		return clierr.Wrap(clierr.CodeUnavailable, "decode isChainSupported result", err)
	}
	supported, ok := vals[0].(bool)
	if !ok || !supported {
		return clierr.New(clierr.CodeUnsupportedRoute, "router does not support the destination lane")
	}

	if value != nil && value.Sign() > 0 {
		balance, err := s.provider.NativeBalance(ctx, from)
		if err != nil {
			return err
		}
		if balance.Cmp(value) < 0 {
			return clierr.New(clierr.CodeInsufficientBalance, "native balance does not cover the routing fee")
		}
	}
	return nil
}

// DryRun replays the exact planned transaction through eth_call. A
// successful call yields the message id the router would emit; a revert
// is decoded layer by layer and reported with the decoding method.
func (s *Simulator) DryRun(ctx context.Context, plan model.TransactionPlan, from common.Address) (model.SimulationResult, error) {
	to := common.HexToAddress(plan.To)
	value, ok := new(big.Int).SetString(plan.Value, 10)
	if !ok {
		return model.SimulationResult{}, clierr.New(clierr.CodeInternal, "plan value is not an integer")
	}
	data := common.FromHex(plan.Data)

	out, err := s.provider.CallContract(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		reason, method, cause := DecodeRevert(err)
		s.log.Debug().
			Str("reason", reason).
			Str("decoded_by", method).
			Str("known_cause", cause).
			Msg("send simulation reverted")
		result := model.SimulationResult{
			OK:           false,
			RevertReason: reason,
			DecodedBy:    method,
			KnownCause:   cause,
		}
		return result, clierr.Wrap(clierr.CodeSimulationReverted, "simulation reverted: "+reason, err)
	}

	result := model.SimulationResult{OK: true}
	if plan.Kind == model.PlanKindCrossChainSend {
		result.MessageID = decodeMessageID(out)
	}
	return result, nil
}

func decodeMessageID(out []byte) string {
	vals, err := routerABI.Unpack("ccipSend", out)
	if err != nil || len(vals) != 1 {
		return ""
	}
	id, ok := vals[0].([32]byte)
	if !ok {
		return ""
	}
	hex := common.BytesToHash(id[:]).Hex()
	if strings.TrimLeft(hex[2:], "0") == "" {
		return ""
	}
	return hex
}
