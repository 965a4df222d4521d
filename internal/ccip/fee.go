package ccip

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/rs/zerolog"
)

// Fee buffer: quoted fee plus 20%, integer math only.
var (
	feeBufferNum = big.NewInt(120)
	feeBufferDen = big.NewInt(100)
)

// Static fallbacks in wei when the router quote is unavailable. Lanes
// that leave the EVM family cost more to execute, so they carry a
// higher placeholder; the ceiling bounds both.
var (
	fallbackFeeSameFamily  = big.NewInt(1_000_000_000_000_000) // 0.001 native
	fallbackFeeCrossFamily = big.NewInt(3_000_000_000_000_000) // 0.003 native
	fallbackFeeCeiling     = big.NewInt(5_000_000_000_000_000) // 0.005 native
)

type Estimator struct {
	provider wallet.Provider
	log      zerolog.Logger
	now      func() time.Time
}

func NewEstimator(provider wallet.Provider, log zerolog.Logger) *Estimator {
	return &Estimator{provider: provider, log: log, now: time.Now}
}

// Estimate quotes the routing fee for the message on the source router
// and buffers it. A failed quote degrades to the static fallback and is
// reported through UsedFallback, never through an error: the attempt
// continues and the caller surfaces the warning. Estimates are quoted
// fresh on every call and never stored.
func (e *Estimator) Estimate(ctx context.Context, source, dest registry.NetworkConfig, msg Message) (model.FeeEstimate, error) {
	estimate := model.FeeEstimate{
		DestinationKey:  dest.Key,
		FeeToken:        feeTokenLabel(source, msg.FeeToken),
		EstimatedAtUnix: e.now().UTC().Unix(),
	}

	raw, err := e.quote(ctx, source, dest.ChainSelector, msg)
	if err != nil {
		fallback := fallbackFee(source, dest)
		e.log.Warn().
			Str("source", source.Key).
			Str("destination", dest.Key).
			Str("fallback_wei", fallback.String()).
			Err(err).
			Msg("router fee quote failed, using static fallback")
		estimate.RawFee = fallback.String()
		estimate.BufferedFee = fallback.String()
		estimate.UsedFallback = true
		estimate.FallbackReason = err.Error()
		// The static figure is always native wei; flag the mismatch
		// when the plan itself pays the fee in a token.
		if estimate.FeeToken != "native" {
			estimate.FallbackReason += "; fallback figure is denominated in the native coin"
		}
		return estimate, nil
	}

	estimate.RawFee = raw.String()
	estimate.BufferedFee = BufferFee(raw).String()
	return estimate, nil
}

func (e *Estimator) quote(ctx context.Context, source registry.NetworkConfig, destSelector uint64, msg Message) (*big.Int, error) {
	data, err := routerABI.Pack("getFee", destSelector, msg)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeFeeEstimation, "encode getFee call", err)
	}
	router := common.HexToAddress(source.Router)
	out, err := e.provider.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeFeeEstimation, "router getFee call", err)
	}
	vals, err := routerABI.Unpack("getFee", out)
	if err != nil || len(vals) != 1 {
		return nil, clierr.Wrap(clierr.CodeFeeEstimation, "decode getFee result", err)
	}
	fee, ok := vals[0].(*big.Int)
	if !ok {
		return nil, clierr.New(clierr.CodeFeeEstimation, "getFee returned a non-integer value")
	}
	return fee, nil
}

// BufferFee applies the 20% safety margin, truncating toward zero.
func BufferFee(raw *big.Int) *big.Int {
	buffered := new(big.Int).Mul(raw, feeBufferNum)
	return buffered.Div(buffered, feeBufferDen)
}

func fallbackFee(source, dest registry.NetworkConfig) *big.Int {
	fee := fallbackFeeSameFamily
	if source.Family != dest.Family {
		fee = fallbackFeeCrossFamily
	}
	if fee.Cmp(fallbackFeeCeiling) > 0 {
		return new(big.Int).Set(fallbackFeeCeiling)
	}
	return new(big.Int).Set(fee)
}

func feeTokenLabel(source registry.NetworkConfig, feeToken common.Address) string {
	if feeToken == (common.Address{}) {
		return "native"
	}
	for symbol, addr := range source.FeeTokens {
		if common.HexToAddress(addr) == feeToken {
			return symbol
		}
	}
	return feeToken.Hex()
}
