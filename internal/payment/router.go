package payment

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/allowance"
	ccip "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/ccip"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/rs/zerolog"
)

// Resolution outcomes.
const (
	OutcomeSameChain   = "same_chain"
	OutcomeCrossChain  = "cross_chain"
	OutcomeUnsupported = "unsupported"
)

// Resolution is the routing decision for one intent. An unsupported
// outcome carries guidance instead of a plan.
type Resolution struct {
	Outcome   string                `json:"outcome"`
	SourceKey string                `json:"source_key,omitempty"`
	Plan      model.TransactionPlan `json:"plan,omitempty"`
	Fee       model.FeeEstimate     `json:"fee,omitempty"`
	Warnings  []string              `json:"warnings,omitempty"`
	Guidance  string                `json:"guidance,omitempty"`
}

type Router struct {
	registry *registry.Registry
	builder  *ccip.Builder
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

func NewRouter(reg *registry.Registry, builder *ccip.Builder, log zerolog.Logger) *Router {
	return &Router{
		registry: reg,
		builder:  builder,
		log:      log,
		inflight: make(map[string]bool),
	}
}

// Resolve decides how the intent reaches the agent's network and
// builds the matching plan. Only one resolution per agent runs at a
// time; a second caller gets an in-flight error instead of a duplicate
// payment plan.
func (r *Router) Resolve(ctx context.Context, provider wallet.Provider, in Intent) (Resolution, error) {
	if err := in.validate(); err != nil {
		return Resolution{}, err
	}
	if err := r.begin(in.AgentID); err != nil {
		return Resolution{}, err
	}
	defer r.end(in.AgentID)

	activeKey, err := provider.ActiveChainKey(ctx)
	if err != nil {
		return Resolution{}, clierr.Wrap(clierr.CodeUnavailable, "read active network", err)
	}
	if activeKey == "" {
		return Resolution{
			Outcome:  OutcomeUnsupported,
			Guidance: "no active network detected; connect a wallet or select a source network",
		}, nil
	}

	sourceKey := registry.NormalizeKey(activeKey)
	destKey := registry.NormalizeKey(in.DestinationKey)
	dest, err := r.registry.Get(destKey)
	if err != nil {
		return Resolution{}, err
	}

	if sourceKey == dest.Key {
		source, err := r.registry.Get(sourceKey)
		if err != nil {
			return Resolution{}, err
		}
		plan, err := buildTransferPlan(source, in.TokenSymbol, in.Recipient, in.AmountBaseUnits)
		if err != nil {
			return Resolution{}, err
		}
		r.log.Info().Str("agent", in.AgentID).Str("network", sourceKey).Msg("resolved same-chain transfer")
		return Resolution{Outcome: OutcomeSameChain, SourceKey: sourceKey, Plan: plan}, nil
	}

	if !r.registry.RouteSupported(sourceKey, dest.Key) {
		return Resolution{
			Outcome:   OutcomeUnsupported,
			SourceKey: sourceKey,
			Guidance:  "no route from " + sourceKey + " to " + dest.Key + "; switch the wallet to a supported source network",
		}, nil
	}

	plan, fee, warnings, err := r.builder.BuildSendPlan(ctx, ccip.PlanInput{
		SourceKey:       sourceKey,
		DestinationKey:  dest.Key,
		Recipient:       in.Recipient,
		TokenSymbol:     in.TokenSymbol,
		AmountBaseUnits: in.AmountBaseUnits,
		FeeToken:        in.FeeToken,
	})
	if err != nil {
		return Resolution{}, err
	}

	// The router pulls the bridged tokens via transferFrom, so an
	// insufficient allowance is caught here with a concrete remedy
	// instead of surfacing later as an opaque simulation revert.
	payer := provider.Address()
	if payer == (common.Address{}) {
		warnings = append(warnings, "payer account not connected; router allowance not checked")
	} else {
		required, ok := new(big.Int).SetString(in.AmountBaseUnits, 10)
		if !ok {
			return Resolution{}, clierr.New(clierr.CodeUsage, "payment amount must be a positive integer in base units")
		}
		check, err := allowance.NewManager(r.registry, provider, r.log).Check(ctx, sourceKey, in.TokenSymbol, payer, required)
		if err != nil {
			return Resolution{}, err
		}
		if !check.Approved {
			return Resolution{}, clierr.New(clierr.CodeInsufficientAllowance,
				"router allowance "+check.Current+" is below the payment amount "+check.Required+
					"; grant it with: approve grant --source "+sourceKey+" --token "+in.TokenSymbol+" --amount "+in.AmountBaseUnits)
		}
	}
	r.log.Info().
		Str("agent", in.AgentID).
		Str("source", sourceKey).
		Str("destination", dest.Key).
		Bool("fee_fallback", fee.UsedFallback).
		Msg("resolved cross-chain send")
	return Resolution{
		Outcome:   OutcomeCrossChain,
		SourceKey: sourceKey,
		Plan:      plan,
		Fee:       fee,
		Warnings:  warnings,
	}, nil
}

func (r *Router) begin(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[agentID] {
		return clierr.New(clierr.CodeAttemptInFlight, "a payment to agent "+agentID+" is already being resolved")
	}
	r.inflight[agentID] = true
	return nil
}

func (r *Router) end(agentID string) {
	r.mu.Lock()
	delete(r.inflight, agentID)
	r.mu.Unlock()
}
