package app

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/agent"
	ccip "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/ccip"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution/signer"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/id"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/payment"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/spf13/cobra"
)

type payFlags struct {
	agent         string
	source        string
	rpcURL        string
	amount        string
	amountDecimal string
	feeToken      string
	keySource     string
	yes           bool
}

func (f *payFlags) register(cmd *cobra.Command, withSigner bool) {
	cmd.Flags().StringVar(&f.agent, "agent", "", "Agent id to pay")
	cmd.Flags().StringVar(&f.source, "source", "", "Source network key the wallet is connected to")
	cmd.Flags().StringVar(&f.rpcURL, "rpc-url", "", "Override the source RPC endpoint")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Override amount in token base units")
	cmd.Flags().StringVar(&f.amountDecimal, "amount-decimal", "", "Override amount as a decimal string")
	cmd.Flags().StringVar(&f.feeToken, "fee-token", "", "Routing fee token symbol (default native)")
	_ = cmd.MarkFlagRequired("agent")
	if withSigner {
		cmd.Flags().StringVar(&f.keySource, "key-source", "auto", "Signer key source (auto, env, file, keystore)")
		cmd.Flags().BoolVar(&f.yes, "yes", false, "Confirm broadcasting without prompting")
	}
}

// disconnectedProvider stands in when no source network was selected;
// resolution reports guidance instead of failing.
type disconnectedProvider struct{}

func (disconnectedProvider) ActiveChainKey(ctx context.Context) (string, error) { return "", nil }

func (disconnectedProvider) Address() common.Address { return common.Address{} }

func (disconnectedProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, clierr.New(clierr.CodeUsage, "no source network selected")
}

func (disconnectedProvider) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return nil, clierr.New(clierr.CodeUsage, "no source network selected")
}

func (disconnectedProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return nil, clierr.New(clierr.CodeUsage, "no source network selected")
}

// connect dials the selected source network. With no selection the
// disconnected provider is returned and resolution degrades to
// guidance.
func (s *runtimeState) connect(ctx context.Context, sourceKey, rpcURL string, txSigner signer.Signer) (wallet.Provider, *wallet.EVMWallet, error) {
	if strings.TrimSpace(sourceKey) == "" {
		return disconnectedProvider{}, nil, nil
	}
	network, err := s.registry.Get(registry.NormalizeKey(sourceKey))
	if err != nil {
		return nil, nil, err
	}
	endpoint, err := registry.ResolveRPCURL(rpcURL, network)
	if err != nil {
		return nil, nil, clierr.Wrap(clierr.CodeUsage, "resolve rpc endpoint", err)
	}
	w, err := wallet.Dial(ctx, endpoint, txSigner)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

func (s *runtimeState) loadSigner(keySource string) (signer.Signer, error) {
	txSigner, err := signer.NewLocalSignerFromEnv(keySource)
	if err != nil {
		return nil, err
	}
	return txSigner, nil
}

// buildIntent turns an agent profile plus flag overrides into a
// validated payment intent.
func (s *runtimeState) buildIntent(ctx context.Context, f payFlags) (payment.Intent, agent.Profile, model.CacheStatus, error) {
	profile, cacheStatus, err := s.profiles.Profile(ctx, f.agent)
	if err != nil {
		return payment.Intent{}, agent.Profile{}, cacheStatus, err
	}

	destKey := registry.NormalizeKey(profile.ChainKey)
	dest, err := s.registry.Get(destKey)
	if err != nil {
		return payment.Intent{}, agent.Profile{}, cacheStatus, err
	}
	token, ok := dest.Token(profile.TokenSymbol)
	if !ok {
		return payment.Intent{}, agent.Profile{}, cacheStatus, clierr.New(clierr.CodeUnsupportedRoute,
			"agent token "+strings.ToUpper(profile.TokenSymbol)+" is not configured on "+dest.Name)
	}

	baseUnits := ""
	if f.amount != "" || f.amountDecimal != "" {
		baseUnits, _, err = id.NormalizeAmount(f.amount, f.amountDecimal, token.Decimals)
	} else {
		baseUnits, err = id.ToBaseUnits(profile.AmountDecimal, token.Decimals)
	}
	if err != nil {
		return payment.Intent{}, agent.Profile{}, cacheStatus, err
	}

	feeToken := ccip.FeeTokenNative()
	symbol := f.feeToken
	if symbol == "" {
		symbol = profile.FeeToken
	}
	if strings.TrimSpace(symbol) != "" && !strings.EqualFold(symbol, "native") {
		feeToken = ccip.FeeTokenSymbol(symbol)
	}

	return payment.Intent{
		AgentID:         profile.AgentID,
		Recipient:       profile.RecipientAddress,
		TokenSymbol:     profile.TokenSymbol,
		AmountBaseUnits: baseUnits,
		DestinationKey:  destKey,
		FeeToken:        feeToken,
	}, profile, cacheStatus, nil
}

type planPayload struct {
	AttemptID  string             `json:"attempt_id,omitempty"`
	Resolution payment.Resolution `json:"resolution"`
}

// resolveAndRecord runs resolution and persists the attempt record.
func (s *runtimeState) resolveAndRecord(ctx context.Context, provider wallet.Provider, in payment.Intent) (execution.Attempt, payment.Resolution, error) {
	res, err := s.router(provider).Resolve(ctx, provider, in)
	if err != nil {
		return execution.Attempt{}, payment.Resolution{}, err
	}

	attempt := execution.NewAttempt(in.AgentID)
	attempt.Outcome = res.Outcome
	attempt.SourceKey = res.SourceKey
	attempt.DestinationKey = in.DestinationKey
	if res.Outcome != payment.OutcomeUnsupported {
		attempt.Plan = res.Plan
		attempt.Fee = res.Fee
		attempt.SetStatus(execution.StatusBuilt)
	}
	if err := s.attempts.Save(attempt); err != nil {
		s.log.Warn().Err(err).Msg("attempt store write failed")
	}
	return attempt, res, nil
}

func (s *runtimeState) newPayCommand() *cobra.Command {
	root := &cobra.Command{Use: "pay", Short: "Resolve and execute agent payments"}

	var planFlags payFlags
	plan := &cobra.Command{
		Use:   "plan",
		Short: "Resolve a payment and build the transaction without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			intent, _, cacheStatus, err := s.buildIntent(ctx, planFlags)
			if err != nil {
				return err
			}
			provider, w, err := s.connect(ctx, planFlags.source, planFlags.rpcURL, nil)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}
			attempt, res, err := s.resolveAndRecord(ctx, provider, intent)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()),
				planPayload{AttemptID: attempt.AttemptID, Resolution: res}, res.Warnings, cacheStatus)
		},
	}
	planFlags.register(plan, false)
	root.AddCommand(plan)

	var runFlags payFlags
	run := &cobra.Command{
		Use:   "run",
		Short: "Resolve, simulate, and broadcast a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			intent, _, cacheStatus, err := s.buildIntent(ctx, runFlags)
			if err != nil {
				return err
			}
			txSigner, err := s.loadSigner(runFlags.keySource)
			if err != nil {
				return err
			}
			provider, w, err := s.connect(ctx, runFlags.source, runFlags.rpcURL, txSigner)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}

			attempt, res, err := s.resolveAndRecord(ctx, provider, intent)
			if err != nil {
				return err
			}
			if res.Outcome == payment.OutcomeUnsupported {
				return s.emitSuccess(trimRootPath(cmd.CommandPath()),
					planPayload{AttemptID: attempt.AttemptID, Resolution: res}, res.Warnings, cacheStatus)
			}

			// A wallet that hops networks between resolution and broadcast
			// would sign against the wrong chain; watch for that window.
			changes, stopWatch := wallet.WatchChainChanges(provider, 0)
			defer stopWatch()

			if err := s.simulateAttempt(ctx, provider, &attempt); err != nil {
				return err
			}

			if !runFlags.yes {
				return clierr.New(clierr.CodeUserRejected, "broadcast requires confirmation; re-run with --yes")
			}

			select {
			case event := <-changes:
				attempt.Fail(execution.StatusError, "source network changed during the attempt")
				_ = s.attempts.Save(attempt)
				return clierr.New(clierr.CodeUsage,
					"source network changed from "+event.PreviousKey+" to "+event.CurrentKey+"; re-run the payment")
			default:
			}

			sender := execution.NewSender(s.log)
			if err := sender.Send(ctx, w.Client(), txSigner, s.attempts, &attempt, execution.DefaultSendOptions()); err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempt, res.Warnings, cacheStatus)
		},
	}
	runFlags.register(run, true)
	root.AddCommand(run)

	var statusAttempt string
	status := &cobra.Command{
		Use:   "status",
		Short: "Show a recorded payment attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			attempt, err := s.attempts.Get(statusAttempt)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load attempt", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempt, nil, cacheMetaBypass())
		},
	}
	status.Flags().StringVar(&statusAttempt, "attempt", "", "Attempt id")
	_ = status.MarkFlagRequired("attempt")
	root.AddCommand(status)

	return root
}

// simulateAttempt runs the preflight checks and the eth_call dry run,
// recording the outcome on the attempt.
func (s *runtimeState) simulateAttempt(ctx context.Context, provider wallet.Provider, attempt *execution.Attempt) error {
	sim := ccip.NewSimulator(provider, s.log)

	if attempt.Plan.Kind == model.PlanKindCrossChainSend {
		source, err := s.registry.Get(attempt.SourceKey)
		if err != nil {
			return err
		}
		dest, err := s.registry.Get(attempt.DestinationKey)
		if err != nil {
			return err
		}
		value, ok := new(big.Int).SetString(attempt.Plan.Value, 10)
		if !ok {
			return clierr.New(clierr.CodeInternal, "plan value is not an integer")
		}
		if err := sim.Preflight(ctx, source, dest.ChainSelector, provider.Address(), value); err != nil {
			attempt.Fail(execution.StatusSimulatedFail, err.Error())
			_ = s.attempts.Save(*attempt)
			return err
		}
	}

	result, err := sim.DryRun(ctx, attempt.Plan, provider.Address())
	attempt.Simulation = result
	if err != nil {
		attempt.Fail(execution.StatusSimulatedFail, err.Error())
		_ = s.attempts.Save(*attempt)
		return err
	}
	attempt.MessageID = result.MessageID
	attempt.SetStatus(execution.StatusSimulatedOK)
	_ = s.attempts.Save(*attempt)
	return nil
}
