package app

import (
	"strings"

	ccip "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/ccip"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/qr"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/spf13/cobra"
)

type feeFlags struct {
	source      string
	destination string
	rpcURL      string
	token       string
	amount      string
	recipient   string
	feeToken    string
}

func (s *runtimeState) newFeeCommand() *cobra.Command {
	root := &cobra.Command{Use: "fee", Short: "Routing fee quotes"}

	var f feeFlags
	estimate := &cobra.Command{
		Use:   "estimate",
		Short: "Quote the cross-chain routing fee for a transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			source, err := s.registry.Get(registry.NormalizeKey(f.source))
			if err != nil {
				return err
			}
			dest, err := s.registry.Get(registry.NormalizeKey(f.destination))
			if err != nil {
				return err
			}
			if !s.registry.RouteSupported(source.Key, dest.Key) {
				return clierr.New(clierr.CodeUnsupportedRoute, "no route from "+source.Key+" to "+dest.Key)
			}
			token, ok := source.Token(f.token)
			if !ok {
				return clierr.New(clierr.CodeUnsupportedRoute, "payment token "+strings.ToUpper(f.token)+" is not configured on "+source.Name)
			}

			feeToken := ccip.FeeTokenNative()
			if strings.TrimSpace(f.feeToken) != "" && !strings.EqualFold(f.feeToken, "native") {
				feeToken = ccip.FeeTokenSymbol(f.feeToken)
			}
			msg, warnings, err := ccip.BuildMessage(ccip.MessageInput{
				Source:          source,
				Destination:     dest,
				Recipient:       f.recipient,
				TokenAddress:    token.Address,
				AmountBaseUnits: f.amount,
				FeeToken:        feeToken,
			})
			if err != nil {
				return err
			}

			provider, w, err := s.connect(ctx, source.Key, f.rpcURL, nil)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}
			fee, err := ccip.NewEstimator(provider, s.log).Estimate(ctx, source, dest, msg)
			if err != nil {
				return err
			}
			if fee.UsedFallback {
				warnings = append(warnings, "router fee quote failed; showing a static fallback fee denominated in the native coin")
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), fee, warnings, cacheMetaBypass())
		},
	}
	estimate.Flags().StringVar(&f.source, "source", "", "Source network key")
	estimate.Flags().StringVar(&f.destination, "destination", "", "Destination network key")
	estimate.Flags().StringVar(&f.rpcURL, "rpc-url", "", "Override the source RPC endpoint")
	estimate.Flags().StringVar(&f.token, "token", "", "Payment token symbol")
	estimate.Flags().StringVar(&f.amount, "amount", "", "Amount in token base units")
	estimate.Flags().StringVar(&f.recipient, "recipient", "", "Recipient address on the destination network")
	estimate.Flags().StringVar(&f.feeToken, "fee-token", "", "Routing fee token symbol (default native)")
	_ = estimate.MarkFlagRequired("source")
	_ = estimate.MarkFlagRequired("destination")
	_ = estimate.MarkFlagRequired("token")
	_ = estimate.MarkFlagRequired("amount")
	_ = estimate.MarkFlagRequired("recipient")
	root.AddCommand(estimate)

	return root
}

func (s *runtimeState) newSimulateCommand() *cobra.Command {
	var attemptID, rpcURL string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a built attempt through eth_call",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			attempt, err := s.attempts.Get(attemptID)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load attempt", err)
			}
			if attempt.Plan.Kind == "" {
				return clierr.New(clierr.CodeUsage, "attempt has no built transaction to simulate")
			}
			provider, w, err := s.connect(ctx, attempt.SourceKey, rpcURL, nil)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}
			if err := s.simulateAttempt(ctx, provider, &attempt); err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempt, nil, cacheMetaBypass())
		},
	}
	cmd.Flags().StringVar(&attemptID, "attempt", "", "Attempt id")
	cmd.Flags().StringVar(&rpcURL, "rpc-url", "", "Override the source RPC endpoint")
	_ = cmd.MarkFlagRequired("attempt")
	return cmd
}

func (s *runtimeState) newQRCommand() *cobra.Command {
	var attemptID string
	var size int
	var withPNG bool
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Render a payment request QR for a built attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			attempt, err := s.attempts.Get(attemptID)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load attempt", err)
			}
			if attempt.Plan.Kind == "" || attempt.Plan.Kind == model.PlanKindApproval {
				return clierr.New(clierr.CodeUsage, "attempt has no payment transaction to encode")
			}
			payload, err := qr.Build(attempt.Plan, size, withPNG)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), payload, nil, cacheMetaBypass())
		},
	}
	cmd.Flags().StringVar(&attemptID, "attempt", "", "Attempt id")
	cmd.Flags().IntVar(&size, "size", 512, "PNG edge size in pixels")
	cmd.Flags().BoolVar(&withPNG, "png", false, "Include a base64 PNG rendering")
	_ = cmd.MarkFlagRequired("attempt")
	return cmd
}
