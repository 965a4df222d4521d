package app

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/allowance"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/spf13/cobra"
)

type approveFlags struct {
	source    string
	rpcURL    string
	token     string
	owner     string
	amount    string
	keySource string
	yes       bool
}

func parseBaseUnits(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, clierr.New(clierr.CodeUsage, "amount must be a positive integer in base units")
	}
	return amount, nil
}

func (s *runtimeState) newApproveCommand() *cobra.Command {
	root := &cobra.Command{Use: "approve", Short: "ERC-20 allowances for the routing contract"}

	var checkFlags approveFlags
	check := &cobra.Command{
		Use:   "check",
		Short: "Read the current router allowance for a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			if !common.IsHexAddress(checkFlags.owner) {
				return clierr.New(clierr.CodeUsage, "owner must be a hex address")
			}
			required, err := parseBaseUnits(checkFlags.amount)
			if err != nil {
				return err
			}
			provider, w, err := s.connect(ctx, checkFlags.source, checkFlags.rpcURL, nil)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}
			result, err := s.allowances(provider).Check(ctx,
				registry.NormalizeKey(checkFlags.source), checkFlags.token,
				common.HexToAddress(checkFlags.owner), required)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), result, nil, cacheMetaBypass())
		},
	}
	check.Flags().StringVar(&checkFlags.source, "source", "", "Source network key")
	check.Flags().StringVar(&checkFlags.rpcURL, "rpc-url", "", "Override the source RPC endpoint")
	check.Flags().StringVar(&checkFlags.token, "token", "", "Token symbol")
	check.Flags().StringVar(&checkFlags.owner, "owner", "", "Allowance owner address")
	check.Flags().StringVar(&checkFlags.amount, "amount", "", "Required amount in base units")
	_ = check.MarkFlagRequired("source")
	_ = check.MarkFlagRequired("token")
	_ = check.MarkFlagRequired("owner")
	_ = check.MarkFlagRequired("amount")
	root.AddCommand(check)

	var grantFlags approveFlags
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Build and optionally broadcast a router approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()

			amount, err := parseBaseUnits(grantFlags.amount)
			if err != nil {
				return err
			}
			txSigner, err := s.loadSigner(grantFlags.keySource)
			if err != nil {
				return err
			}
			provider, w, err := s.connect(ctx, grantFlags.source, grantFlags.rpcURL, txSigner)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}

			plan, err := s.allowances(provider).BuildApprovePlan(ctx, allowance.ApproveInput{
				SourceKey:   registry.NormalizeKey(grantFlags.source),
				TokenSymbol: grantFlags.token,
				Owner:       txSigner.Address(),
				Amount:      amount,
			})
			if err != nil {
				return err
			}

			if !grantFlags.yes {
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), plan,
					[]string{"approval built but not sent; re-run with --yes to broadcast"}, cacheMetaBypass())
			}

			attempt := execution.NewAttempt("")
			attempt.SourceKey = plan.ChainKey
			attempt.Plan = plan
			attempt.SetStatus(execution.StatusBuilt)
			if err := s.attempts.Save(attempt); err != nil {
				s.log.Warn().Err(err).Msg("attempt store write failed")
			}
			sender := execution.NewSender(s.log)
			if err := sender.Send(ctx, w.Client(), txSigner, s.attempts, &attempt, execution.DefaultSendOptions()); err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempt, nil, cacheMetaBypass())
		},
	}
	grant.Flags().StringVar(&grantFlags.source, "source", "", "Source network key")
	grant.Flags().StringVar(&grantFlags.rpcURL, "rpc-url", "", "Override the source RPC endpoint")
	grant.Flags().StringVar(&grantFlags.token, "token", "", "Token symbol")
	grant.Flags().StringVar(&grantFlags.amount, "amount", "", "Approval amount in base units")
	grant.Flags().StringVar(&grantFlags.keySource, "key-source", "auto", "Signer key source (auto, env, file, keystore)")
	grant.Flags().BoolVar(&grantFlags.yes, "yes", false, "Broadcast the approval")
	_ = grant.MarkFlagRequired("source")
	_ = grant.MarkFlagRequired("token")
	_ = grant.MarkFlagRequired("amount")
	root.AddCommand(grant)

	return root
}
