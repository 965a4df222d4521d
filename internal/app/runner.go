// Package app wires the CLI surface: cobra commands over the payment
// resolver, with every result rendered as a versioned envelope.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/agent"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/allowance"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/cache"
	ccip "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/ccip"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/config"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/httpx"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/logging"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/out"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/payment"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/schema"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/version"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/wallet"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	log         zerolog.Logger
	registry    *registry.Registry
	cache       *cache.Store
	attempts    *execution.Store
	profiles    *agent.Client
	root        *cobra.Command
	lastCommand string
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r, log: logging.Nop()}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	state.closeStores()
	if err == nil {
		return 0
	}

	state.renderError("", err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) closeStores() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.attempts != nil {
		_ = s.attempts.Close()
	}
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Cross-chain payment resolver for marketplace agents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.log = logging.New(s.runner.stderr, settings.LogLevel)
			s.lastCommand = trimRootPath(cmd.CommandPath())

			if s.registry == nil {
				reg, err := registry.Load(settings.NetworksFile, settings.RPCOverrides)
				if err != nil {
					return err
				}
				s.registry = reg
			}

			if settings.CacheEnabled && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open profile cache", err)
				}
				s.cache = cacheStore
			}
			if s.attempts == nil {
				store, err := execution.OpenStore(settings.AttemptStorePath, settings.AttemptLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open attempt store", err)
				}
				s.attempts = store
			}
			if s.profiles == nil {
				httpClient := httpx.New(settings.Timeout, settings.Retries)
				s.profiles = agent.NewClient(httpClient, s.registry, agent.ClientOptions{
					BaseURL: settings.MarketplaceURL,
					APIKey:  settings.MarketplaceKey,
					Cache:   s.cache,
					TTL:     settings.ProfileTTL,
				}, s.log)
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Network request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per marketplace request")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable the profile cache")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newNetworksCommand())
	cmd.AddCommand(s.newAgentsCommand())
	cmd.AddCommand(s.newPayCommand())
	cmd.AddCommand(s.newApproveCommand())
	cmd.AddCommand(s.newAttemptsCommand())
	cmd.AddCommand(s.newFeeCommand())
	cmd.AddCommand(s.newSimulateCommand())
	cmd.AddCommand(s.newQRCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			data, err := schema.Build(s.root, path)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass())
		},
	}
	return cmd
}

// router lazily builds the resolver against the given wallet provider.
func (s *runtimeState) router(provider wallet.Provider) *payment.Router {
	estimator := ccip.NewEstimator(provider, s.log)
	builder := ccip.NewBuilder(s.registry, estimator, s.log)
	return payment.NewRouter(s.registry, builder, s.log)
}

func (s *runtimeState) allowances(provider wallet.Provider) *allowance.Manager {
	return allowance.NewManager(s.registry, provider, s.log)
}

func (s *runtimeState) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := s.settings.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// On-chain flows outlive a single request timeout.
	return context.WithTimeout(cmd.Context(), 10*timeout)
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Cache:     cacheStatus,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := "internal_error"
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
		typ = errorType(cErr.Code)
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Cache:     cacheMetaBypass(),
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func errorType(code clierr.Code) string {
	switch code {
	case clierr.CodeUsage:
		return "usage_error"
	case clierr.CodeAuth:
		return "auth_error"
	case clierr.CodeRateLimited:
		return "rate_limited"
	case clierr.CodeUnavailable:
		return "unavailable"
	case clierr.CodeConfigCorruption:
		return "config_corruption"
	case clierr.CodeUnsupportedRoute:
		return "unsupported_route"
	case clierr.CodeFeeEstimation:
		return "fee_estimation_failed"
	case clierr.CodeInsufficientBalance:
		return "insufficient_balance"
	case clierr.CodeInsufficientAllowance:
		return "insufficient_allowance"
	case clierr.CodeSimulationReverted:
		return "simulation_reverted"
	case clierr.CodeUserRejected:
		return "user_rejected"
	case clierr.CodeSendFailed:
		return "send_failed"
	case clierr.CodeAttemptInFlight:
		return "attempt_in_flight"
	case clierr.CodeSigner:
		return "signer_error"
	case clierr.CodeUnconfirmed:
		return "unconfirmed"
	default:
		return "internal_error"
	}
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass"}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
