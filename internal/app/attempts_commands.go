package app

import (
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newAttemptsCommand() *cobra.Command {
	root := &cobra.Command{Use: "attempts", Short: "Recorded payment attempts"}

	var statusFilter string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded attempts, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts, err := s.attempts.List(statusFilter, limit)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempts, nil, cacheMetaBypass())
		},
	}
	list.Flags().StringVar(&statusFilter, "status", "", "Filter by attempt status")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of attempts")
	root.AddCommand(list)

	var attemptID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show one attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			attempt, err := s.attempts.Get(attemptID)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load attempt", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), attempt, nil, cacheMetaBypass())
		},
	}
	show.Flags().StringVar(&attemptID, "attempt", "", "Attempt id")
	_ = show.MarkFlagRequired("attempt")
	root.AddCommand(show)

	return root
}
