package app

import (
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newNetworksCommand() *cobra.Command {
	root := &cobra.Command{Use: "networks", Short: "Configured networks and routes"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			networks := s.registry.Networks()
			summaries := make([]model.NetworkSummary, 0, len(networks))
			for _, n := range networks {
				summaries = append(summaries, networkSummary(n))
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summaries, nil, cacheMetaBypass())
		},
	}
	root.AddCommand(list)

	var networkArg string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show one network",
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := s.registry.Get(registry.NormalizeKey(networkArg))
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), networkSummary(network), nil, cacheMetaBypass())
		},
	}
	show.Flags().StringVar(&networkArg, "network", "", "Network key (chain id or name)")
	_ = show.MarkFlagRequired("network")
	root.AddCommand(show)

	routes := &cobra.Command{
		Use:   "routes",
		Short: "List supported cross-chain routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := s.registry.Routes()
			summaries := make([]model.RouteSummary, 0, len(pairs))
			for _, pair := range pairs {
				summaries = append(summaries, model.RouteSummary{Source: pair[0], Destination: pair[1]})
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summaries, nil, cacheMetaBypass())
		},
	}
	root.AddCommand(routes)

	return root
}

func networkSummary(n registry.NetworkConfig) model.NetworkSummary {
	return model.NetworkSummary{
		Key:            n.Key,
		Name:           n.Name,
		Family:         n.Family,
		EVMChainID:     n.EVMChainID,
		ChainSelector:  n.ChainSelector,
		Router:         n.Router,
		NativeSymbol:   n.NativeSymbol,
		NativeDecimals: n.NativeDecimals,
	}
}

func (s *runtimeState) newAgentsCommand() *cobra.Command {
	root := &cobra.Command{Use: "agents", Short: "Marketplace agent profiles"}

	var agentArg string
	show := &cobra.Command{
		Use:   "show",
		Short: "Fetch an agent's payment profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			profile, cacheStatus, err := s.profiles.Profile(ctx, agentArg)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), profile, nil, cacheStatus)
		},
	}
	show.Flags().StringVar(&agentArg, "agent", "", "Agent id")
	_ = show.MarkFlagRequired("agent")
	root.AddCommand(show)

	return root
}
