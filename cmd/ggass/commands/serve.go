package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/server"
)

func serve(cmd *cobra.Command, _ []string) error {
	cfg := cfgLoaded
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v, _ := cmd.Flags().GetString("discovery-addr"); v != "" {
		cfg.Server.DiscoveryAddr = v
	}

	s, err := server.New(cfg, server.WithLogger(ggass.Logger()))
	if err != nil {
		return err
	}
	return s.Run(cmd.Context())
}
