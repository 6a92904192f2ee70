package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cortex-on/agentdeck/pkg/server"
)

var (
	serveAddr  string
	serveRedis bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scripted demo backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverCfg := cfg.Server
		if serveAddr != "" {
			serverCfg.Addr = serveAddr
		}
		if serveRedis {
			serverCfg.Redis.Enabled = true
		}
		srv, err := server.New(serverCfg)
		if err != nil {
			return err
		}
		log.Info().Str("addr", serverCfg.Addr).Bool("redis", serverCfg.Redis.Enabled).Msg("starting demo backend")
		return srv.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveRedis, "redis", false, "publish task events through Redis Streams")
}
