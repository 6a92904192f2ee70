package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cortex-on/agentdeck/pkg/ui"
)

var chatURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Connect to a task backend and run the interactive client",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientCfg := cfg.Client
		if chatURL != "" {
			clientCfg.URL = chatURL
		}
		log.Info().Str("url", clientCfg.URL).Msg("connecting to task backend")
		return ui.Run(clientCfg)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "", "websocket URL of the task backend (overrides config)")
}
