package cmd

import (
	"github.com/spf13/cobra"

	"lesson-engine/config"
	server2 "lesson-engine/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and scanners",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
