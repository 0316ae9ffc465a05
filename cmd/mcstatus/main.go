// Command mcstatus pings the local Minecraft server and prints its status as
// JSON. It is the default recipe behind the agent's server-status target and
// exits 1 when the server does not answer.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/Alwanly/mcs-agent/internal/mcping"
	"github.com/Alwanly/mcs-agent/internal/server/agent/dto"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:           "mcstatus",
		Short:         "Print the Minecraft server status as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.NewLoggerFromEnv("mcstatus")
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			st, err := mcping.Ping(ctx, addr, timeout)
			if err != nil {
				log.WithError(err).Error("server did not answer", logger.String("addr", addr), logger.Duration("timeout", timeout))
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(toServerStatus(st))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost", "server address, host or host:port")
	cmd.Flags().DurationVar(&timeout, "timeout", mcping.DefaultTimeout, "dial and read timeout")
	return cmd
}

func toServerStatus(st *mcping.Status) dto.ServerStatus {
	return dto.ServerStatus{
		Description:   st.Description,
		Version:       st.Version,
		MaxPlayers:    st.MaxPlayers,
		OnlinePlayers: st.OnlinePlayers,
	}
}
