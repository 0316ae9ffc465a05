// Command mcsctl operates an agent from the command line. Connection
// settings come from flags, MCSCTL_* environment variables, a .env file or
// --config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Alwanly/mcs-agent/internal/agentclient"
	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if agentclient.IsForbidden(err) {
			fmt.Fprintln(os.Stderr, "hint: check --hostname and --secret, and that both clocks agree within 5s")
		}
		os.Exit(1)
	}
}

// app is shared by every subcommand once the root's PersistentPreRunE ran.
type app struct {
	v      *viper.Viper
	cfg    *config.ClientConfig
	client *agentclient.Client
	log    *logger.CanonicalLogger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}
	var cfgFile string

	root := &cobra.Command{
		Use:           "mcsctl",
		Short:         "Control a Minecraft server agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config: %w", err)
				}
			}
			cfg, err := config.LoadClientConfig(v)
			if err != nil {
				return err
			}
			log, err := logger.NewLoggerFromEnv("mcsctl")
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			a.client = agentclient.New(cfg, log)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("agent-url", "http://127.0.0.1:8000", "agent base URL")
	flags.String("hostname", "", "agent hostname used in the token")
	flags.String("secret", "", "shared token secret")
	flags.Duration("timeout", 0, "request timeout, streams excluded (default 30s)")
	flags.String("redis-addr", "", "redis address for watch")
	flags.String("redis-password", "", "redis password for watch")
	flags.Int("redis-db", 0, "redis database for watch")

	v.SetEnvPrefix("MCSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Flags only override the environment when set explicitly.
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newHealthCmd(a),
		newMakeCmd(a),
		newStatusCmd(a),
		newLogCmd(a),
		newTailCmd(a),
		newStreamCmd(a),
		newRunsCmd(a),
		newWatchCmd(a),
	)
	return root
}
