package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Alwanly/mcs-agent/internal/logwindow"
	"github.com/Alwanly/mcs-agent/internal/models"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/pubsub"
	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show agent health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func newMakeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "make TARGET [KEY=value ...]",
		Short:   "Run an action target and wait for it",
		Example: "  mcsctl make start-minecraft JAVA_MEMORY=4\n  mcsctl make exec-command-minecraft 'COMMAND=say hello'",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			resp, err := a.client.Make(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s done (run %s)\n", args[0], resp.RunID)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Minecraft server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client.ServerStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	var (
		stride int
		cursor int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "log NAME",
		Short: "Print one window of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *int
			if cmd.Flags().Changed("cursor") {
				at = &cursor
			}
			win, err := a.client.ReadLog(cmd.Context(), args[0], stride, at)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), win)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), win.Data)
			return err
		},
	}
	cmd.Flags().IntVar(&stride, "stride", -logwindow.MaxStride, "lines to read, negative reads backward from the cursor")
	cmd.Flags().IntVar(&cursor, "cursor", 0, "byte offset, defaults to the end of the log")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the window with its offsets")
	return cmd
}

func newTailCmd(a *app) *cobra.Command {
	var (
		lines    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tail NAME",
		Short: "Follow a log by polling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			return a.client.Tail(cmd.Context(), args[0], lines, interval, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "lines of history to print first")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")
	return cmd
}

func newStreamCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "stream TARGET [KEY=value ...]",
		Short:   "Print a stream target's output until it exits or you interrupt",
		Example: "  mcsctl stream log-minecraft",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return a.client.Stream(cmd.Context(), args[0], params, cmd.OutOrStdout())
		},
	}
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		target string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent dispatch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := a.client.Runs(cmd.Context(), target, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "only runs of this target")
	cmd.Flags().IntVar(&limit, "limit", 20, "max rows")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print dispatch events published by the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.RedisAddr == "" {
				return errors.New("watch needs --redis-addr or MCSCTL_REDIS_ADDR")
			}
			ps, err := pubsub.NewRedisPubSub(cmd.Context(), pubsub.RedisConfig{
				Addr:     a.cfg.RedisAddr,
				Password: a.cfg.RedisPassword,
				DB:       a.cfg.RedisDB,
			}, a.log)
			if err != nil {
				return err
			}
			defer ps.Close()

			channel := pubsub.DispatchChannel(a.cfg.Hostname)
			msgs, err := ps.Subscribe(cmd.Context(), channel)
			if err != nil {
				return err
			}
			a.log.Info("watching dispatch events", logger.String("channel", channel))

			out := cmd.OutOrStdout()
			for msg := range msgs {
				line, err := formatEvent(msg)
				if err != nil {
					a.log.Warn("skipping malformed event", logger.String("payload", msg.Payload))
					continue
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

// parseParams turns KEY=value arguments into target params. The value may
// contain '=' and spaces.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("param %q is not KEY=value", arg)
		}
		if _, dup := params[k]; dup {
			return nil, fmt.Errorf("param %s given twice", k)
		}
		params[k] = v
	}
	return params, nil
}

func formatEvent(msg pubsub.Message) (string, error) {
	var ev models.DispatchEvent
	if err := msg.Decode(&ev); err != nil {
		return "", err
	}
	line := fmt.Sprintf("%s %s %s %s %s", ev.At.Local().Format(time.RFC3339), ev.RunID, ev.Discipline, ev.Target, ev.State)
	if ev.ExitCode != nil {
		line += fmt.Sprintf(" exit=%d", *ev.ExitCode)
	}
	return line, nil
}

func printRuns(w io.Writer, runs []models.DispatchRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTARGET\tSTATE\tEXIT\tID")
	for _, r := range runs {
		exit := "-"
		if r.ExitCode != nil {
			exit = fmt.Sprint(*r.ExitCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.StartedAt.Local().Format(time.DateTime), r.Target, r.State, exit, r.ID)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
