package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/morrowland-code/morrowland77777/internal/daemon"
)

func newServeCmd(a *app) *cobra.Command {
	var fromSnapshot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over a unix socket",
		Long: `Compile the corpus (or load the newest sqlite snapshot) once and answer
JSON-RPC 2.0 lookups on daemon.socket_path until interrupted. Only one
instance runs per daemon.base_dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			lm := daemon.NewLifecycleManager(a.cfg.Daemon.BaseDir, a.cfg.Daemon.SocketPath)
			if err := lm.Acquire(); err != nil {
				if errors.Is(err, daemon.ErrLockHeld) {
					a.printf("Daemon already running on %s\n", a.cfg.Daemon.SocketPath)
					return nil
				}
				return err
			}
			defer lm.Cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := a.loadCorpus(ctx, fromSnapshot)
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			return daemon.NewDaemon(a.cfg.Daemon.SocketPath, c, a.metrics).Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&fromSnapshot, "from-snapshot", false, "Serve the latest sqlite snapshot instead of compiling")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		audit   bool
		stats   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query [CODE]",
		Short: "Ask a running daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := daemon.Dial(ctx, a.cfg.Daemon.SocketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			switch {
			case audit:
				result, err := client.Audit(ctx)
				if err != nil {
					return err
				}
				return a.printJSON(result)
			case stats:
				result, err := client.Stats(ctx)
				if err != nil {
					return err
				}
				return a.printJSON(result)
			}

			var code string
			if len(args) == 1 {
				code = args[0]
			}
			result, err := client.Lookup(ctx, code)
			if err != nil {
				return err
			}
			a.printf("%s\n%s\n\n%s\n", result.Code, result.Name, result.DetailedText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&audit, "audit", false, "Print the daemon's audit report")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print build and lookup statistics")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	cmd.MarkFlagsMutuallyExclusive("audit", "stats")
	return cmd
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	a.printf("%s\n", data)
	return nil
}
