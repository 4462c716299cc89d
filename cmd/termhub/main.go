package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/termhub/internal/api/http"
	"github.com/GriffinCanCode/termhub/internal/client"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/config"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/server"
)

var (
	version = "0.1.0"

	configFlag  string
	portFlag    string
	devFlag     bool
	serverFlag  string
	timeoutFlag time.Duration
	waitFlag    bool
	cwdFlag     string

	rootCmd = &cobra.Command{
		Use:           "termhub",
		Short:         "termhub - a PTY session daemon for terminal front ends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the session daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configFlag)
			if err != nil {
				return err
			}
			if portFlag != "" {
				cfg.Server.Port = portFlag
			}
			if devFlag {
				cfg.Logging.Development = true
				cfg.Logging.Level = "debug"
			}
			return serve(cfg)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of termhub",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "termhub version %s\n", version)
		},
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check that a daemon is answering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			c := client.New(serverFlag)
			if waitFlag {
				if err := c.WaitHealthy(ctx, 10, 2*time.Second); err != nil {
					return err
				}
			}
			h, err := c.Health(ctx)
			if err != nil {
				return err
			}
			uptime := time.Duration(h.UptimeSeconds * float64(time.Second)).Round(time.Second)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s, %d sessions, up %s)\n",
				h.Status, h.Version, h.Sessions, uptime)
			return nil
		},
	}

	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and control the sessions of a running daemon",
	}

	sessionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List live sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			sessions, err := client.New(serverFlag).ListSessions(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPID\tSIZE\tSHELL\tCWD\tSTARTED")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%d\t%dx%d\t%s\t%s\t%s\n",
					s.ID, s.PID, s.Cols, s.Rows, s.Shell, s.WorkingDir,
					s.StartedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	sessionsGetCmd = &cobra.Command{
		Use:   "get <id>",
		Short: "Describe one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := client.New(serverFlag).GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:      %s\n", s.ID)
			fmt.Fprintf(out, "pid:     %d\n", s.PID)
			fmt.Fprintf(out, "shell:   %s\n", s.Shell)
			fmt.Fprintf(out, "cwd:     %s\n", s.WorkingDir)
			fmt.Fprintf(out, "size:    %dx%d\n", s.Cols, s.Rows)
			fmt.Fprintf(out, "started: %s\n", s.StartedAt.Local().Format(time.DateTime))
			return nil
		},
	}

	sessionsInitCmd = &cobra.Command{
		Use:   "init <id>",
		Short: "Start a session unless one is already running for the id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			ok, err := client.New(serverFlag).InitSession(ctx, args[0], cwdFlag)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("session %s: shell failed to start", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s running\n", args[0])
			return nil
		},
	}

	sessionsKillCmd = &cobra.Command{
		Use:   "kill <id>...",
		Short: "Kill sessions and every process they started",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			c := client.New(serverFlag)
			var errs []error
			for _, sessionID := range args {
				ok, err := c.KillSession(ctx, sessionID)
				switch {
				case err != nil:
					errs = append(errs, fmt.Errorf("session %s: %w", sessionID, err))
				case !ok:
					errs = append(errs, fmt.Errorf("session %s: kill failed", sessionID))
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "session %s killed\n", sessionID)
				}
			}
			return errors.Join(errs...)
		},
	}
)

func init() {
	serveCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	serveCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Listen port, overrides the config")
	serveCmd.Flags().BoolVar(&devFlag, "dev", false, "Development logging at debug level")

	for _, cmd := range []*cobra.Command{healthCmd, sessionsCmd} {
		cmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://127.0.0.1:8000", "Daemon base URL")
		cmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Overall request timeout")
	}
	healthCmd.Flags().BoolVar(&waitFlag, "wait", false, "Retry until the daemon answers")
	sessionsInitCmd.Flags().StringVar(&cwdFlag, "cwd", "", "Initial working directory")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsGetCmd, sessionsInitCmd, sessionsKillCmd)
	rootCmd.AddCommand(serveCmd, versionCmd, healthCmd, sessionsCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeoutFlag)
}

func serve(cfg *config.Config) error {
	http.Version = version

	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if _, err := srv.Listen(); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		_ = srv.Shutdown(context.Background())
		return err
	}

	return srv.Shutdown(context.Background())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
