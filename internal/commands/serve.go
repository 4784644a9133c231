package commands

import (
	"log/slog"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oszuidwest/zwfm-audioctl/internal/metrics"
	"github.com/oszuidwest/zwfm-audioctl/internal/notify"
	"github.com/oszuidwest/zwfm-audioctl/internal/server"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
	"github.com/oszuidwest/zwfm-audioctl/internal/version"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor daemon with its HTTP API, level stream and alerts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.System.Listen = listen
			}
			slog.Info("using config file", "path", cfg.Path())

			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer util.SafeCloseFunc(svc, "audio service")()

			ctx, stop := signal.NotifyContext(cmd.Context(), util.ShutdownSignals()...)
			defer stop()

			m := metrics.New()
			notifier := notify.NewSilenceNotifier(ctx, cfg)
			commands := server.NewCommandHandler(cfg, svc, m)
			monitor := server.NewMonitor(cfg, svc, m, notifier)
			checker := version.NewChecker()
			srv := server.New(cfg, commands, monitor, m, checker)

			slog.Info("starting", "version", version.Version, "commit", version.Commit)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			g.Go(func() error { return monitor.Run(gctx) })
			g.Go(func() error {
				return server.WatchConfig(gctx, cfg, notifier.InvalidateGraphClient, monitor.ApplyConfig)
			})
			g.Go(func() error { return checker.Run(gctx) })

			err = g.Wait()

			// Let in-flight alerts finish before the process exits.
			notifier.Wait()
			slog.Info("stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides system.listen")
	return cmd
}
