package command

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bcdh/teicompleter/internal/app"
	"github.com/bcdh/teicompleter/internal/app/devservice"
	"github.com/bcdh/teicompleter/internal/config"
	"github.com/bcdh/teicompleter/internal/server"
	"github.com/bcdh/teicompleter/internal/transform"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured transformations over HTTP",
		Long: "Serves the configured transformations over HTTP, recompiling scripts as they\n" +
			"change on disk. In dev mode a fake lexicon upstream is served alongside.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			engine, loader, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}

			grp, ctx := errgroup.WithContext(cmd.Context())

			// In dev mode, start the fake lexicon upstream
			if cfg.DevMode {
				if err = serveDevUpstream(ctx, grp, logger); err != nil {
					return err
				}
			}

			if err = watchScripts(ctx, grp, cfg, logger, loader); err != nil {
				return err
			}

			appServer := app.New(cfg.DevMode, logger, cfg, engine)
			serveApp(ctx, grp, cfg, logger, appServer)
			return grp.Wait()
		},
	}
}

func watchScripts(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	loader *transform.Loader,
) error {
	scripts := cfg.Scripts()
	if len(scripts) == 0 {
		return nil
	}
	watcher, err := transform.NewWatcher(loader, logger, scripts...)
	if err != nil {
		return err
	}
	grp.Go(func() error { return watcher.Run(ctx) })
	return nil
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	addr := cfg.Address
	if addr == "" {
		logger.WarnContext(ctx, "no address configured, app server disabled")
		return
	}

	listener, err := server.Listen(ctx, addr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	srv.Server.WriteTimeout = server.WriteTimeoutFor(cfg.ScriptTimeout)
	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", listener.Addr().String()),
		slog.Int("transformations", len(cfg.Transformations)),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}

func serveDevUpstream(
	ctx context.Context,
	grp *errgroup.Group,
	logger *slog.Logger,
) error {
	seed := devservice.Seed()
	handler := devservice.New(seed)

	listener, err := server.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: handler} //nolint:gosec // Serve() sets timeouts

	logger.InfoContext(ctx,
		"starting dev lexicon upstream...",
		slog.String("address", listener.Addr().String()),
		slog.Uint64("seed", seed),
		slog.Int("headwords", len(handler.Lexicon())),
	)
	server.Serve(ctx, grp, srv, listener, server.ShutdownTimeout)
	return nil
}
