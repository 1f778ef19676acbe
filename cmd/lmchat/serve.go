package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lmchat/internal/httpapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr, corsOrigins string
	var openSession bool
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the chat session over HTTP",
		Example: "  lmchat serve --addr :8080 --open-session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := opts.openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.Config()
			if addr != "" {
				cfg.Addr = addr
			}
			origins := cfg.CORSOrigins
			if o := splitCSV(corsOrigins); len(o) > 0 {
				origins = o
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpapi.SetLogger(log)
			httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
			httpapi.SetCORSOptions(len(origins) > 0, origins, nil, nil)
			httpapi.SetBaseContext(ctx)

			if openSession {
				if err := a.Initialize(ctx, ""); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(a),
				ReadHeaderTimeout: 10 * time.Second,
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("addr", cfg.Addr).Str("model", cfg.ModelPath).Msg("lmchat listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("graceful shutdown error")
				}
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default: config addr or :8080)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; empty disables CORS")
	cmd.Flags().BoolVar(&openSession, "open-session", false, "Load the engine before accepting requests")
	return cmd
}
