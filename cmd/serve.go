package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort int
	serveAI   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP classification server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("ai") && serveAI {
			cfg.Classifier.Mode = string(classify.ModeAI)
		}
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initClassifier(cfg.Classifier.Mode == string(classify.ModeAI))
		if err != nil {
			return err
		}
		defer env.LogUsage()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newServeHandler(env),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return runServer(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveAI, "ai", false, "classify through the configured LLM provider")
	rootCmd.AddCommand(serveCmd)
}

func newServeHandler(env *classifierEnv) http.Handler {
	return server.NewRouter(server.Deps{
		Classifier: env.Dispatcher,
		Taxonomy:   env.Taxonomy,
		Calculator: env.Calculator,
		Model:      env.Model,
		Mode:       env.Dispatcher.Mode(),
	})
}

// runServer serves until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server shutdown")
		}
		return nil
	})

	return g.Wait()
}
