package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docnodes/internal/api"
	"github.com/dgallion1/docnodes/internal/config"
	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/dgallion1/docnodes/internal/parser"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port, inputDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Serve the node registry, document upload and input directory listing over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if inputDir != "" {
				cfg.InputDir = inputDir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	cmd.Flags().StringVar(&inputDir, "input-dir", "", "Input directory (overrides INPUT_DIR)")
	return cmd
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.Level()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRegistry(ctx context.Context, cfg config.Config, log *slog.Logger) (*nodes.Registry, *inputdir.Store, error) {
	store, err := inputdir.New(ctx, cfg.InputDir)
	if err != nil {
		return nil, nil, err
	}
	reg, err := nodes.NewBuiltin(nodes.Deps{
		Store:     store,
		Parser:    parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		ChunkSize: cfg.DefaultChunkSize,
		DPI:       cfg.DefaultDPI,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return reg, store, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(os.Stdout, cfg)

	reg, store, err := newRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := api.NewServer(reg, store, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docnodes", "port", cfg.Port, "input_dir", store.Base(), "auth", cfg.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
