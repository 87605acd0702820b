// Command server runs a local minechat server with a listen channel and a
// write channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/config"
	"github.com/omochice/minechat/internal/server"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load[config.Server]()
	if err != nil {
		color.Error.Println(err)
		return exitConfig
	}

	if err := newCommand(&cfg).Execute(); err != nil {
		color.Error.Println(err)
		if errors.Is(err, config.ErrInvalid) {
			return exitConfig
		}
		return exitFailure
	}
	return exitOK
}

func newCommand(cfg *config.Server) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Run a local minechat server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&cfg.ListenAddress, "listen", cfg.ListenAddress, "listen channel address")
	flags.StringVar(&cfg.WriteAddress, "write", cfg.WriteAddress, "write channel address")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	return cmd
}

func serve(ctx context.Context, cfg *config.Server) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	srv := server.New(cfg.ListenAddress, cfg.WriteAddress, log)
	if err := srv.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve()
	}()
	log.Info("Server started",
		zap.String("listen", srv.ListenAddr()),
		zap.String("write", srv.WriteAddr()),
	)

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errChan:
		srv.Stop()
		return err
	}

	srv.Stop()
	<-errChan
	log.Info("Server stopped")
	return nil
}
