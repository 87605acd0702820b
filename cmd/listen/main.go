// Command listen streams the minechat listen channel into a history file.
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

	"github.com/omochice/minechat/internal/client"
	"github.com/omochice/minechat/internal/config"
	"github.com/omochice/minechat/internal/history"
	"github.com/omochice/minechat/internal/transport"
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
	cfg, err := config.Load[config.Listen]()
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

func newCommand(cfg *config.Listen) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "listen",
		Short:         "Stream the minechat listen channel into a history file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listen(cmd.Context(), cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "chat server host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "listen channel port")
	flags.StringVar(&cfg.History, "history", cfg.History, "history file path")
	flags.StringVar(&cfg.Transport, "transport", cfg.Transport, "connection transport: tcp or ws")
	flags.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "pause after a refused connection")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	return cmd
}

func listen(ctx context.Context, cfg *config.Listen) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	dialer, err := transport.NewDialer(cfg.Transport)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	hist, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer hist.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconnector := client.NewReconnector(dialer, cfg.Host, cfg.Port, log, client.WithDelay(cfg.ReconnectDelay))
	listener := client.NewListener(reconnector, hist, log)

	log.Info("Listening", zap.String("host", cfg.Host), zap.Int("port", cfg.Port), zap.String("history", cfg.History))
	listener.Run(ctx)

	color.Info.Println("Listener stopped.")
	return nil
}
