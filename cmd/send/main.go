// Command send posts one message to the minechat write channel, registering
// a new account first when no token is known.
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

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/client"
	"github.com/omochice/minechat/internal/config"
	"github.com/omochice/minechat/internal/credential"
	"github.com/omochice/minechat/internal/transport"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load[config.Send]()
	if err != nil {
		color.Error.Println(err)
		return exitConfig
	}

	cmd := newCommand(&cfg)
	cmd.SetArgs(args)
	err = cmd.Execute()
	if err == nil {
		return exitOK
	}

	color.Error.Println(err)
	if chat.IsProtocolError(err) {
		color.Warn.Println("The server did not accept the credential. Register again with --nickname.")
	}
	return exitCode(err)
}

// exitCode maps a send failure to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, chat.ErrNoCredential),
		errors.Is(err, chat.ErrEmptyMessage):
		return exitConfig
	default:
		return exitFailure
	}
}

func newCommand(cfg *config.Send) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "send",
		Short:         "Post one message to the minechat write channel",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("token") && cmd.Flags().Changed("nickname") {
				return fmt.Errorf("%w: --token and --nickname are mutually exclusive", config.ErrInvalid)
			}
			return send(cmd.Context(), cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "chat server host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "write channel port")
	flags.StringVar(&cfg.Credentials, "credentials", cfg.Credentials, "credential file path")
	flags.StringVar(&cfg.Nickname, "nickname", cfg.Nickname, "nickname to register when no token is known")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "account hash to authorize with")
	flags.StringVarP(&cfg.Message, "message", "m", "", "message to post")
	flags.StringVar(&cfg.Transport, "transport", cfg.Transport, "connection transport: tcp or ws")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	return cmd
}

func send(ctx context.Context, cfg *config.Send) error {
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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := credential.NewStore(cfg.Credentials, log)
	sender := client.NewSender(dialer, cfg.Host, cfg.Port, store, log)

	cred, err := sender.Send(ctx, client.Request{
		Token:    cfg.Token,
		Nickname: cfg.Nickname,
		Message:  cfg.Message,
	})
	if err != nil {
		return err
	}

	color.Success.Printf("Message sent as %s.\n", cred.Nickname)
	return nil
}
