// Command petty-client is a demo Connector that dials an address, writes a
// fixed payload once connected, and logs every trigger it observes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jarlopez/petty"
	"github.com/jarlopez/petty/config"
	"github.com/jarlopez/petty/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile, payload string

	cmd := &cobra.Command{
		Use:   "petty-client",
		Short: "Dial a UDT acceptor, send a payload, and print triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, payload)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "optional config file path")
	cmd.Flags().StringVar(&payload, "payload", "msg 1", "bytes to write once connected")
	config.BindFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config.Config, payload string) error {
	logging.SetLogger(logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel)))
	log := logging.Global()

	loop, err := petty.New(
		petty.WithTimeoutMS(cfg.TimeoutMS),
		petty.WithOutboundBuffer(cfg.OutboundBuffer),
	)
	if err != nil {
		return fmt.Errorf("petty-client: create loop: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- loop.Run(ctx) }()

	if err := loop.SubmitConnect(cfg.Addr); err != nil {
		return fmt.Errorf("petty-client: submit connect: %w", err)
	}
	log.Info("petty-client: connecting", logging.Str("addr", cfg.Addr))

	sent := false
	for {
		select {
		case trig, ok := <-loop.Events():
			if !ok {
				return <-runErrCh
			}
			switch trig.Kind {
			case petty.TriggerConnected:
				log.Info("connected", logging.Int("handle", int(trig.Handle)))
				if !sent {
					sent = true
					if err := loop.SubmitWrite(trig.Handle, []byte(payload)); err != nil {
						log.Error("write submit failed", logging.Err(err))
					}
				}
			case petty.TriggerData:
				log.Info("received data", logging.Int("bytes", len(trig.Data)))
			case petty.TriggerConnectionError:
				log.Error("connect failed", logging.Err(trig.Err))
				_ = loop.Shutdown(context.Background())
				return <-runErrCh
			case petty.TriggerError:
				log.Error("channel error", logging.Err(trig.Err))
			}
		case <-ctx.Done():
			_ = loop.Shutdown(context.Background())
			return <-runErrCh
		}
	}
}
