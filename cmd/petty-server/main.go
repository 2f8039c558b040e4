// Command petty-server is a demo Acceptor that listens on an address and
// logs every accepted connection and Read(Data) trigger it observes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jarlopez/petty"
	"github.com/jarlopez/petty/config"
	"github.com/jarlopez/petty/logging"
	"github.com/jarlopez/petty/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "petty-server",
		Short: "Listen for UDT connections and print accepted peers and data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "optional config file path")
	config.BindFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logging.SetLogger(logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel)))
	log := logging.Global()

	var loop *petty.Loop
	m := metrics.New("petty_server", func() float64 {
		if loop == nil {
			return 0
		}
		return float64(loop.RegistrySize())
	})
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("petty-server: register metrics: %w", err)
	}

	loop, err := petty.New(
		petty.WithTimeoutMS(cfg.TimeoutMS),
		petty.WithOutboundBuffer(cfg.OutboundBuffer),
		petty.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("petty-server: create loop: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("petty-server: metrics listener failed", logging.Err(err))
			}
		}()
		defer srv.Close()
		log.Info("petty-server: serving metrics", logging.Str("addr", cfg.MetricsAddr))
	}

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- loop.Run(ctx) }()

	if err := loop.Submit(petty.Listen(cfg.Addr)); err != nil {
		return fmt.Errorf("petty-server: submit listen: %w", err)
	}
	log.Info("petty-server: listening", logging.Str("addr", cfg.Addr))

	for {
		select {
		case trig, ok := <-loop.Events():
			if !ok {
				return <-runErrCh
			}
			logTrigger(log, trig)
		case <-ctx.Done():
			_ = loop.Shutdown(context.Background())
			return <-runErrCh
		}
	}
}

func logTrigger(log logging.Logger, trig petty.Trigger) {
	switch trig.Kind {
	case petty.TriggerConnected:
		log.Info("accepted peer", logging.Int("handle", int(trig.Handle)), logging.Str("addr", addrString(trig.Addr)))
	case petty.TriggerData:
		log.Info("received data", logging.Int("handle", int(trig.Handle)), logging.Int("bytes", len(trig.Data)))
	case petty.TriggerError:
		log.Error("channel error", logging.Err(trig.Err))
	case petty.TriggerConnectionError:
		log.Error("connect error", logging.Err(trig.Err))
	}
}

func addrString(a interface{ String() string }) string {
	if a == nil {
		return ""
	}
	return a.String()
}
