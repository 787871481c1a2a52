package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edu-rossrobotics/cyphal"
	"github.com/edu-rossrobotics/cyphal/can"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

var demoDuration time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a heartbeat publisher and a monitor over an in-memory bus",
	Long: `demo wires two nodes to an in-memory loopback bus: node 42 publishes ` +
		`heartbeats once per second and an anonymous monitor logs them. Useful ` +
		`for trying the tool without CAN hardware.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}

		bus := can.NewLoopbackBus()
		defer bus.Close()

		publisher, err := cyphal.New(bus.Open(), 42, cyphal.WithLogger(logger))
		if err != nil {
			return err
		}
		hb := cyphal.NewHeartbeatPublisher(publisher, 0)
		hb.SetMode(uavcannode.ModeOperational)
		hb.Start()
		defer hb.Stop()

		monitorEp := bus.Open()
		monitor, err := cyphal.New(monitorEp, cyphal.NodeIDUnset, cyphal.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := watchSubjects(monitor, cfg.Subjects, logger); err != nil {
			return err
		}
		mux := can.NewMux(monitorEp)
		defer mux.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, demoDuration)
		defer cancel()

		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded) {
				logger.Error().Err(err).Msg("publisher stopped")
			}
		}()

		err = pumpMux(ctx, monitor, mux)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

func init() {
	demoCmd.Flags().DurationVar(&demoDuration, "duration", 5*time.Second, "how long to run the demo")
}
