package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edu-rossrobotics/cyphal"
	"github.com/edu-rossrobotics/cyphal/can"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Attach to a SocketCAN interface and log Cyphal transfers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}

		bus, err := can.DialSocketCAN(cfg.Interface)
		if err != nil {
			return err
		}
		defer bus.Close()
		if logger.GetLevel() == zerolog.TraceLevel {
			bus = can.NewLoggedBus(bus, logger, zerolog.TraceLevel, can.LogAll)
		}

		node, err := cyphal.New(bus, cfg.NodeID,
			cyphal.WithMTU(cfg.MTU),
			cyphal.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		if err := watchSubjects(node, cfg.Subjects, logger); err != nil {
			return err
		}

		mux := can.NewMux(bus)
		defer mux.Close()

		logger.Info().
			Str("interface", cfg.Interface).
			Int("subjects", len(cfg.Subjects)).
			Msg("monitoring")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := pumpMux(ctx, node, mux); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// pumpMux feeds frames from a mux subscription into the node and spins it
// until the context ends or the mux closes. Standard-ID and RTR frames are
// filtered out before they reach the node.
func pumpMux(ctx context.Context, node *cyphal.Node, mux *can.Mux) error {
	frames, cancel := mux.Subscribe(can.And(can.ExtendedOnly(), can.DataOnly()), 64)
	defer cancel()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return can.ErrClosed
			}
			node.OnFrameReceived(f, time.Now())
		case <-ticker.C:
			if err := node.Spin(); err != nil {
				return err
			}
		}
	}
}

// watchSubjects subscribes the node to every configured subject. The
// heartbeat subject gets a typed subscription; everything else is logged
// as raw payload bytes.
func watchSubjects(node *cyphal.Node, subjects []cyphal.PortID, logger zerolog.Logger) error {
	for _, subject := range subjects {
		if subject == cyphal.PortID(uavcannode.HeartbeatSubjectID) {
			err := cyphal.SubscribeMessage(node, subject,
				func(hb uavcannode.Heartbeat, t cyphal.Transfer) {
					logger.Info().
						Uint8("node", uint8(t.Remote)).
						Uint32("uptime", hb.Uptime).
						Uint8("health", uint8(hb.Health)).
						Uint8("mode", uint8(hb.Mode)).
						Uint8("vendor", hb.VendorStatus).
						Msg("heartbeat")
				})
			if err != nil {
				return err
			}
			continue
		}
		err := node.Subscribe(cyphal.KindMessage, subject, cyphal.MTUFD-1,
			func(_ *cyphal.Node, t cyphal.Transfer) {
				logger.Info().
					Uint16("subject", uint16(t.Port)).
					Uint8("source", uint8(t.Remote)).
					Uint8("transfer_id", uint8(t.TransferID)).
					Hex("payload", t.Payload).
					Msg("message")
			})
		if err != nil {
			return err
		}
	}
	return nil
}
