package can

import (
	"github.com/rs/zerolog"
)

// LoggedBus is a Bus decorator that logs Send/Receive operations using a
// zerolog.Logger.

// LogOption is a bitmask for selecting which operations to log.
type LogOption uint8

const (
	LogNone LogOption = 0
	LogRead LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedBus wraps the given Bus and logs selected operations at the given
// level.
func NewLoggedBus(inner Bus, logger zerolog.Logger, level zerolog.Level, opts LogOption) Bus {
	return &loggedBus{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
	}
}

// NewLoggedBusWithFilter wraps the given Bus and logs selected operations but
// only for frames that satisfy the provided filter. If filter is nil, all
// frames are considered for logging (same as NewLoggedBus behavior).
func NewLoggedBusWithFilter(inner Bus, logger zerolog.Logger, level zerolog.Level, opts LogOption, filter FrameFilter) Bus {
	return &loggedBus{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
		filter: filter,
	}
}

type loggedBus struct {
	inner  Bus
	logger zerolog.Logger
	level  zerolog.Level
	opts   LogOption
	filter FrameFilter
}

func (l *loggedBus) logFrame(msg string, f Frame) {
	l.logger.WithLevel(l.level).
		Uint32("id", f.ID).
		Bool("extended", f.Extended).
		Bool("rtr", f.RTR).
		Bool("fd", f.FD).
		Int("len", int(f.Len)).
		Hex("data", f.Data[:f.Len]).
		Msg(msg)
}

// Send logs the frame and the result when write logging is enabled.
func (l *loggedBus) Send(frame Frame) error {
	if l.opts&LogWrite != 0 && (l.filter == nil || l.filter(frame)) {
		l.logFrame("can send", frame)
	}
	err := l.inner.Send(frame)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Error().Uint32("id", frame.ID).Err(err).Msg("can send error")
	}
	return err
}

// Receive logs the received frame or error when read logging is enabled.
func (l *loggedBus) Receive() (Frame, error) {
	f, err := l.inner.Receive()
	if l.opts&LogRead != 0 {
		if err != nil {
			l.logger.Error().Err(err).Msg("can receive error")
		} else if l.filter == nil || l.filter(f) {
			l.logFrame("can receive", f)
		}
	}
	return f, err
}

// Close forwards to the inner Bus without logging.
func (l *loggedBus) Close() error {
	return l.inner.Close()
}
