package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler waits for the signals that shut the daemon down.
type SignalHandler struct {
	signals chan os.Signal
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{signals: make(chan os.Signal, 1)}
}

// Setup registers the shutdown signals.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals,
		syscall.SIGINT,  // Ctrl+C with --foreground
		syscall.SIGTERM, // violet daemon stop, launchd, systemd
		syscall.SIGHUP,  // Terminal hangup
	)
}

// Wait blocks until a shutdown signal arrives or ctx is done. It returns
// nil for the latter.
func (h *SignalHandler) Wait(ctx context.Context) os.Signal {
	select {
	case sig := <-h.signals:
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Cleanup stops signal delivery.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}
