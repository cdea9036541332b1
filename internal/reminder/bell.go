package reminder

import (
	"io"
	"sync"
	"time"
)

// BellVibrator stands in for a vibration motor on a terminal: each pulse
// rings the bell once.
type BellVibrator struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBellVibrator writes bells to w.
func NewBellVibrator(w io.Writer) *BellVibrator {
	return &BellVibrator{w: w}
}

// Vibrate rings the bell. The duration is ignored.
func (b *BellVibrator) Vibrate(time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}

// Cancel is a no-op; a bell cannot be stopped once rung.
func (b *BellVibrator) Cancel() error {
	return nil
}
