package service

import (
	"context"
	"time"
)

// Timing collects every delay and polling budget of the workflow. All values
// are design constants of the kiosk protocol, not network timeouts; tests
// shrink them, production keeps the defaults.
type Timing struct {
	// SettleDelay lets the finger settle on the sensor before the duplicate
	// check is issued. It must elapse even though it produces no other
	// effect.
	SettleDelay time.Duration

	// GraceDelay is the extra pause before failing open when the duplicate
	// check itself failed.
	GraceDelay time.Duration

	// ScanInterval / ScanMaxAttempts bound the authentication scan polling
	// loop (defaults: 100ms x 100 ≈ 10 seconds).
	ScanInterval    time.Duration
	ScanMaxAttempts int

	// EnrollInterval / EnrollMaxAttempts bound the enrollment polling loop
	// (defaults: 500ms x 120 ≈ 60 seconds).
	EnrollInterval    time.Duration
	EnrollMaxAttempts int

	// ResetDelay is how long terminal screens (vote confirmation, already
	// voted) stay up before the session resets itself.
	ResetDelay time.Duration
}

// DefaultTiming returns the documented kiosk defaults.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:       2000 * time.Millisecond,
		GraceDelay:        1000 * time.Millisecond,
		ScanInterval:      100 * time.Millisecond,
		ScanMaxAttempts:   100,
		EnrollInterval:    500 * time.Millisecond,
		EnrollMaxAttempts: 120,
		ResetDelay:        5000 * time.Millisecond,
	}
}

// sleepCtx waits for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
