package service

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"voting-kiosk/models"
)

func TestMetrics(t *testing.T) {
	c := qt.New(t)
	m := NewMetrics()

	m.RecordAuth(models.AuthFace, true, 10*time.Millisecond)
	m.RecordAuth(models.AuthFingerprint, false, 20*time.Millisecond)
	m.RecordAuth(models.AuthFingerprint, true, 30*time.Millisecond)
	m.RecordVote(true, 100*time.Millisecond)
	m.RecordVote(false, 50*time.Millisecond)
	m.RecordSessionEnd()

	snap := m.Snapshot()
	c.Assert(snap.Face, qt.Equals, AuthMetrics{Attempts: 1, Successes: 1})
	c.Assert(snap.Fingerprint, qt.Equals, AuthMetrics{Attempts: 2, Successes: 1})
	c.Assert(snap.AuthTimeMs, qt.Equals, int64(60))
	c.Assert(snap.VoteAttempts, qt.Equals, 2)
	c.Assert(snap.VoteSuccesses, qt.Equals, 1)
	c.Assert(snap.SessionsCompleted, qt.Equals, 1)

	m.Reset()
	c.Assert(m.Snapshot(), qt.Equals, MetricsSnapshot{})
}

func TestMetricsNilReceiver(t *testing.T) {
	c := qt.New(t)

	var m *Metrics
	m.RecordAuth(models.AuthFace, true, time.Millisecond)
	m.RecordVote(true, time.Millisecond)
	m.RecordSessionEnd()
	c.Assert(m.Snapshot(), qt.Equals, MetricsSnapshot{})
}
