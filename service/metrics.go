package service

import (
	"sync"
	"time"

	"voting-kiosk/models"
)

// Metrics tracks per-kiosk operation counters for the status endpoint. All
// methods are safe on a nil receiver so call sites never have to guard.
type Metrics struct {
	mu sync.RWMutex

	sessionsCompleted int

	faceAttempts        int
	faceSuccesses       int
	fingerprintAttempts int
	fingerprintSuccess  int
	authTotalTime       time.Duration

	voteAttempts  int
	voteSuccesses int
	voteTotalTime time.Duration
}

// AuthMetrics contains attempt counters for one verification strategy.
type AuthMetrics struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
}

// MetricsSnapshot is the wire form served by the status endpoint.
type MetricsSnapshot struct {
	SessionsCompleted int         `json:"sessions_completed"`
	Face              AuthMetrics `json:"face"`
	Fingerprint       AuthMetrics `json:"fingerprint"`
	AuthTimeMs        int64       `json:"auth_time_ms"`
	VoteAttempts      int         `json:"vote_attempts"`
	VoteSuccesses     int         `json:"vote_successes"`
	VoteTimeMs        int64       `json:"vote_time_ms"`
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordAuth counts one verification attempt for the given strategy.
func (m *Metrics) RecordAuth(method models.AuthMethod, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.authTotalTime += elapsed
	switch method {
	case models.AuthFace:
		m.faceAttempts++
		if success {
			m.faceSuccesses++
		}
	case models.AuthFingerprint:
		m.fingerprintAttempts++
		if success {
			m.fingerprintSuccess++
		}
	}
}

// RecordVote counts one ballot submission attempt.
func (m *Metrics) RecordVote(success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.voteAttempts++
	m.voteTotalTime += elapsed
	if success {
		m.voteSuccesses++
	}
}

// RecordSessionEnd counts one finished session, whatever its outcome.
func (m *Metrics) RecordSessionEnd() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCompleted++
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		SessionsCompleted: m.sessionsCompleted,
		Face: AuthMetrics{
			Attempts:  m.faceAttempts,
			Successes: m.faceSuccesses,
		},
		Fingerprint: AuthMetrics{
			Attempts:  m.fingerprintAttempts,
			Successes: m.fingerprintSuccess,
		},
		AuthTimeMs:    m.authTotalTime.Milliseconds(),
		VoteAttempts:  m.voteAttempts,
		VoteSuccesses: m.voteSuccesses,
		VoteTimeMs:    m.voteTotalTime.Milliseconds(),
	}
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionsCompleted = 0
	m.faceAttempts = 0
	m.faceSuccesses = 0
	m.fingerprintAttempts = 0
	m.fingerprintSuccess = 0
	m.authTotalTime = 0
	m.voteAttempts = 0
	m.voteSuccesses = 0
	m.voteTotalTime = 0
}
