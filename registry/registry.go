// Package registry talks to the external voter store and biometric matcher.
// The kiosk never owns voter data: every record lives behind this API and the
// only mutation ever requested is MarkVoted.
package registry

import (
	"context"
	"errors"

	"voting-kiosk/models"
)

// Client is the view of the external backend used by the session workflow.
type Client interface {
	// CheckVoterID resolves a claimed voter id to its existence and voted
	// status without authenticating anyone.
	CheckVoterID(ctx context.Context, voterID string) (*VoterStatus, error)

	// AuthenticateFace resolves a voter identity from a claimed id and a
	// captured face image (data-URL or base64 JPEG).
	AuthenticateFace(ctx context.Context, voterID, faceData string) (*models.VoterRecord, error)

	// AuthenticateFingerprint resolves a voter identity from a claimed id and
	// a scanned fingerprint template.
	AuthenticateFingerprint(ctx context.Context, voterID, template string) (*models.VoterRecord, error)

	// ScannerConnected reports whether the fingerprint sensor is attached.
	ScannerConnected(ctx context.Context) (bool, error)

	// Scan asks the sensor for the fingerprint currently on it.
	Scan(ctx context.Context) (*ScanResult, error)

	// CheckDuplicate asks the matcher whether the finger on the sensor is
	// already enrolled.
	CheckDuplicate(ctx context.Context) (*DuplicateResult, error)

	// StartEnroll begins the multi-touch enrollment sequence on the sensor.
	StartEnroll(ctx context.Context) error

	// EnrollStatus reports enrollment progress; polled until Enrolled or a
	// terminal failure.
	EnrollStatus(ctx context.Context) (*EnrollStatus, error)

	// CancelEnroll aborts an in-progress enrollment sequence.
	CancelEnroll(ctx context.Context) error

	// ClearSensor drops the sensor's cached scan. Best-effort on the caller
	// side: a failure never aborts a success path.
	ClearSensor(ctx context.Context) error

	// Register submits a complete enrollment to the voter store.
	Register(ctx context.Context, enrollment models.Enrollment) error

	// MarkVoted records in the store that the voter cast a ballot. The ledger
	// stays the source of truth; this is a cache for fast lookup.
	MarkVoted(ctx context.Context, voterID string) error

	// HasVoted reads the store's cached voted flag.
	HasVoted(ctx context.Context, voterID string) (bool, error)

	// Health reports overall backend status.
	Health(ctx context.Context) (*Health, error)
}

// VoterStatus is the response of the voter id existence lookup.
type VoterStatus struct {
	Exists       bool   `json:"exists"`
	HasVoted     bool   `json:"has_voted"`
	Name         string `json:"name"`
	Constituency string `json:"constituency"`
}

// ScanResult is one poll of the sensor. Scanned with an empty TemplateData
// means the sensor read a finger that matches nothing it knows.
type ScanResult struct {
	Scanned      bool   `json:"scanned"`
	TemplateData string `json:"template_data"`
	Message      string `json:"message"`
}

// DuplicateResult is the matcher's answer to a pre-enrollment check.
type DuplicateResult struct {
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message"`
}

// EnrollStatus is one poll of the enrollment sequence.
type EnrollStatus struct {
	Success      bool   `json:"success"`
	Enrolled     bool   `json:"enrolled"`
	Waiting      bool   `json:"waiting"`
	TemplateData string `json:"template_data"`
	Message      string `json:"message"`
	Error        string `json:"error"`
}

// Health is the backend status summary.
type Health struct {
	Status               string `json:"status"`
	FingerprintConnected bool   `json:"fingerprint_connected"`
	TotalVoters          int    `json:"total_voters"`
	VotedCount           int    `json:"voted_count"`
	PendingCount         int    `json:"pending_count"`
}

// RejectionError carries an explicit refusal from the backend (no biometric
// match, already voted, duplicate enrollment). It is terminal for the attempt
// but distinct from a transport failure, which is always retryable.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// IsRejection reports whether err is an explicit backend refusal rather than
// a transport or protocol failure.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
