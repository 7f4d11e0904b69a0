package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"voting-kiosk/log"
	"voting-kiosk/models"
	"voting-kiosk/registry"
	"voting-kiosk/storage"
)

// Enroller drives the registration portal: the pre-enrollment duplicate
// guard, the sensor enrollment sequence and the final registration call.
type Enroller struct {
	Backend registry.Client
	Timing  Timing
	Journal *storage.Journal

	// FailClosed tightens the duplicate guard: a transport failure during
	// the check then blocks enrollment instead of letting it proceed.
	FailClosed bool
}

// CheckDuplicate asks the matcher whether the finger currently on the sensor
// is already enrolled. The settle delay always elapses first so the physical
// sensor stabilizes. Returns proceed=false on an unambiguous duplicate; on a
// transport or parse failure the default policy fails open after a short
// grace delay, trading weaker duplicate protection for not locking out
// legitimate enrollment during a backend hiccup.
func (e *Enroller) CheckDuplicate(ctx context.Context) (bool, error) {
	if err := sleepCtx(ctx, e.Timing.SettleDelay); err != nil {
		return false, err
	}

	result, err := e.Backend.CheckDuplicate(ctx)
	if err != nil {
		if e.FailClosed {
			return false, fmt.Errorf("duplicate check failed (fail-closed policy): %w", err)
		}
		log.Warnf("duplicate check failed, proceeding anyway: %v", err)
		if err := sleepCtx(ctx, e.Timing.GraceDelay); err != nil {
			return false, err
		}
		return true, nil
	}

	if result.Duplicate {
		log.Infof("duplicate fingerprint rejected: %s", result.Message)
		return false, nil
	}
	return true, nil
}

// errEnrollWaiting drives the enrollment polling loop.
var errEnrollWaiting = errors.New("enrollment still in progress")

// EnrollFingerprint starts the sensor's multi-touch sequence and polls its
// status until a template is produced, the sensor reports a terminal error,
// or the budget runs out. The polling stops within one interval of any
// terminal outcome.
func (e *Enroller) EnrollFingerprint(ctx context.Context) (string, error) {
	if err := e.Backend.StartEnroll(ctx); err != nil {
		return "", fmt.Errorf("failed to start enrollment: %w", err)
	}

	var template string
	backoff := retry.WithMaxRetries(uint64(e.Timing.EnrollMaxAttempts-1), retry.NewConstant(e.Timing.EnrollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := e.Backend.EnrollStatus(ctx)
		if err != nil {
			return fmt.Errorf("enrollment status request failed: %w", err)
		}
		switch {
		case status.Enrolled && status.TemplateData != "":
			template = status.TemplateData
			return nil
		case !status.Success && !status.Waiting:
			msg := status.Error
			if msg == "" {
				msg = "enrollment failed"
			}
			return &registry.RejectionError{Message: msg}
		default:
			if status.Message != "" {
				log.Debugf("enrollment progress: %s", status.Message)
			}
			return retry.RetryableError(errEnrollWaiting)
		}
	})
	if err != nil {
		if errors.Is(err, errEnrollWaiting) {
			if cancelErr := e.Backend.CancelEnroll(context.WithoutCancel(ctx)); cancelErr != nil {
				log.Warnf("failed to cancel timed-out enrollment: %v", cancelErr)
			}
			return "", ErrEnrollTimeout
		}
		return "", err
	}
	return template, nil
}

// RegisterVoter runs the full admin-portal flow: duplicate guard, sensor
// enrollment, then the registration call with both biometric payloads. The
// payloads are consumed exactly once and discarded with the call.
func (e *Enroller) RegisterVoter(ctx context.Context, enrollment models.Enrollment) error {
	enrollment.VoterID = models.NormalizeVoterID(enrollment.VoterID)
	if enrollment.VoterID == "" {
		return ErrEmptyVoterID
	}
	if enrollment.Name == "" || enrollment.Constituency == "" {
		return fmt.Errorf("name and constituency are required")
	}
	if enrollment.FaceData == "" {
		return ErrMissingCapture
	}

	proceed, err := e.CheckDuplicate(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		e.journal(enrollment.VoterID, "", storage.OutcomeEnrollRejected, "duplicate fingerprint")
		return ErrDuplicateFingerprint
	}

	template, err := e.EnrollFingerprint(ctx)
	if err != nil {
		return err
	}
	enrollment.FingerprintTemplate = template

	if err := e.Backend.Register(ctx, enrollment); err != nil {
		if registry.IsRejection(err) {
			e.journal(enrollment.VoterID, template, storage.OutcomeEnrollRejected, err.Error())
		}
		return err
	}

	e.journal(enrollment.VoterID, template, storage.OutcomeEnrolled, "")
	log.Infof("registered voter %s (%s)", enrollment.VoterID, enrollment.Constituency)
	return nil
}

func (e *Enroller) journal(voterID, template string, outcome storage.Outcome, detail string) {
	if e.Journal == nil {
		return
	}
	rec := &storage.Record{
		ID:             uuid.New().String(),
		VoterID:        voterID,
		Outcome:        outcome,
		TemplateDigest: storage.TemplateDigest(template),
		Detail:         detail,
	}
	if err := e.Journal.Append(rec); err != nil {
		log.Warnf("failed to journal enrollment outcome: %v", err)
	}
}
