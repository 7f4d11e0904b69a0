package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-retry"

	"voting-kiosk/capture"
	"voting-kiosk/log"
	"voting-kiosk/models"
	"voting-kiosk/registry"
)

// Authenticator is the single capability both verification strategies share:
// resolve a voter identity from the claimed voter id and a captured biometric
// sample. The state machine stays modality-agnostic on top of it.
type Authenticator interface {
	Method() models.AuthMethod
	Resolve(ctx context.Context, voterID string) (*models.VoterRecord, error)
}

// FaceAuthenticator verifies identity from a camera still.
type FaceAuthenticator struct {
	Backend registry.Client
	Camera  capture.Source
}

func (a *FaceAuthenticator) Method() models.AuthMethod { return models.AuthFace }

// Resolve acquires the camera, takes one frame and submits it. The stream is
// released on every path; a failed verification keeps the session in its
// capture-and-retry loop (the caller just calls Resolve again).
func (a *FaceAuthenticator) Resolve(ctx context.Context, voterID string) (*models.VoterRecord, error) {
	if a.Camera == nil {
		return nil, ErrMissingCapture
	}
	stream, err := a.Camera.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("camera unavailable: %w", err)
	}
	defer stream.Release()

	frame, err := stream.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("face capture failed: %w", err)
	}
	faceData, err := capture.EncodeFrame(frame)
	if err != nil {
		return nil, err
	}

	voter, err := a.Backend.AuthenticateFace(ctx, voterID, faceData)
	if err != nil {
		return nil, err
	}
	normalized := voter.Normalize()
	return &normalized, nil
}

// FingerprintAuthenticator verifies identity from the hardware sensor.
type FingerprintAuthenticator struct {
	Backend registry.Client
	Timing  Timing
}

func (a *FingerprintAuthenticator) Method() models.AuthMethod { return models.AuthFingerprint }

// errScanPending drives the polling loop: returned while the sensor has not
// read a finger yet.
var errScanPending = errors.New("no finger on sensor yet")

// Resolve gates on the sensor being connected, then polls the scan endpoint
// until a template arrives, the sensor reports an unrecognized finger, or the
// attempt budget runs out. Every terminal outcome stops the polling within
// one interval; cancellation of ctx stops it immediately.
func (a *FingerprintAuthenticator) Resolve(ctx context.Context, voterID string) (*models.VoterRecord, error) {
	connected, err := a.Backend.ScannerConnected(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot reach backend for scanner status: %w", err)
	}
	if !connected {
		return nil, ErrScannerNotConnected
	}

	template, err := a.pollScan(ctx)
	if err != nil {
		return nil, err
	}

	voter, err := a.Backend.AuthenticateFingerprint(ctx, voterID, template)
	if err != nil {
		return nil, err
	}

	// Best-effort buffer clear; its failure must not abort the success path.
	if err := a.Backend.ClearSensor(ctx); err != nil {
		log.Warnf("failed to clear sensor buffer after auth: %v", err)
	}

	normalized := voter.Normalize()
	return &normalized, nil
}

func (a *FingerprintAuthenticator) pollScan(ctx context.Context) (string, error) {
	var template string

	backoff := retry.WithMaxRetries(uint64(a.Timing.ScanMaxAttempts-1), retry.NewConstant(a.Timing.ScanInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := a.Backend.Scan(ctx)
		if err != nil {
			// Transport failure is terminal for this attempt; the voter
			// retries explicitly.
			return fmt.Errorf("scan request failed: %w", err)
		}
		switch {
		case result.Scanned && result.TemplateData != "":
			template = result.TemplateData
			return nil
		case result.Scanned:
			// Finger was read but matches nothing the sensor knows.
			return ErrFingerprintNoMatch
		default:
			return retry.RetryableError(errScanPending)
		}
	})
	if err != nil {
		if errors.Is(err, errScanPending) {
			return "", ErrScanTimeout
		}
		return "", err
	}
	return template, nil
}
