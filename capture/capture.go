// Package capture abstracts the kiosk camera. A Stream is a scoped hardware
// resource: once acquired it must be released on every exit path, success or
// not, so the camera indicator never stays lit after the session moved on.
package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"net/http"
)

var (
	// ErrNoFrame means the source had nothing to capture.
	ErrNoFrame = errors.New("no frame available")
	// ErrInvalidFormat means the captured payload is not a JPEG image.
	ErrInvalidFormat = errors.New("invalid image format")
)

// Source opens capture streams. Implementations wrap real hardware helpers or
// canned images for tests.
type Source interface {
	// Acquire opens the camera. The returned stream must be Released by the
	// caller on every path.
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an open camera session.
type Stream interface {
	// Capture takes one still frame as JPEG bytes.
	Capture(ctx context.Context) ([]byte, error)
	// Release stops the stream and turns the hardware indicator off.
	// Releasing twice is harmless.
	Release()
}

// ValidateJPEG checks that data is a decodable JPEG still.
func ValidateJPEG(data []byte) error {
	if len(data) == 0 {
		return ErrNoFrame
	}
	if http.DetectContentType(data) != "image/jpeg" {
		return ErrInvalidFormat
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil || format != "jpeg" {
		return ErrInvalidFormat
	}
	return nil
}

// EncodeFrame packages a validated JPEG frame as the data URL consumed by the
// backend's face endpoints.
func EncodeFrame(data []byte) (string, error) {
	if err := ValidateJPEG(data); err != nil {
		return "", fmt.Errorf("frame rejected: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
