package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"voting-kiosk/log"
	"voting-kiosk/models"
)

const defaultTimeout = 8 * time.Second

// HTTPClient is the Client implementation backed by the real backend service.
type HTTPClient struct {
	c    *http.Client
	base *url.URL
}

// NewHTTPClient creates a client for the backend at base (e.g.
// "http://localhost:5000").
func NewHTTPClient(base string) (*HTTPClient, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", base, err)
	}
	tr := &http.Transport{
		IdleConnTimeout:    10 * time.Second,
		DisableCompression: false,
	}
	return &HTTPClient{
		c:    &http.Client{Transport: tr, Timeout: defaultTimeout},
		base: u,
	}, nil
}

// request performs a JSON call against the backend and decodes the body into
// out. Non-2xx statuses are not treated as transport errors here: the backend
// reports refusals with both an error status and a JSON body, and the caller
// decides from the decoded fields.
func (h *HTTPClient) request(ctx context.Context, method string, body any, out any, urlPath ...string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := *h.base
	u.Path = path.Join(u.Path, path.Join(urlPath...))

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, u.String())
	resp, err := h.c.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse backend response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func (h *HTTPClient) CheckVoterID(ctx context.Context, voterID string) (*VoterStatus, error) {
	req := map[string]string{"voter_id": models.NormalizeVoterID(voterID)}
	var status VoterStatus
	if err := h.request(ctx, http.MethodPost, req, &status, "api", "check_voter_id"); err != nil {
		return nil, err
	}
	return &status, nil
}

// authResponse is the shared shape of both authentication endpoints.
type authResponse struct {
	Success bool                `json:"success"`
	Voter   *models.VoterRecord `json:"voter"`
	Error   string              `json:"error"`
}

func (h *HTTPClient) AuthenticateFace(ctx context.Context, voterID, faceData string) (*models.VoterRecord, error) {
	req := map[string]string{
		"voter_id":  models.NormalizeVoterID(voterID),
		"face_data": faceData,
	}
	var resp authResponse
	if err := h.request(ctx, http.MethodPost, req, &resp, "api", "authenticate"); err != nil {
		return nil, err
	}
	return resolveAuth(&resp)
}

func (h *HTTPClient) AuthenticateFingerprint(ctx context.Context, voterID, template string) (*models.VoterRecord, error) {
	req := map[string]string{
		"voter_id":             models.NormalizeVoterID(voterID),
		"fingerprint_template": template,
	}
	var resp authResponse
	if err := h.request(ctx, http.MethodPost, req, &resp, "api", "authenticate", "fingerprint"); err != nil {
		return nil, err
	}
	return resolveAuth(&resp)
}

func resolveAuth(resp *authResponse) (*models.VoterRecord, error) {
	if !resp.Success || resp.Voter == nil {
		msg := resp.Error
		if msg == "" {
			msg = "authentication failed"
		}
		return nil, &RejectionError{Message: msg}
	}
	voter := resp.Voter.Normalize()
	return &voter, nil
}

func (h *HTTPClient) ScannerConnected(ctx context.Context) (bool, error) {
	var resp struct {
		Connected bool   `json:"connected"`
		Message   string `json:"message"`
	}
	if err := h.request(ctx, http.MethodGet, nil, &resp, "api", "fingerprint", "status"); err != nil {
		return false, err
	}
	return resp.Connected, nil
}

func (h *HTTPClient) Scan(ctx context.Context) (*ScanResult, error) {
	var resp ScanResult
	if err := h.request(ctx, http.MethodGet, nil, &resp, "api", "fingerprint", "scan"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *HTTPClient) CheckDuplicate(ctx context.Context) (*DuplicateResult, error) {
	var resp DuplicateResult
	if err := h.request(ctx, http.MethodPost, nil, &resp, "api", "fingerprint", "check_duplicate"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *HTTPClient) StartEnroll(ctx context.Context) error {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := h.request(ctx, http.MethodPost, nil, &resp, "api", "fingerprint", "start_enroll"); err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "failed to start enrollment"
		}
		return &RejectionError{Message: msg}
	}
	return nil
}

func (h *HTTPClient) EnrollStatus(ctx context.Context) (*EnrollStatus, error) {
	var resp EnrollStatus
	if err := h.request(ctx, http.MethodGet, nil, &resp, "api", "fingerprint", "enroll_status"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *HTTPClient) CancelEnroll(ctx context.Context) error {
	return h.request(ctx, http.MethodPost, nil, nil, "api", "fingerprint", "cancel_enroll")
}

func (h *HTTPClient) ClearSensor(ctx context.Context) error {
	return h.request(ctx, http.MethodPost, nil, nil, "api", "fingerprint", "clear")
}

func (h *HTTPClient) Register(ctx context.Context, enrollment models.Enrollment) error {
	enrollment.VoterID = models.NormalizeVoterID(enrollment.VoterID)
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := h.request(ctx, http.MethodPost, enrollment, &resp, "api", "register"); err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "registration failed"
		}
		return &RejectionError{Message: msg}
	}
	return nil
}

func (h *HTTPClient) MarkVoted(ctx context.Context, voterID string) error {
	req := map[string]string{"voter_id": models.NormalizeVoterID(voterID)}
	return h.request(ctx, http.MethodPost, req, nil, "api", "mark_voted")
}

func (h *HTTPClient) HasVoted(ctx context.Context, voterID string) (bool, error) {
	req := map[string]string{"voter_id": models.NormalizeVoterID(voterID)}
	var resp struct {
		HasVoted bool `json:"has_voted"`
	}
	if err := h.request(ctx, http.MethodPost, req, &resp, "api", "check_voted"); err != nil {
		return false, err
	}
	return resp.HasVoted, nil
}

func (h *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := h.request(ctx, http.MethodGet, nil, &resp, "api", "health"); err != nil {
		return nil, err
	}
	return &resp, nil
}
