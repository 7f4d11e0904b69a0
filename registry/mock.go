package registry

import (
	"context"
	"fmt"
	"sync"

	"voting-kiosk/models"
)

// MockClient implements Client against an in-memory voter map, for tests and
// for running a kiosk without the real backend.
type MockClient struct {
	mu sync.RWMutex

	voters    map[string]*models.VoterRecord
	templates map[string]string // voter id -> enrolled template prefix

	scannerConnected bool
	scanQueue        []*ScanResult
	duplicate        bool

	enrolling     bool
	enrollPolls   int
	enrollPollsTo int // polls until the mock reports Enrolled
	enrollOutcome *EnrollStatus

	// Counters let tests assert that polling actually stopped.
	ScanCalls        int
	ClearCalls       int
	MarkVotedCalls   int
	CheckDupCalls    int
	EnrollStatusReqs int

	// Err, when set, is returned by every call to simulate an unreachable
	// backend.
	Err error
}

// NewMockClient creates an empty mock with the scanner reported connected.
func NewMockClient() *MockClient {
	return &MockClient{
		voters:           make(map[string]*models.VoterRecord),
		templates:        make(map[string]string),
		scannerConnected: true,
		enrollPollsTo:    2,
	}
}

// AddVoter seeds a voter record, keyed by normalized id.
func (m *MockClient) AddVoter(v models.VoterRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nv := v.Normalize()
	m.voters[nv.VoterID] = &nv
}

// SetTemplate enrolls a fingerprint template for a voter.
func (m *MockClient) SetTemplate(voterID, template string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[models.NormalizeVoterID(voterID)] = template
}

// SetScannerConnected toggles the reported sensor status.
func (m *MockClient) SetScannerConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scannerConnected = connected
}

// QueueScan appends results returned by successive Scan calls. Once the queue
// drains, Scan keeps returning "nothing yet".
func (m *MockClient) QueueScan(results ...*ScanResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanQueue = append(m.scanQueue, results...)
}

// SetDuplicate makes CheckDuplicate report an already-enrolled finger.
func (m *MockClient) SetDuplicate(dup bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicate = dup
}

// SetEnrollOutcome overrides the status reported once enrollment completes.
func (m *MockClient) SetEnrollOutcome(status *EnrollStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollOutcome = status
}

func (m *MockClient) CheckVoterID(_ context.Context, voterID string) (*VoterStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	v, ok := m.voters[models.NormalizeVoterID(voterID)]
	if !ok {
		return &VoterStatus{Exists: false}, nil
	}
	return &VoterStatus{
		Exists:       true,
		HasVoted:     v.HasVoted,
		Name:         v.Name,
		Constituency: v.Constituency,
	}, nil
}

func (m *MockClient) AuthenticateFace(_ context.Context, voterID, faceData string) (*models.VoterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if faceData == "" {
		return nil, &RejectionError{Message: "No face detected"}
	}
	return m.lookupLocked(voterID)
}

func (m *MockClient) AuthenticateFingerprint(_ context.Context, voterID, template string) (*models.VoterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	enrolled, ok := m.templates[models.NormalizeVoterID(voterID)]
	if !ok || template == "" || template != enrolled {
		return nil, &RejectionError{Message: "Fingerprint does not match registered fingerprint"}
	}
	return m.lookupLocked(voterID)
}

func (m *MockClient) lookupLocked(voterID string) (*models.VoterRecord, error) {
	v, ok := m.voters[models.NormalizeVoterID(voterID)]
	if !ok {
		return nil, &RejectionError{Message: "Voter ID not found"}
	}
	if v.HasVoted {
		return nil, &RejectionError{Message: "You have already voted!"}
	}
	out := *v
	return &out, nil
}

func (m *MockClient) ScannerConnected(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.scannerConnected, nil
}

func (m *MockClient) Scan(_ context.Context) (*ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.scanQueue) == 0 {
		return &ScanResult{Scanned: false}, nil
	}
	next := m.scanQueue[0]
	m.scanQueue = m.scanQueue[1:]
	return next, nil
}

func (m *MockClient) CheckDuplicate(_ context.Context) (*DuplicateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckDupCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.duplicate {
		return &DuplicateResult{Duplicate: true, Message: "Fingerprint already registered"}, nil
	}
	return &DuplicateResult{Duplicate: false}, nil
}

func (m *MockClient) StartEnroll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if !m.scannerConnected {
		return &RejectionError{Message: "Scanner not connected"}
	}
	m.enrolling = true
	m.enrollPolls = 0
	return nil
}

func (m *MockClient) EnrollStatus(_ context.Context) (*EnrollStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrollStatusReqs++
	if m.Err != nil {
		return nil, m.Err
	}
	if !m.enrolling {
		return &EnrollStatus{Success: false, Error: "Not enrolling"}, nil
	}
	m.enrollPolls++
	if m.enrollPolls < m.enrollPollsTo {
		return &EnrollStatus{Success: true, Waiting: true, Message: "Place finger on sensor..."}, nil
	}
	m.enrolling = false
	if m.enrollOutcome != nil {
		return m.enrollOutcome, nil
	}
	return &EnrollStatus{
		Success:      true,
		Enrolled:     true,
		TemplateData: fmt.Sprintf("FP_TEMPLATE_%d_0", len(m.templates)+1),
		Message:      "Complete!",
	}, nil
}

func (m *MockClient) CancelEnroll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrolling = false
	return m.Err
}

func (m *MockClient) ClearSensor(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	return m.Err
}

func (m *MockClient) Register(_ context.Context, enrollment models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	id := models.NormalizeVoterID(enrollment.VoterID)
	if _, exists := m.voters[id]; exists {
		return &RejectionError{Message: "Voter already registered"}
	}
	for _, tmpl := range m.templates {
		if tmpl == enrollment.FingerprintTemplate {
			return &RejectionError{Message: "Fingerprint already registered"}
		}
	}
	m.voters[id] = &models.VoterRecord{
		VoterID:      id,
		Name:         enrollment.Name,
		Constituency: models.NormalizeConstituency(enrollment.Constituency),
	}
	m.templates[id] = enrollment.FingerprintTemplate
	return nil
}

func (m *MockClient) MarkVoted(_ context.Context, voterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkVotedCalls++
	if m.Err != nil {
		return m.Err
	}
	v, ok := m.voters[models.NormalizeVoterID(voterID)]
	if !ok {
		return &RejectionError{Message: "Voter not found"}
	}
	v.HasVoted = true
	return nil
}

func (m *MockClient) HasVoted(_ context.Context, voterID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return false, m.Err
	}
	v, ok := m.voters[models.NormalizeVoterID(voterID)]
	return ok && v.HasVoted, nil
}

func (m *MockClient) Health(_ context.Context) (*Health, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	voted := 0
	for _, v := range m.voters {
		if v.HasVoted {
			voted++
		}
	}
	return &Health{
		Status:               "running",
		FingerprintConnected: m.scannerConnected,
		TotalVoters:          len(m.voters),
		VotedCount:           voted,
		PendingCount:         len(m.voters) - voted,
	}, nil
}
