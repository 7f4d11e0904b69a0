// Package storage persists the kiosk's session journal: one record per
// terminal session outcome, for audit. Biometric templates are never written,
// only their digest.
package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"
)

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeVoted          Outcome = "voted"
	OutcomeAlreadyVoted   Outcome = "already_voted"
	OutcomeBenignDup      Outcome = "ledger_duplicate"
	OutcomeAuthFailed     Outcome = "auth_failed"
	OutcomeAbandoned      Outcome = "abandoned"
	OutcomeEnrolled       Outcome = "enrolled"
	OutcomeEnrollRejected Outcome = "enroll_rejected"
)

// Record is one journal entry.
type Record struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	VoterID        string    `json:"voter_id"`
	AuthMethod     string    `json:"auth_method"`
	Outcome        Outcome   `json:"outcome"`
	Candidate      string    `json:"candidate,omitempty"`
	TemplateDigest string    `json:"template_digest,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type journalFile struct {
	Records []*Record `json:"records"`
}

// Journal is an append-only JSON file store for session records.
type Journal struct {
	basePath string
	mu       sync.RWMutex
	records  []*Record
}

// NewJournal opens (or creates) the journal under basePath.
func NewJournal(basePath string) (*Journal, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %v", err)
	}

	j := &Journal{basePath: basePath}
	loaded, err := j.loadFromFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %v", err)
	}
	j.records = loaded
	return j, nil
}

// Append saves a record and flushes the journal to disk.
func (j *Journal) Append(record *Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	j.records = append(j.records, record)
	return j.saveToFile()
}

// Records returns a copy of every journal entry.
func (j *Journal) Records() []*Record {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*Record, len(j.records))
	copy(out, j.records)
	return out
}

func (j *Journal) path() string {
	return filepath.Join(j.basePath, "session_journal.json")
}

func (j *Journal) loadFromFile() ([]*Record, error) {
	data, err := os.ReadFile(j.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var jf journalFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal: %v", err)
	}
	return jf.Records, nil
}

func (j *Journal) saveToFile() error {
	data, err := json.MarshalIndent(journalFile{Records: j.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %v", err)
	}

	// Write to temporary file first, then rename for consistency.
	path := j.path()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write journal file: %v", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save journal file: %v", err)
	}
	return nil
}

// TemplateDigest hashes a biometric template for journaling. The raw template
// must never reach disk.
func TemplateDigest(template string) string {
	if template == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(template))
	return hex.EncodeToString(sum[:])
}
