package models

import "strings"

// VoterRecord is a snapshot of a voter held by the external registration
// store. Records are referenced, never owned: the kiosk only reads them and
// asks the store to flip HasVoted after a confirmed ballot.
type VoterRecord struct {
	VoterID      string `json:"voter_id"`
	Name         string `json:"name"`
	Constituency string `json:"constituency"`
	HasVoted     bool   `json:"has_voted"`
}

// Normalize returns a copy with the canonical casing used everywhere in the
// workflow: voter ids are uppercase, constituencies are trimmed lowercase.
func (v VoterRecord) Normalize() VoterRecord {
	v.VoterID = NormalizeVoterID(v.VoterID)
	v.Constituency = NormalizeConstituency(v.Constituency)
	return v
}

// NormalizeVoterID canonicalizes a user-supplied voter id.
func NormalizeVoterID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeConstituency canonicalizes a constituency name for table lookups.
func NormalizeConstituency(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// Enrollment is the payload accepted by the external registration endpoint.
// Both biometric fields are consumed exactly once and never persisted locally.
type Enrollment struct {
	Name                string `json:"name"`
	VoterID             string `json:"voter_id"`
	FaceData            string `json:"face_data"`
	FingerprintTemplate string `json:"fingerprint_template"`
	Constituency        string `json:"constituency"`
}
