package service

import "errors"

var (
	// ErrEmptyVoterID blocks progression locally; no network call is issued.
	ErrEmptyVoterID = errors.New("voter id must not be empty")

	// ErrWrongStep means the requested operation does not belong to the
	// session's current step.
	ErrWrongStep = errors.New("operation not valid in current session step")

	// ErrScannerNotConnected blocks any fingerprint scan attempt; no polling
	// starts until the sensor reports connected.
	ErrScannerNotConnected = errors.New("fingerprint scanner not connected")

	// ErrFingerprintNoMatch is the sensor reading a finger it does not know.
	// Terminal for the attempt; polling stops immediately.
	ErrFingerprintNoMatch = errors.New("fingerprint not recognized")

	// ErrScanTimeout means the scan polling budget was exhausted without a
	// finger on the sensor.
	ErrScanTimeout = errors.New("fingerprint scan timed out")

	// ErrEnrollTimeout means the enrollment sequence did not complete within
	// the polling budget.
	ErrEnrollTimeout = errors.New("fingerprint enrollment timed out")

	// ErrDuplicateFingerprint blocks enrollment of a finger the matcher
	// already knows.
	ErrDuplicateFingerprint = errors.New("fingerprint already enrolled")

	// ErrVoteInFlight is returned to a vote attempt while another one is
	// pending. Callers ignore it; concurrent clicks are dropped, not queued.
	ErrVoteInFlight = errors.New("vote submission already in flight")

	// ErrAlreadyVoted marks the session of a voter who has already cast a
	// ballot, whether detected locally or by the ledger's own rejection.
	ErrAlreadyVoted = errors.New("voter has already voted")

	// ErrLedgerUnavailable means no ledger handle is present; the voting step
	// still renders but submission cannot succeed.
	ErrLedgerUnavailable = errors.New("ledger connection unavailable")

	// ErrUnknownConstituency rejects a vote before any ledger call when the
	// voter's constituency resolves to no known index.
	ErrUnknownConstituency = errors.New("constituency not in candidate table")

	// ErrUnknownCandidate rejects a candidate index outside the ballot list.
	ErrUnknownCandidate = errors.New("candidate index out of range")

	// ErrMissingCapture blocks an enrollment or authentication that has no
	// biometric sample attached.
	ErrMissingCapture = errors.New("no biometric capture provided")

	// ErrStaleResult marks an asynchronous result that arrived after the
	// session moved on; the caller discards it.
	ErrStaleResult = errors.New("session state changed, result discarded")
)
