package service

import (
	"context"
	"fmt"
	"time"

	"voting-kiosk/ledger"
	"voting-kiosk/log"
	"voting-kiosk/models"
	"voting-kiosk/storage"
)

// CastVote submits the ballot for the authenticated voter. The candidate is
// given as its index into the constituency's ballot list; both the
// constituency index and the candidate name are resolved locally before any
// network traffic so an inconsistent table never reaches the ledger.
//
// Exactly one submission can be in flight per session: a second call while
// one is pending returns ErrVoteInFlight and changes nothing. A ledger
// rejection for a duplicate ballot still marks the session as voted, but
// without a candidate name, since the kiosk cannot confirm which ballot the
// ledger actually holds.
func (c *Coordinator) CastVote(ctx context.Context, candidateIndex int) error {
	c.mu.Lock()
	if c.session.Step != models.StepVoting {
		c.mu.Unlock()
		return ErrWrongStep
	}
	if c.session.HasVoted {
		c.mu.Unlock()
		return ErrAlreadyVoted
	}
	if c.ledger == nil {
		c.mu.Unlock()
		return ErrLedgerUnavailable
	}
	if c.voteInFlight {
		c.mu.Unlock()
		return ErrVoteInFlight
	}
	voter := c.session.Voter
	if voter == nil {
		c.mu.Unlock()
		return ErrWrongStep
	}

	constituencyIndex, ok := c.table.ConstituencyIndex(voter.Constituency)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownConstituency, voter.Constituency)
	}
	if candidateIndex < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, candidateIndex)
	}
	candidate, ok := c.table.CandidateName(voter.Constituency, uint64(candidateIndex))
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, candidateIndex)
	}

	c.voteInFlight = true
	gen := c.session.Generation
	handle := c.ledger
	ballot := models.Ballot{
		ConstituencyIndex: constituencyIndex,
		CandidateIndex:    uint64(candidateIndex),
	}
	c.mu.Unlock()

	start := time.Now()
	err := handle.SubmitBallot(ctx, ballot, voter.VoterID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.voteInFlight = false
	if c.session.Generation != gen {
		return ErrStaleResult
	}

	switch {
	case err == nil:
		c.session.HasVoted = true
		c.session.JustVoted = true
		c.session.VotedCandidate = candidate
		c.metrics.RecordVote(true, time.Since(start))
		c.journalLocked(storage.OutcomeVoted, candidate, "")
		c.markVotedLocked(ctx, voter.VoterID)
		c.scheduleResetLocked(c.timing.ResetDelay)
		log.Infof("ballot accepted for constituency %d", constituencyIndex)
		return nil

	case ledger.IsBenignDuplicate(err):
		// The chain already holds a ballot for this voter. Treat the session
		// as voted, but do not claim a candidate the kiosk never confirmed.
		c.session.HasVoted = true
		c.session.JustVoted = false
		c.session.VotedCandidate = ""
		c.metrics.RecordVote(false, time.Since(start))
		c.journalLocked(storage.OutcomeBenignDup, "", err.Error())
		c.markVotedLocked(ctx, voter.VoterID)
		c.scheduleResetLocked(c.timing.ResetDelay)
		return fmt.Errorf("%w: %v", ErrAlreadyVoted, err)

	default:
		// Transient failure: the session stays at voting so the voter can
		// retry.
		c.metrics.RecordVote(false, time.Since(start))
		return fmt.Errorf("ballot submission failed: %w", err)
	}
}

// markVotedLocked pushes the voted flag to the backend. Best-effort: the
// ledger is the authority on double voting, the registry flag only speeds up
// the kiosk-side rejection.
func (c *Coordinator) markVotedLocked(ctx context.Context, voterID string) {
	if err := c.backend.MarkVoted(context.WithoutCancel(ctx), voterID); err != nil {
		log.Warnf("failed to mark voter as voted in registry: %v", err)
	}
}
