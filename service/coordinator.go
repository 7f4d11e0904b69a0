package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"voting-kiosk/election"
	"voting-kiosk/log"
	"voting-kiosk/models"
	"voting-kiosk/registry"
	"voting-kiosk/storage"
)

// Ledger is the contract surface the coordinator needs. ledger.Handle
// implements it; tests substitute a fake.
type Ledger interface {
	TotalConstituencies(ctx context.Context) (uint64, error)
	ResultsFor(ctx context.Context, constituencyIndex uint64) ([]*big.Int, error)
	SubmitBallot(ctx context.Context, ballot models.Ballot, voterID string) error
}

// LedgerConnector dials the ledger on demand. Connecting is best-effort when
// entering the voting step: the ballot still renders without a handle, the
// submission just cannot succeed until one is present.
type LedgerConnector func(ctx context.Context) (Ledger, error)

// Options configures a Coordinator beyond its required collaborators.
type Options struct {
	Timing        Timing
	Journal       *storage.Journal
	ConnectLedger LedgerConnector
	Metrics       *Metrics
}

// Coordinator owns one kiosk's voter session and drives it through the
// workflow: voter_id -> choose_auth -> authenticating -> voting. All state
// lives in the session record; the coordinator serializes every mutation, and
// asynchronous results carry the generation they started under so stale ones
// are discarded instead of overwriting newer state.
type Coordinator struct {
	mu sync.Mutex

	backend registry.Client
	table   *election.CandidateTable
	timing  Timing
	journal *storage.Journal
	metrics *Metrics

	connectLedger LedgerConnector
	ledger        Ledger

	session      *models.Session
	gen          uint64
	resetTimer   *time.Timer
	voteInFlight bool

	authenticators map[models.AuthMethod]Authenticator
}

// NewCoordinator creates a coordinator with a fresh session at the voter id
// step.
func NewCoordinator(backend registry.Client, table *election.CandidateTable, auths []Authenticator, opts Options) *Coordinator {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	c := &Coordinator{
		backend:        backend,
		table:          table,
		timing:         opts.Timing,
		journal:        opts.Journal,
		metrics:        opts.Metrics,
		connectLedger:  opts.ConnectLedger,
		authenticators: make(map[models.AuthMethod]Authenticator),
	}
	for _, a := range auths {
		c.authenticators[a.Method()] = a
	}
	c.session = c.newSessionLocked()
	return c
}

// Session returns a snapshot of the current session.
func (c *Coordinator) Session() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := *c.session
	if c.session.Voter != nil {
		v := *c.session.Voter
		s.Voter = &v
	}
	return s
}

// CheckVoterID validates and resolves the claimed voter id. Unknown ids keep
// the session at the voter id step; an id that already voted goes straight to
// the terminal already-voted screen with an auto-reset scheduled; otherwise
// the session advances to strategy selection.
func (c *Coordinator) CheckVoterID(ctx context.Context, input string) (*registry.VoterStatus, error) {
	voterID := models.NormalizeVoterID(input)
	if voterID == "" {
		return nil, ErrEmptyVoterID
	}

	c.mu.Lock()
	if c.session.Step != models.StepVoterID {
		c.mu.Unlock()
		return nil, ErrWrongStep
	}
	gen := c.session.Generation
	c.mu.Unlock()

	status, err := c.backend.CheckVoterID(ctx, voterID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Generation != gen {
		return nil, ErrStaleResult
	}

	if !status.Exists {
		// Stay at voter_id; the caller surfaces the error message.
		return status, nil
	}

	c.session.VoterID = voterID
	if status.HasVoted {
		c.session.Voter = &models.VoterRecord{
			VoterID:      voterID,
			Name:         status.Name,
			Constituency: models.NormalizeConstituency(status.Constituency),
			HasVoted:     true,
		}
		c.session.HasVoted = true
		c.transitionLocked(models.StepVoting)
		c.journalLocked(storage.OutcomeAlreadyVoted, "", "")
		c.scheduleResetLocked(c.timing.ResetDelay)
		return status, nil
	}

	c.transitionLocked(models.StepChooseAuth)
	return status, nil
}

// ChooseMethod selects the verification strategy and enters authenticating.
func (c *Coordinator) ChooseMethod(method models.AuthMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Step != models.StepChooseAuth {
		return ErrWrongStep
	}
	if _, ok := c.authenticators[method]; !ok {
		return ErrMissingCapture
	}
	c.session.AuthMethod = method
	c.transitionLocked(models.StepAuthenticating)
	return nil
}

// Authenticate runs the selected strategy once. A failed attempt keeps the
// session at authenticating so the voter can retry in place or go back; a
// success normalizes the record, enters the voting step and best-effort
// connects the ledger.
func (c *Coordinator) Authenticate(ctx context.Context) (*models.VoterRecord, error) {
	c.mu.Lock()
	if c.session.Step != models.StepAuthenticating {
		c.mu.Unlock()
		return nil, ErrWrongStep
	}
	auth := c.authenticators[c.session.AuthMethod]
	voterID := c.session.VoterID
	gen := c.session.Generation
	c.mu.Unlock()

	start := time.Now()
	voter, err := auth.Resolve(ctx, voterID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Generation != gen {
		// The voter navigated away while the strategy was in flight.
		return nil, ErrStaleResult
	}
	if err != nil {
		c.metrics.RecordAuth(auth.Method(), false, time.Since(start))
		c.journalLocked(storage.OutcomeAuthFailed, "", err.Error())
		return nil, err
	}

	normalized := voter.Normalize()
	c.session.Voter = &normalized
	c.metrics.RecordAuth(auth.Method(), true, time.Since(start))
	c.transitionLocked(models.StepVoting)

	if c.ledger == nil && c.connectLedger != nil {
		// Best-effort: the voting step renders either way.
		ledger, err := c.connectLedger(ctx)
		if err != nil {
			log.Warnf("ledger connection failed, voting disabled until retry: %v", err)
		} else if err := c.table.VerifyAgainstLedger(ctx, ledger); err != nil {
			log.Errorf("candidate table does not match ledger, refusing to vote: %v", err)
		} else {
			c.ledger = ledger
		}
	}
	return &normalized, nil
}

// Candidates returns the ballot list for the authenticated voter's
// constituency, in ledger order.
func (c *Coordinator) Candidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Voter == nil {
		return nil
	}
	return c.table.Candidates(c.session.Voter.Constituency)
}

// Results reads the current tallies from the ledger, keyed by constituency,
// with counts in ballot order.
func (c *Coordinator) Results(ctx context.Context) (map[string][]uint64, error) {
	c.mu.Lock()
	handle := c.ledger
	c.mu.Unlock()
	if handle == nil {
		return nil, ErrLedgerUnavailable
	}

	results := make(map[string][]uint64)
	for _, constituency := range c.table.Constituencies() {
		index, _ := c.table.ConstituencyIndex(constituency)
		counts, err := handle.ResultsFor(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("failed to read results for %s: %w", constituency, err)
		}
		tallies := make([]uint64, len(counts))
		for i, n := range counts {
			tallies[i] = n.Uint64()
		}
		results[constituency] = tallies
	}
	return results, nil
}

// Back navigates one step towards voter_id, synchronously invalidating any
// in-flight asynchronous work through the generation bump.
func (c *Coordinator) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.session.Step {
	case models.StepChooseAuth:
		c.session.VoterID = ""
		c.transitionLocked(models.StepVoterID)
	case models.StepAuthenticating:
		c.session.AuthMethod = models.AuthNone
		c.transitionLocked(models.StepChooseAuth)
	}
}

// Reset abandons the session and starts a fresh one.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Step != models.StepVoterID && !c.session.HasVoted {
		c.journalLocked(storage.OutcomeAbandoned, "", "")
	}
	c.resetLocked()
}

// SetLedger installs (or clears) the ledger handle explicitly.
func (c *Coordinator) SetLedger(l Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger = l
}

func (c *Coordinator) newSessionLocked() *models.Session {
	c.gen++
	return &models.Session{
		ID:         uuid.New().String(),
		Step:       models.StepVoterID,
		Generation: c.gen,
	}
}

// transitionLocked advances the step and bumps the generation so results
// started under the old step cannot write through.
func (c *Coordinator) transitionLocked(step models.Step) {
	log.Debugf("session %s: %s -> %s", c.session.ID, c.session.Step, step)
	c.session.Step = step
	c.gen++
	c.session.Generation = c.gen
}

func (c *Coordinator) resetLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	c.metrics.RecordSessionEnd()
	log.Debugf("session %s reset", c.session.ID)
	c.session = c.newSessionLocked()
}

// scheduleResetLocked arms the auto-reset timer. The callback re-checks the
// generation: if the session already moved on, the expired timer is a stale
// write and does nothing.
func (c *Coordinator) scheduleResetLocked(after time.Duration) {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	gen := c.session.Generation
	c.resetTimer = time.AfterFunc(after, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session.Generation != gen {
			return
		}
		c.resetLocked()
	})
}

func (c *Coordinator) journalLocked(outcome storage.Outcome, candidate, detail string) {
	if c.journal == nil {
		return
	}
	rec := &storage.Record{
		ID:         uuid.New().String(),
		SessionID:  c.session.ID,
		VoterID:    c.session.VoterID,
		AuthMethod: c.session.AuthMethod.String(),
		Outcome:    outcome,
		Candidate:  candidate,
		Detail:     detail,
	}
	if err := c.journal.Append(rec); err != nil {
		log.Warnf("failed to journal session outcome: %v", err)
	}
}
