package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"voting-kiosk/election"
	"voting-kiosk/models"
	"voting-kiosk/registry"
	"voting-kiosk/storage"
)

// fakeLedger implements Ledger in memory. SubmitBallot optionally blocks on
// gate to let tests hold a submission in flight.
type fakeLedger struct {
	mu       sync.Mutex
	submits  int
	last     models.Ballot
	err      error
	gate     chan struct{}
	started  chan struct{}
	tallyFor map[uint64]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		tallyFor: map[uint64]int{0: 3, 1: 3, 2: 3, 3: 3},
	}
}

func (f *fakeLedger) TotalConstituencies(ctx context.Context) (uint64, error) {
	return uint64(len(f.tallyFor)), nil
}

func (f *fakeLedger) ResultsFor(ctx context.Context, constituencyIndex uint64) ([]*big.Int, error) {
	n, ok := f.tallyFor[constituencyIndex]
	if !ok {
		return nil, fmt.Errorf("no constituency %d", constituencyIndex)
	}
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(int64(i))
	}
	return out, nil
}

func (f *fakeLedger) SubmitBallot(ctx context.Context, ballot models.Ballot, voterID string) error {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submits++
	f.last = ballot
	return nil
}

func newTestCoordinator(t *testing.T, mock *registry.MockClient) (*Coordinator, *storage.Journal) {
	t.Helper()
	journal, err := storage.NewJournal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	coord := NewCoordinator(
		mock,
		election.DefaultTable(),
		[]Authenticator{&FingerprintAuthenticator{Backend: mock, Timing: fastTiming()}},
		Options{Timing: fastTiming(), Journal: journal},
	)
	return coord, journal
}

// advanceToVoting walks a seeded voter through id check and fingerprint auth.
func advanceToVoting(t *testing.T, coord *Coordinator, mock *registry.MockClient) {
	t.Helper()
	ctx := context.Background()

	mock.QueueScan(&registry.ScanResult{Scanned: true, TemplateData: "FP_TEMPLATE_1_0"})
	if _, err := coord.CheckVoterID(ctx, "vot001"); err != nil {
		t.Fatalf("check voter id: %v", err)
	}
	if err := coord.ChooseMethod(models.AuthFingerprint); err != nil {
		t.Fatalf("choose method: %v", err)
	}
	if _, err := coord.Authenticate(ctx); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestCheckVoterIDEmpty(t *testing.T) {
	c := qt.New(t)
	coord, _ := newTestCoordinator(t, registry.NewMockClient())

	_, err := coord.CheckVoterID(context.Background(), "   ")
	c.Assert(err, qt.ErrorIs, ErrEmptyVoterID)
	c.Assert(coord.Session().Step, qt.Equals, models.StepVoterID)
}

func TestCheckVoterIDUnknownStays(t *testing.T) {
	c := qt.New(t)
	coord, _ := newTestCoordinator(t, registry.NewMockClient())

	status, err := coord.CheckVoterID(context.Background(), "nobody")
	c.Assert(err, qt.IsNil)
	c.Assert(status.Exists, qt.IsFalse)
	c.Assert(coord.Session().Step, qt.Equals, models.StepVoterID)
}

func TestCheckVoterIDAdvances(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)
	coord, _ := newTestCoordinator(t, mock)

	status, err := coord.CheckVoterID(context.Background(), "  vot001 ")
	c.Assert(err, qt.IsNil)
	c.Assert(status.Exists, qt.IsTrue)

	session := coord.Session()
	c.Assert(session.Step, qt.Equals, models.StepChooseAuth)
	c.Assert(session.VoterID, qt.Equals, "VOT001")
}

func TestCheckVoterIDAlreadyVoted(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	mock.AddVoter(models.VoterRecord{
		VoterID: "VOT002", Name: "Ravi Jadhav", Constituency: "jalna", HasVoted: true,
	})
	coord, journal := newTestCoordinator(t, mock)

	_, err := coord.CheckVoterID(context.Background(), "vot002")
	c.Assert(err, qt.IsNil)

	// Straight to the terminal voting screen, no authentication offered.
	session := coord.Session()
	c.Assert(session.Step, qt.Equals, models.StepVoting)
	c.Assert(session.HasVoted, qt.IsTrue)
	c.Assert(session.JustVoted, qt.IsFalse)

	records := journal.Records()
	c.Assert(records, qt.HasLen, 1)
	c.Assert(records[0].Outcome, qt.Equals, storage.OutcomeAlreadyVoted)

	// The screen resets itself back to voter id.
	deadline := time.After(time.Second)
	for coord.Session().Step != models.StepVoterID {
		select {
		case <-deadline:
			t.Fatal("session never auto-reset")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestChooseMethodRequiresChooseAuthStep(t *testing.T) {
	c := qt.New(t)
	coord, _ := newTestCoordinator(t, registry.NewMockClient())

	c.Assert(coord.ChooseMethod(models.AuthFingerprint), qt.ErrorIs, ErrWrongStep)
}

func TestAuthenticateAdvancesToVoting(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)
	coord, _ := newTestCoordinator(t, mock)

	advanceToVoting(t, coord, mock)

	session := coord.Session()
	c.Assert(session.Step, qt.Equals, models.StepVoting)
	c.Assert(session.Voter.Name, qt.Equals, "Asha Patil")
	c.Assert(session.Voter.Constituency, qt.Equals, "beed")
	c.Assert(coord.Candidates(), qt.HasLen, 3)
}

func TestAuthenticateFailureKeepsStep(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)
	coord, _ := newTestCoordinator(t, mock)
	ctx := context.Background()

	_, err := coord.CheckVoterID(ctx, "vot001")
	c.Assert(err, qt.IsNil)
	c.Assert(coord.ChooseMethod(models.AuthFingerprint), qt.IsNil)

	// Wrong finger: the attempt fails but the voter can retry in place.
	mock.QueueScan(&registry.ScanResult{Scanned: true, TemplateData: "FP_TEMPLATE_9_0"})
	_, err = coord.Authenticate(ctx)
	c.Assert(registry.IsRejection(err), qt.IsTrue)
	c.Assert(coord.Session().Step, qt.Equals, models.StepAuthenticating)

	// Right finger on the retry.
	mock.QueueScan(&registry.ScanResult{Scanned: true, TemplateData: "FP_TEMPLATE_1_0"})
	_, err = coord.Authenticate(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(coord.Session().Step, qt.Equals, models.StepVoting)
}

func TestBackNavigation(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)
	coord, _ := newTestCoordinator(t, mock)
	ctx := context.Background()

	_, err := coord.CheckVoterID(ctx, "vot001")
	c.Assert(err, qt.IsNil)
	c.Assert(coord.ChooseMethod(models.AuthFingerprint), qt.IsNil)

	coord.Back()
	c.Assert(coord.Session().Step, qt.Equals, models.StepChooseAuth)

	coord.Back()
	session := coord.Session()
	c.Assert(session.Step, qt.Equals, models.StepVoterID)
	c.Assert(session.VoterID, qt.Equals, "")
}

func TestBackDiscardsInFlightAuthentication(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)
	coord, _ := newTestCoordinator(t, mock)
	ctx := context.Background()

	_, err := coord.CheckVoterID(ctx, "vot001")
	c.Assert(err, qt.IsNil)
	c.Assert(coord.ChooseMethod(models.AuthFingerprint), qt.IsNil)

	// Authentication is polling an empty scan queue; navigate back while it
	// runs, then feed it a valid template. The late success must be dropped.
	done := make(chan error, 1)
	go func() {
		_, err := coord.Authenticate(ctx)
		done <- err
	}()
	time.Sleep(2 * time.Millisecond)
	coord.Back()
	mock.QueueScan(&registry.ScanResult{Scanned: true, TemplateData: "FP_TEMPLATE_1_0"})

	err = <-done
	if err == nil {
		t.Fatal("late authentication result was not discarded")
	}
	c.Assert(errors.Is(err, ErrStaleResult) || errors.Is(err, ErrScanTimeout), qt.IsTrue)
	c.Assert(coord.Session().Step, qt.Equals, models.StepChooseAuth)
}

func TestLedgerVerificationMismatchDisablesVoting(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	seedVoter(mock)

	// The connector hands back a ledger that disagrees with the local table.
	bad := newFakeLedger()
	bad.tallyFor = map[uint64]int{0: 3, 1: 3}
	journal, err := storage.NewJournal(t.TempDir())
	c.Assert(err, qt.IsNil)

	coord := NewCoordinator(
		mock,
		election.DefaultTable(),
		[]Authenticator{&FingerprintAuthenticator{Backend: mock, Timing: fastTiming()}},
		Options{
			Timing:  fastTiming(),
			Journal: journal,
			ConnectLedger: func(ctx context.Context) (Ledger, error) {
				return bad, nil
			},
		},
	)

	advanceToVoting(t, coord, mock)
	c.Assert(coord.Session().Step, qt.Equals, models.StepVoting)

	// Voting renders but submission is blocked: the mismatched handle was
	// never installed.
	err = coord.CastVote(context.Background(), 0)
	c.Assert(err, qt.ErrorIs, ErrLedgerUnavailable)
}

func TestResults(t *testing.T) {
	c := qt.New(t)
	mock := registry.NewMockClient()
	coord, _ := newTestCoordinator(t, mock)

	_, err := coord.Results(context.Background())
	c.Assert(err, qt.ErrorIs, ErrLedgerUnavailable)

	coord.SetLedger(newFakeLedger())
	results, err := coord.Results(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 4)
	c.Assert(results["beed"], qt.DeepEquals, []uint64{0, 1, 2})
}
