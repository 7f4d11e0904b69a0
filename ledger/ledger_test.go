package ledger

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestIsBenignDuplicate(t *testing.T) {
	c := qt.New(t)

	c.Assert(IsBenignDuplicate(errors.New("execution reverted: Already voted")), qt.IsTrue)
	c.Assert(IsBenignDuplicate(errors.New("execution reverted: duplicate vote")), qt.IsTrue)
	c.Assert(IsBenignDuplicate(fmt.Errorf("vote failed: %w", errors.New("ALREADY VOTED"))), qt.IsTrue)

	c.Assert(IsBenignDuplicate(nil), qt.IsFalse)
	c.Assert(IsBenignDuplicate(errors.New("connection refused")), qt.IsFalse)
	c.Assert(IsBenignDuplicate(errors.New("execution reverted: invalid constituency")), qt.IsFalse)
}

func TestVoterCommitment(t *testing.T) {
	c := qt.New(t)

	base := VoterCommitment("VOT123")

	// Commitment is computed over the normalized id.
	c.Assert(VoterCommitment("  vot123 "), qt.Equals, base)
	c.Assert(VoterCommitment("VOT124"), qt.Not(qt.Equals), base)

	var zero [32]byte
	c.Assert(base, qt.Not(qt.Equals), zero)
}
