package storage

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestJournalAppendAndReload(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()

	j, err := NewJournal(dir)
	c.Assert(err, qt.IsNil)

	err = j.Append(&Record{ID: "r1", VoterID: "VOT001", Outcome: OutcomeVoted, Candidate: "A"})
	c.Assert(err, qt.IsNil)
	err = j.Append(&Record{ID: "r2", VoterID: "VOT002", Outcome: OutcomeAlreadyVoted})
	c.Assert(err, qt.IsNil)

	records := j.Records()
	c.Assert(records, qt.HasLen, 2)
	c.Assert(records[0].Timestamp.IsZero(), qt.IsFalse)

	// A fresh journal over the same directory sees both records.
	reloaded, err := NewJournal(dir)
	c.Assert(err, qt.IsNil)
	records = reloaded.Records()
	c.Assert(records, qt.HasLen, 2)
	c.Assert(records[0].ID, qt.Equals, "r1")
	c.Assert(records[1].Outcome, qt.Equals, OutcomeAlreadyVoted)
}

func TestJournalRecordsReturnsCopy(t *testing.T) {
	c := qt.New(t)

	j, err := NewJournal(t.TempDir())
	c.Assert(err, qt.IsNil)
	c.Assert(j.Append(&Record{ID: "r1"}), qt.IsNil)

	records := j.Records()
	records[0] = nil
	c.Assert(j.Records()[0], qt.IsNotNil)
}

func TestTemplateDigest(t *testing.T) {
	c := qt.New(t)

	digest := TemplateDigest("FP_TEMPLATE_1_0")
	c.Assert(digest, qt.HasLen, 64)
	c.Assert(digest, qt.Not(qt.Contains), "FP_TEMPLATE")

	// Deterministic, and empty templates produce no digest.
	c.Assert(TemplateDigest("FP_TEMPLATE_1_0"), qt.Equals, digest)
	c.Assert(TemplateDigest(""), qt.Equals, "")
}
