package models

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestNormalizeVoterID(t *testing.T) {
	c := qt.New(t)

	c.Assert(NormalizeVoterID("  vot123  "), qt.Equals, "VOT123")
	c.Assert(NormalizeVoterID("VOT123"), qt.Equals, "VOT123")
	c.Assert(NormalizeVoterID("   "), qt.Equals, "")
}

func TestNormalizeConstituency(t *testing.T) {
	c := qt.New(t)

	c.Assert(NormalizeConstituency(" Jalna "), qt.Equals, "jalna")
	c.Assert(NormalizeConstituency("AURANGABAD"), qt.Equals, "aurangabad")
}

func TestVoterRecordNormalize(t *testing.T) {
	c := qt.New(t)

	v := VoterRecord{
		VoterID:      " vot001 ",
		Name:         "Asha Patil",
		Constituency: " Beed ",
	}
	n := v.Normalize()
	c.Assert(n.VoterID, qt.Equals, "VOT001")
	c.Assert(n.Constituency, qt.Equals, "beed")
	c.Assert(n.Name, qt.Equals, "Asha Patil")

	// The original record is untouched.
	c.Assert(v.VoterID, qt.Equals, " vot001 ")
}

func TestStepString(t *testing.T) {
	c := qt.New(t)

	c.Assert(StepVoterID.String(), qt.Equals, "voter_id")
	c.Assert(StepChooseAuth.String(), qt.Equals, "choose_auth")
	c.Assert(StepAuthenticating.String(), qt.Equals, "authenticating")
	c.Assert(StepVoting.String(), qt.Equals, "voting")
}
