package models

// Step is the position of a voter session inside the kiosk workflow.
type Step int

const (
	// StepVoterID waits for a claimed voter id and checks it against the
	// external store.
	StepVoterID Step = iota
	// StepChooseAuth lets the voter pick one of the verification strategies.
	StepChooseAuth
	// StepAuthenticating runs the selected strategy until it resolves or the
	// voter cancels back.
	StepAuthenticating
	// StepVoting renders the ballot; it is also the terminal "already voted"
	// and "just voted" sub-states.
	StepVoting
)

func (s Step) String() string {
	switch s {
	case StepVoterID:
		return "voter_id"
	case StepChooseAuth:
		return "choose_auth"
	case StepAuthenticating:
		return "authenticating"
	case StepVoting:
		return "voting"
	default:
		return "unknown"
	}
}

// AuthMethod identifies the biometric verification strategy of a session.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthFace
	AuthFingerprint
)

func (m AuthMethod) String() string {
	switch m {
	case AuthFace:
		return "face"
	case AuthFingerprint:
		return "fingerprint"
	default:
		return "none"
	}
}

// Session is the ephemeral per-voter state owned by one kiosk workflow. It is
// created at StepVoterID and reset on timeout, back navigation or vote
// completion. Generation is bumped on every transition and reset so that a
// late asynchronous result (an abandoned poll, an expired timer) can be
// recognized and discarded instead of overwriting newer state.
type Session struct {
	ID             string
	Step           Step
	Generation     uint64
	VoterID        string
	AuthMethod     AuthMethod
	Voter          *VoterRecord
	HasVoted       bool
	JustVoted      bool
	VotedCandidate string
}
