package models

// Ballot is a pair of positional indices derived from the voter's normalized
// constituency and the candidate the voter picked. Both indices are array
// offsets that must stay in lock-step with the ledger's own indexing; a
// constituency that does not resolve to a known index rejects the vote before
// any ledger call.
type Ballot struct {
	ConstituencyIndex uint64
	CandidateIndex    uint64
}
