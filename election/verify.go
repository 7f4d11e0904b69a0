package election

import (
	"context"
	"fmt"
	"math/big"
)

// TallyReader is the ledger subset needed to cross-check the local table
// against the deployed contract.
type TallyReader interface {
	TotalConstituencies(ctx context.Context) (uint64, error)
	ResultsFor(ctx context.Context, constituencyIndex uint64) ([]*big.Int, error)
}

// VerifyAgainstLedger checks that the local table and the contract agree on
// constituency count and per-constituency candidate count. Nothing ties the
// two indexing schemes together by construction, so a reshuffled table would
// otherwise silently credit votes to the wrong candidate.
func (t *CandidateTable) VerifyAgainstLedger(ctx context.Context, ledger TallyReader) error {
	total, err := ledger.TotalConstituencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to read constituency count from ledger: %w", err)
	}
	if total != uint64(t.Len()) {
		return fmt.Errorf("ledger has %d constituencies, local table has %d", total, t.Len())
	}

	for name, idx := range t.indexByName {
		counts, err := ledger.ResultsFor(ctx, idx)
		if err != nil {
			return fmt.Errorf("failed to read tally for %s (index %d): %w", name, idx, err)
		}
		if len(counts) != len(t.candidates[name]) {
			return fmt.Errorf("ledger tracks %d candidates for %s, local table has %d",
				len(counts), name, len(t.candidates[name]))
		}
	}
	return nil
}
