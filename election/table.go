// Package election holds the static candidate table shared by the kiosk and
// the registrar portal.
package election

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"voting-kiosk/models"
)

// CandidateTable maps a normalized constituency name to its ledger index and
// its ordered candidate list. Candidate order is positional: the offset of a
// name in the slice is the candidate index submitted to the ledger, so the
// table must never be reshuffled independently of the deployed contract.
type CandidateTable struct {
	indexByName map[string]uint64
	candidates  map[string][]string
}

// DefaultTable returns the table for the deployed election contract.
func DefaultTable() *CandidateTable {
	return &CandidateTable{
		indexByName: map[string]uint64{
			"jalna":      0,
			"aurangabad": 1,
			"beed":       2,
			"ahmednagar": 3,
		},
		candidates: map[string][]string{
			"jalna":      {"KALYAN VAIJINATHRAO KALE", "DANVE RAOSAHEB DADARAO", "MANGESH SANJAY SABLE"},
			"aurangabad": {"BHUMARE SANDIPANRAO ASARAM", "IMTIAZ JALEEL SYED", "CHANDRAKANT KHAIRE"},
			"beed":       {"BAJRANG MANOHAR SONWANE", "PANKAJA GOPINATHRAO MUNDE", "ASHOK BHAGOJI THORAT"},
			"ahmednagar": {"NILESH DNYANDEV LANKE", "DR. SUJAY RADHAKRISHNA VIKHEPATIL", "ALEKAR GORAKH DASHRATH"},
		},
	}
}

type tableFile struct {
	Constituencies []struct {
		Name       string   `json:"name"`
		Index      uint64   `json:"index"`
		Candidates []string `json:"candidates"`
	} `json:"constituencies"`
}

// LoadTable reads a candidate table from a JSON file, for elections other
// than the default one.
func LoadTable(path string) (*CandidateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate table: %w", err)
	}

	var tf tableFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse candidate table: %w", err)
	}

	t := &CandidateTable{
		indexByName: make(map[string]uint64),
		candidates:  make(map[string][]string),
	}
	for _, c := range tf.Constituencies {
		name := models.NormalizeConstituency(c.Name)
		if name == "" {
			return nil, fmt.Errorf("candidate table entry with empty constituency name")
		}
		if len(c.Candidates) == 0 {
			return nil, fmt.Errorf("constituency %q has no candidates", name)
		}
		if _, dup := t.indexByName[name]; dup {
			return nil, fmt.Errorf("duplicate constituency %q in candidate table", name)
		}
		t.indexByName[name] = c.Index
		t.candidates[name] = c.Candidates
	}
	return t, nil
}

// ConstituencyIndex resolves a constituency name to its ledger index.
func (t *CandidateTable) ConstituencyIndex(constituency string) (uint64, bool) {
	idx, ok := t.indexByName[models.NormalizeConstituency(constituency)]
	return idx, ok
}

// Candidates returns the ordered candidate list for a constituency, or nil if
// the constituency is unknown.
func (t *CandidateTable) Candidates(constituency string) []string {
	names := t.candidates[models.NormalizeConstituency(constituency)]
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// CandidateName returns the display name at a positional candidate index.
func (t *CandidateTable) CandidateName(constituency string, index uint64) (string, bool) {
	names := t.candidates[models.NormalizeConstituency(constituency)]
	if index >= uint64(len(names)) {
		return "", false
	}
	return names[index], true
}

// Constituencies returns the known constituency names sorted by ledger index.
func (t *CandidateTable) Constituencies() []string {
	names := make([]string, 0, len(t.indexByName))
	for name := range t.indexByName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return t.indexByName[names[i]] < t.indexByName[names[j]]
	})
	return names
}

// Len returns the number of constituencies in the table.
func (t *CandidateTable) Len() int { return len(t.indexByName) }
