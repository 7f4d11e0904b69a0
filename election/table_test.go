package election

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDefaultTableIndexes(t *testing.T) {
	c := qt.New(t)
	table := DefaultTable()

	c.Assert(table.Len(), qt.Equals, 4)
	c.Assert(table.Constituencies(), qt.DeepEquals, []string{"jalna", "aurangabad", "beed", "ahmednagar"})

	idx, ok := table.ConstituencyIndex("beed")
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, uint64(2))

	// Lookups normalize their input.
	idx, ok = table.ConstituencyIndex("  Jalna ")
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, uint64(0))

	_, ok = table.ConstituencyIndex("pune")
	c.Assert(ok, qt.IsFalse)
}

func TestCandidateNameRoundTrip(t *testing.T) {
	c := qt.New(t)
	table := DefaultTable()

	// Every listed candidate resolves back to its own position.
	for _, constituency := range table.Constituencies() {
		names := table.Candidates(constituency)
		c.Assert(names, qt.HasLen, 3)
		for i, want := range names {
			got, ok := table.CandidateName(constituency, uint64(i))
			c.Assert(ok, qt.IsTrue)
			c.Assert(got, qt.Equals, want)
		}
	}

	_, ok := table.CandidateName("jalna", 3)
	c.Assert(ok, qt.IsFalse)
	c.Assert(table.Candidates("unknown"), qt.IsNil)
}

func TestCandidatesReturnsCopy(t *testing.T) {
	c := qt.New(t)
	table := DefaultTable()

	names := table.Candidates("jalna")
	names[0] = "TAMPERED"

	fresh := table.Candidates("jalna")
	c.Assert(fresh[0], qt.Equals, "KALYAN VAIJINATHRAO KALE")
}

func TestLoadTable(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "table.json")
	err := os.WriteFile(path, []byte(`{
	  "constituencies": [
	    {"name": " Nashik ", "index": 0, "candidates": ["A", "B"]},
	    {"name": "Thane", "index": 1, "candidates": ["C"]}
	  ]
	}`), 0644)
	c.Assert(err, qt.IsNil)

	table, err := LoadTable(path)
	c.Assert(err, qt.IsNil)
	c.Assert(table.Len(), qt.Equals, 2)

	idx, ok := table.ConstituencyIndex("nashik")
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, uint64(0))
	c.Assert(table.Candidates("thane"), qt.DeepEquals, []string{"C"})
}

func TestLoadTableRejectsBadEntries(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()

	cases := []struct {
		name string
		body string
	}{
		{"empty-name", `{"constituencies": [{"name": "  ", "index": 0, "candidates": ["A"]}]}`},
		{"no-candidates", `{"constituencies": [{"name": "x", "index": 0, "candidates": []}]}`},
		{"duplicate", `{"constituencies": [
			{"name": "x", "index": 0, "candidates": ["A"]},
			{"name": "X ", "index": 1, "candidates": ["B"]}
		]}`},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".json")
		err := os.WriteFile(path, []byte(tc.body), 0644)
		c.Assert(err, qt.IsNil)

		_, err = LoadTable(path)
		c.Assert(err, qt.IsNotNil, qt.Commentf("case %s", tc.name))
	}
}
