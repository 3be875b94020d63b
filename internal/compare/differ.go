package compare

import "sort"

// NotFound stands in for a key absent from one side of a diff
const NotFound = "NOT FOUND"

// Source identifies which document a value came from
type Source string

const (
	SourceReference Source = "reference"
	SourceCandidate Source = "candidate"
)

// Discrepancy is a field whose value differs between the two documents
type Discrepancy struct {
	Field          string `json:"field"`
	ReferenceValue string `json:"reference_value"`
	CandidateValue string `json:"candidate_value"`
}

// Diff compares two field maps by exact string equality over the union of
// their keys and returns the differing fields sorted by key. Neither map is
// modified.
func Diff(reference, candidate FieldMap) []Discrepancy {
	keys := make(map[string]struct{}, len(reference)+len(candidate))
	for k := range reference {
		keys[k] = struct{}{}
	}
	for k := range candidate {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []Discrepancy
	for _, k := range sorted {
		ref := lookup(reference, k)
		cand := lookup(candidate, k)
		if ref == cand {
			continue
		}
		out = append(out, Discrepancy{Field: k, ReferenceValue: ref, CandidateValue: cand})
	}
	return out
}

func lookup(m FieldMap, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return NotFound
}
