package domain

import "sort"

// Summary aggregates a result set for console reporting.
type Summary struct {
	Total            int
	ByCategory       map[Category]int
	ByFamily         map[Family]int
	WithOccurrences  int
	TotalOccurrences int
}

// Summarize tallies records by category and family. Records with no
// normalized category are counted under the empty key so audits can see how
// many raw statuses went unmapped.
func Summarize(records []SpeciesRecord) Summary {
	s := Summary{
		Total:      len(records),
		ByCategory: make(map[Category]int),
		ByFamily:   make(map[Family]int),
	}
	for _, r := range records {
		s.ByCategory[r.Category]++
		s.ByFamily[r.Family]++
		if r.HasOccurrenceData() {
			s.WithOccurrences++
		}
		s.TotalOccurrences += r.TotalOccurrences
	}
	return s
}

// SortedFamilies returns the families present in the summary in lexical
// order, for stable report output.
func (s Summary) SortedFamilies() []Family {
	out := make([]Family, 0, len(s.ByFamily))
	for f := range s.ByFamily {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TopByOccurrences returns up to n records with the most occurrence records,
// descending. Ties keep insertion order. The input slice is not modified.
func TopByOccurrences(records []SpeciesRecord, n int) []SpeciesRecord {
	sorted := make([]SpeciesRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalOccurrences > sorted[j].TotalOccurrences
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
