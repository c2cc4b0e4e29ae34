package rating

import (
	"sort"

	"maimai-tracker/internal/domain"
)

// Bucket caps are fixed by the game: 35 songs from older releases, 15 from
// the current one.
const (
	StandardCap = 35
	CurrentCap  = 15
)

// SplitPolicy selects how records are partitioned between the two best-50
// buckets. The version split is the intended behavior; the chart-type split is
// the historical policy still used by the fit-difficulty view.
type SplitPolicy int

const (
	// SplitByVersion buckets by version currency: current-version songs
	// compete for the 15 slots, everything else for the 35.
	SplitByVersion SplitPolicy = iota
	// SplitByType buckets by chart category: SD charts for the 35 slots,
	// DX charts for the 15.
	SplitByType
)

// Best50 is the aggregation result. Standard and Current are already ranked
// and truncated; Total is the sum of their ratings only.
type Best50 struct {
	Standard []domain.EnrichedRecord `json:"standard"`
	Current  []domain.EnrichedRecord `json:"current"`
	Total    int                     `json:"total"`
}

// Aggregate partitions, ranks and truncates the record list. The input is not
// mutated; ties keep their fetch order.
func Aggregate(records []domain.EnrichedRecord, policy SplitPolicy) Best50 {
	var standard, current []domain.EnrichedRecord
	for _, r := range records {
		if inCurrentBucket(r, policy) {
			current = append(current, r)
		} else {
			standard = append(standard, r)
		}
	}

	sortByRating(standard)
	sortByRating(current)

	if len(standard) > StandardCap {
		standard = standard[:StandardCap]
	}
	if len(current) > CurrentCap {
		current = current[:CurrentCap]
	}

	total := 0
	for _, r := range standard {
		total += r.Ra
	}
	for _, r := range current {
		total += r.Ra
	}

	return Best50{Standard: standard, Current: current, Total: total}
}

func inCurrentBucket(r domain.EnrichedRecord, policy SplitPolicy) bool {
	if policy == SplitByType {
		return r.Type == "DX"
	}
	return r.IsNew
}

func sortByRating(records []domain.EnrichedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Ra > records[j].Ra
	})
}
