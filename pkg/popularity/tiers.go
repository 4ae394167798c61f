package popularity

import (
	"sort"

	"github.com/andrew/webtoon-rag/pkg/models"
)

// Tier percentile boundaries over the normalized-score ranking. The top 3%
// of series are Hits; the remaining bands widen toward the tail.
var tierBounds = []struct {
	frac float64
	tier models.Tier
}{
	{0.03, models.TierHit},
	{0.15, models.TierVeryPopular},
	{0.40, models.TierPopular},
	{0.70, models.TierLessPopular},
	{1.00, models.TierUnpopular},
}

// AssignTiers maps normalized popularity scores to tier labels by rank
// percentile. Ties are ordered by series ID so assignment is deterministic.
func AssignTiers(normalized map[string]float64) map[string]models.Tier {
	ids := make([]string, 0, len(normalized))
	for id := range normalized {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if normalized[ids[i]] != normalized[ids[j]] {
			return normalized[ids[i]] > normalized[ids[j]]
		}
		return ids[i] < ids[j]
	})

	tiers := make(map[string]models.Tier, len(ids))
	n := float64(len(ids))
	for i, id := range ids {
		frac := float64(i+1) / n
		for _, b := range tierBounds {
			if frac <= b.frac {
				tiers[id] = b.tier
				break
			}
		}
	}
	return tiers
}

// Ranks returns 1-based popularity ranks ordered by normalized score
// descending, ties broken by series ID ascending.
func Ranks(normalized map[string]float64) map[string]int {
	ids := make([]string, 0, len(normalized))
	for id := range normalized {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if normalized[ids[i]] != normalized[ids[j]] {
			return normalized[ids[i]] > normalized[ids[j]]
		}
		return ids[i] < ids[j]
	})

	ranks := make(map[string]int, len(ids))
	for i, id := range ids {
		ranks[id] = i + 1
	}
	return ranks
}
