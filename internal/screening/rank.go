package screening

import (
	"fmt"
	"sort"
)

// Ranking is every site ordered best-first.
type Ranking []Site

// Rank orders all sites by binding energy, most negative first. Ties break on
// site ID so the ordering is stable across runs. The best site is the head of
// the ranking; an empty result set is an error since nothing downstream can
// proceed without a site.
func Rank(res *Results) (Ranking, Site, error) {
	if res == nil || len(res.Sites) == 0 {
		return nil, Site{}, fmt.Errorf("no screening results to rank")
	}

	ranking := make(Ranking, 0, len(res.Sites))
	for _, site := range res.Sites {
		ranking = append(ranking, site)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Energy != ranking[j].Energy {
			return ranking[i].Energy < ranking[j].Energy
		}
		return ranking[i].ID < ranking[j].ID
	})

	return ranking, ranking[0], nil
}
