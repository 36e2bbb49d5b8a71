package history

import (
	"fmt"
	"sort"
)

// BuildTrend summarizes reviews of a single path. Input order does not matter.
func BuildTrend(path string, reviews []Review) (Trend, error) {
	if len(reviews) == 0 {
		return Trend{}, fmt.Errorf("no reviews recorded for %q", path)
	}
	series := append([]Review(nil), reviews...)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	first, last := series[0], series[len(series)-1]
	t := Trend{
		Path:        path,
		ReviewCount: len(series),
		FirstScore:  first.Score,
		LatestScore: last.Score,
		BestScore:   first.Score,
		WorstScore:  first.Score,
		Delta:       last.Score - first.Score,
		Since:       first.Timestamp,
		Until:       last.Timestamp,
	}
	for _, r := range series[1:] {
		t.BestScore = max(t.BestScore, r.Score)
		t.WorstScore = min(t.WorstScore, r.Score)
	}
	return t, nil
}
