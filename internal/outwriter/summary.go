package outwriter

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the spread of commit counts across the rows of a rollup.
type Summary struct {
	Rows          int     `json:"rows"`
	TotalCommits  int64   `json:"total_commits"`
	MeanCommits   float64 `json:"mean_commits"`
	MedianCommits float64 `json:"median_commits"`
	P90Commits    float64 `json:"p90_commits"`
}

// Summarize computes the commit distribution. An empty input yields a zero Summary.
func Summarize(commits []int64) (Summary, error) {
	summary := Summary{Rows: len(commits)}
	if len(commits) == 0 {
		return summary, nil
	}

	data := make(stats.Float64Data, 0, len(commits))
	for _, c := range commits {
		summary.TotalCommits += c
		data = append(data, float64(c))
	}

	var err error
	if summary.MeanCommits, err = data.Mean(); err != nil {
		return Summary{}, err
	}
	if summary.MedianCommits, err = data.Median(); err != nil {
		return Summary{}, err
	}
	if summary.P90Commits, err = data.Percentile(90); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
