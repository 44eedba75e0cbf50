package scoring

import "github.com/lexgraph/chainbench/internal/cite"

// RankedMetrics holds ranked-retrieval metrics for one prediction list
// against one ground-truth citation. Rank is 1-indexed, 0 when the ground
// truth is absent from the list.
type RankedMetrics struct {
	Rank    int     `json:"rank"`
	MRR     float64 `json:"mrr"`
	HitAt1  bool    `json:"hit_at_1"`
	HitAt5  bool    `json:"hit_at_5"`
	HitAt10 bool    `json:"hit_at_10"`
	HitAt20 bool    `json:"hit_at_20"`
}

// RankCitations finds the rank of the first predicted citation that
// canonically equals the ground truth and derives reciprocal-rank and hit@k
// metrics. An empty ground truth yields zero metrics.
func RankCitations(predictions []string, truth string) RankedMetrics {
	if truth == "" {
		return RankedMetrics{}
	}
	want := cite.Canonicalize(truth)
	for i, pred := range predictions {
		if cite.Canonicalize(pred) != want {
			continue
		}
		rank := i + 1
		return RankedMetrics{
			Rank:    rank,
			MRR:     1.0 / float64(rank),
			HitAt1:  rank <= 1,
			HitAt5:  rank <= 5,
			HitAt10: rank <= 10,
			HitAt20: rank <= 20,
		}
	}
	return RankedMetrics{}
}

// Primary returns the (score, correct) pair for ranked scoring: reciprocal
// rank and hit@10. The other hit@k booleans are auxiliary.
func (m RankedMetrics) Primary() (float64, bool) {
	return m.MRR, m.HitAt10
}
