// Package popularity fits and applies the expected-likes decay curve
// f(k) = alpha * k^(-beta) over per-episode engagement, and converts raw
// engagement into a normalized popularity score comparable across series of
// different length and age.
package popularity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/andrew/webtoon-rag/pkg/models"
)

var (
	// ErrInsufficientData is returned by Fit when fewer than MinSamples
	// distinct episode observations are available.
	ErrInsufficientData = errors.New("popularity: insufficient engagement data")
	// ErrDegenerateFit is returned by Fit when all episode indices are
	// identical, leaving no variance to regress against.
	ErrDegenerateFit = errors.New("popularity: degenerate fit, all episode indices identical")
	// ErrInvalidEpisodeIndex is returned by ExpectedLikes for k <= 0.
	ErrInvalidEpisodeIndex = errors.New("popularity: episode index must be positive")
)

// MinSamples is the minimum number of distinct episode observations required
// to fit the decay curve.
const MinSamples = 30

// ratioClip bounds per-episode observed/expected ratios before aggregation so
// a single outlier episode cannot dominate a series score.
const ratioClip = 4.0

// Fitted holds the immutable parameters of a fitted decay curve. A Fitted
// value is safe for unsynchronized concurrent reads; retraining produces a
// new instance rather than mutating an existing one.
type Fitted struct {
	Alpha float64
	Beta  float64
	R2    float64
}

// Fit estimates alpha and beta by least-squares regression of
// ln(likes) = ln(alpha) - beta*ln(k) over all positive observations.
// The regression is deterministic: identical input yields identical
// parameters.
func Fit(engagements []models.EpisodeEngagement) (*Fitted, error) {
	var xs, ys []float64
	seen := make(map[string]struct{})
	episodes := make(map[int]struct{})

	for _, e := range engagements {
		if e.Episode <= 0 || e.Likes <= 0 {
			continue
		}
		key := fmt.Sprintf("%s/%d", e.SeriesID, e.Episode)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		episodes[e.Episode] = struct{}{}
		xs = append(xs, math.Log(float64(e.Episode)))
		ys = append(ys, math.Log(e.Likes))
	}

	if len(xs) < MinSamples {
		return nil, fmt.Errorf("%w: have %d observations, need %d", ErrInsufficientData, len(xs), MinSamples)
	}
	if len(episodes) < 2 {
		return nil, ErrDegenerateFit
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)

	return &Fitted{
		Alpha: math.Exp(intercept),
		Beta:  -slope,
		R2:    r2,
	}, nil
}

// ExpectedLikes evaluates the fitted curve at episode index k.
// Monotonically non-increasing in k for Beta >= 0.
func (f *Fitted) ExpectedLikes(k int) (float64, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: k=%d", ErrInvalidEpisodeIndex, k)
	}
	return f.Alpha * math.Pow(float64(k), -f.Beta), nil
}

// SeriesScore aggregates a series' per-episode observed/expected ratios into
// a single raw popularity score: the median ratio, clipped to [0, ratioClip].
// The decay-adjusted ratio rewards series that outperform their expected
// trajectory rather than merely long-running ones with large cumulative
// counts. Returns 0 when no usable observations exist.
func (f *Fitted) SeriesScore(obs []models.EpisodeEngagement) float64 {
	var ratios []float64
	for _, e := range obs {
		expected, err := f.ExpectedLikes(e.Episode)
		if err != nil || expected <= 0 || e.Likes < 0 {
			continue
		}
		ratios = append(ratios, e.Likes/expected)
	}
	if len(ratios) == 0 {
		return 0
	}
	sort.Float64s(ratios)
	median := stat.Quantile(0.5, stat.Empirical, ratios, nil)
	return math.Min(math.Max(median, 0), ratioClip)
}

// NormalizeCorpus rescales raw series scores across the full corpus to [0,1]
// by min-max. When the corpus has no spread (single item, or all scores
// equal) every item maps to 0.5 so no series is unfairly ranked at either
// extreme.
func NormalizeCorpus(scores map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return normalized
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		min = math.Min(min, s)
		max = math.Max(max, s)
	}

	if max-min < 1e-12 {
		for id := range scores {
			normalized[id] = 0.5
		}
		return normalized
	}

	for id, s := range scores {
		normalized[id] = (s - min) / (max - min)
	}
	return normalized
}
