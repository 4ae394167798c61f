package models

// Tier is a popularity tier label assigned from the normalized popularity
// score. Tiers follow the five-level system used across the corpus, with Hit
// reserved for the top slice of series.
type Tier string

const (
	TierHit         Tier = "Hit"
	TierVeryPopular Tier = "VeryPopular"
	TierPopular     Tier = "Popular"
	TierLessPopular Tier = "LessPopular"
	TierUnpopular   Tier = "Unpopular"
)

// Item represents one recommendable webtoon series.
//
// Identity and enrichment fields are written during data preparation and are
// read-only inside the retrieval core. The popularity-derived fields
// (PopularityRaw, PopularityNormalized, PopularityRank, Tier) are computed by
// the offline enrichment step.
type Item struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`

	Genres    []string  `json:"genres"`
	Summary   string    `json:"summary"`
	CoverURL  string    `json:"cover_url,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`

	Views       int64 `json:"views"`
	Subscribers int64 `json:"subscribers"`
	Likes       int64 `json:"likes"`

	PopularityRaw        float64 `json:"popularity_raw"`
	PopularityNormalized float64 `json:"popularity_normalized"`
	PopularityRank       int     `json:"popularity_rank"`
	Tier                 Tier    `json:"tier,omitempty"`
}

// EpisodeEngagement is one observed episode of a series, used only to fit the
// popularity decay model. Episode indices are 1-based per series.
type EpisodeEngagement struct {
	SeriesID string  `json:"series_id"`
	Episode  int     `json:"episode"`
	Likes    float64 `json:"likes"`
}
