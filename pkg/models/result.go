package models

// ScoredItem is one ranked retrieval candidate.
type ScoredItem struct {
	Item       *Item
	Similarity float64
	Combined   float64
	Rank       int
}

// RetrievalResult is the outcome of one hybrid retrieval pass. A rejected
// result carries no candidates, only the confidence value and the reason.
type RetrievalResult struct {
	Items      []ScoredItem
	Confidence float64
	Accepted   bool
	Reason     string
}
