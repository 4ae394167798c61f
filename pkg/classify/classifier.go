// Package classify assigns each raw query exactly one intent via an ordered
// rule ladder and extracts structured hints (genre names, title fragments)
// for the retriever's metadata boost.
//
// Rule priority: exact title > comparison > genre browse > mood/thematic >
// general. The first rule that fires wins, making classification total and
// deterministic. Queries with no recognizable domain vocabulary at all are
// classified out-of-domain and rejected downstream without retrieval.
package classify

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/andrew/webtoon-rag/pkg/models"
)

// ErrEmptyQuery is returned when the query is blank after trimming.
var ErrEmptyQuery = errors.New("classify: empty query")

var comparisonMarkers = []string{"similar to", "like", "compared to", "in the vein of"}

// Classifier holds the known-title set alongside the fixed lexicons.
type Classifier struct {
	// titles maps lowercased known titles to their canonical form.
	titles map[string]string
	// titleOrder preserves a deterministic match order for titles.
	titleOrder []string

	wordPatterns map[string]*regexp.Regexp
}

// New builds a Classifier over the corpus's known titles.
func New(knownTitles []string) *Classifier {
	c := &Classifier{
		titles:       make(map[string]string, len(knownTitles)),
		wordPatterns: make(map[string]*regexp.Regexp),
	}
	for _, t := range knownTitles {
		lower := strings.ToLower(strings.TrimSpace(t))
		if lower == "" {
			continue
		}
		if _, ok := c.titles[lower]; !ok {
			c.titles[lower] = t
			c.titleOrder = append(c.titleOrder, lower)
		}
	}
	// Longer titles first so "tower of god season 2" wins over "tower of god".
	sort.Slice(c.titleOrder, func(i, j int) bool {
		if len(c.titleOrder[i]) != len(c.titleOrder[j]) {
			return len(c.titleOrder[i]) > len(c.titleOrder[j])
		}
		return c.titleOrder[i] < c.titleOrder[j]
	})

	for _, e := range genreLexicon {
		c.compileWord(e.keyword)
	}
	for _, lex := range [][]string{moodLexicon, popularityLexicon, mediumLexicon, fillerWords} {
		for _, w := range lex {
			c.compileWord(w)
		}
	}
	return c
}

func (c *Classifier) compileWord(w string) {
	if _, ok := c.wordPatterns[w]; !ok {
		c.wordPatterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
}

func (c *Classifier) hasWord(query, w string) bool {
	p, ok := c.wordPatterns[w]
	if !ok {
		return strings.Contains(query, w)
	}
	return p.MatchString(query)
}

// Classify normalizes the query, runs the rule ladder and attaches extracted
// hints. It never errs on non-empty input.
func (c *Classifier) Classify(raw string) (models.ClassifiedQuery, error) {
	query := strings.ToLower(strings.TrimSpace(raw))
	if query == "" {
		return models.ClassifiedQuery{}, ErrEmptyQuery
	}

	genreHints := c.extractGenres(query)
	titleHints := c.extractTitles(query)
	hasMood := c.matchesAny(query, moodLexicon)

	cq := models.ClassifiedQuery{
		Raw:           raw,
		GenreHints:    genreHints,
		TitleHints:    titleHints,
		SemanticQuery: c.buildSemanticQuery(query),
	}

	switch {
	case c.isExactTitle(query):
		cq.Intent = models.IntentTitle
	case c.isComparison(query, titleHints):
		cq.Intent = models.IntentComparison
	case len(genreHints) > 0 && !hasMood:
		cq.Intent = models.IntentGenre
	case hasMood:
		cq.Intent = models.IntentMood
	case !c.inDomain(query, genreHints, titleHints, hasMood):
		cq.Intent = models.IntentOutOfDomain
	default:
		cq.Intent = models.IntentGeneral
	}
	return cq, nil
}

// isExactTitle reports whether the whole query is a known title.
func (c *Classifier) isExactTitle(query string) bool {
	_, ok := c.titles[query]
	return ok
}

// isComparison fires when a comparison marker is followed by a known title
// fragment ("something like tower of god").
func (c *Classifier) isComparison(query string, titleHints []string) bool {
	if len(titleHints) == 0 {
		return false
	}
	for _, marker := range comparisonMarkers {
		if c.hasWord(query, marker) {
			return true
		}
	}
	return false
}

func (c *Classifier) extractGenres(query string) []string {
	var hints []string
	seen := make(map[string]struct{})
	for _, e := range genreLexicon {
		if !c.hasWord(query, e.keyword) {
			continue
		}
		if _, dup := seen[e.genre]; dup {
			continue
		}
		seen[e.genre] = struct{}{}
		hints = append(hints, e.genre)
	}
	return hints
}

func (c *Classifier) extractTitles(query string) []string {
	var hints []string
	for _, lower := range c.titleOrder {
		if strings.Contains(query, lower) {
			hints = append(hints, c.titles[lower])
		}
	}
	return hints
}

func (c *Classifier) matchesAny(query string, lexicon []string) bool {
	for _, w := range lexicon {
		if c.hasWord(query, w) {
			return true
		}
	}
	return false
}

// inDomain reports whether the query contains any recognizable webtoon
// vocabulary: a hint, a mood word, a popularity word, or a medium word.
func (c *Classifier) inDomain(query string, genreHints, titleHints []string, hasMood bool) bool {
	if len(genreHints) > 0 || len(titleHints) > 0 || hasMood {
		return true
	}
	return c.matchesAny(query, popularityLexicon) || c.matchesAny(query, mediumLexicon)
}

// buildSemanticQuery strips attribute keywords and filler words so the
// embedding focuses on thematic content. Falls back to the full query when
// stripping leaves nothing.
func (c *Classifier) buildSemanticQuery(query string) string {
	out := query
	for _, e := range genreLexicon {
		out = c.wordPatterns[e.keyword].ReplaceAllString(out, "")
	}
	for _, w := range popularityLexicon {
		out = c.wordPatterns[w].ReplaceAllString(out, "")
	}
	for _, w := range fillerWords {
		out = c.wordPatterns[w].ReplaceAllString(out, "")
	}
	out = strings.TrimSpace(strings.Join(strings.Fields(out), " "))
	if out == "" {
		return query
	}
	return out
}
