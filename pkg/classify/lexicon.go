package classify

// genreEntry maps a query keyword to a canonical genre name. Entries are held
// in a slice, not a map, so matching order is fixed and classification stays
// deterministic.
type genreEntry struct {
	keyword string
	genre   string
}

var genreLexicon = []genreEntry{
	{"slice of life", "Slice of Life"},
	{"supernatural", "Supernatural"},
	{"romance", "Romance"},
	{"romantic", "Romance"},
	{"thriller", "Thriller"},
	{"fantasy", "Fantasy"},
	{"comedy", "Comedy"},
	{"action", "Action"},
	{"horror", "Horror"},
	{"sci-fi", "Sci-Fi"},
	{"school", "School"},
	{"drama", "Drama"},
}

// moodLexicon triggers mood/thematic intent: words about characters, plot and
// themes rather than catalogue attributes.
var moodLexicon = []string{
	"mc", "protagonist", "character", "plot", "story",
	"about", "where", "revenge", "power", "crazy",
	"overpowered", "weak", "strong", "smart", "funny",
	"sad", "dark", "wholesome", "toxic", "betrayal",
	"friendship", "family", "underdog", "villain",
	"hero", "martial arts", "regression", "reincarnation",
	"system", "game", "level up", "dungeon", "tower",
	"lead", "female lead", "male lead",
}

// popularityLexicon is recognized as domain vocabulary and stripped from the
// semantic query; popularity itself is a ranking signal, not a hint.
var popularityLexicon = []string{
	"very popular", "not popular", "less popular", "hidden gem",
	"underrated", "mainstream", "well-known", "trending",
	"unpopular", "popular", "famous", "niche", "unknown",
}

// mediumLexicon is general webtoon vocabulary that marks a query as
// in-domain without implying any particular intent.
var mediumLexicon = []string{
	"webtoon", "manhwa", "manga", "comic", "series", "genre",
	"recommend", "recommendation", "suggestion", "similar", "like",
	"read", "find", "episode",
}

// fillerWords are stripped when building the semantic query.
var fillerWords = []string{
	"webtoon", "manhwa", "manga", "give me", "show me",
	"i want", "looking for", "recommend", "find", "a", "an", "the",
}
