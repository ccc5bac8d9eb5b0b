package reconcile

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/arthur-debert/modsync/pkg/types"
)

// MatcherConfig holds the tunable similarity thresholds. Defaults live in
// DefaultMatcherConfig; overrides come from the config layer.
type MatcherConfig struct {
	// PrefixSuffixMax bounds the fraction of the longer name that may be
	// an appended suffix for the prefix rule to accept.
	PrefixSuffixMax float64 `koanf:"prefix_suffix_max"`

	// ContainmentMin is the minimum short/long length ratio for the
	// substring-containment rule.
	ContainmentMin float64 `koanf:"containment_min"`

	// EditSimilarityMin is the minimum 1 - normalized-Levenshtein ratio.
	EditSimilarityMin float64 `koanf:"edit_similarity_min"`

	// WordOverlapMin is the minimum Jaccard overlap of meaningful words.
	WordOverlapMin float64 `koanf:"word_overlap_min"`
}

// DefaultMatcherConfig returns the stock thresholds.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		PrefixSuffixMax:   0.5,
		ContainmentMin:    0.7,
		EditSimilarityMin: 0.75,
		WordOverlapMin:    0.5,
	}
}

// Matcher decides whether two component records denote the same logical
// component, and scores how plausible the pairing is.
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher returns a matcher with the given thresholds. Zero-valued
// fields fall back to the defaults.
func NewMatcher(cfg MatcherConfig) *Matcher {
	def := DefaultMatcherConfig()
	if cfg.PrefixSuffixMax == 0 {
		cfg.PrefixSuffixMax = def.PrefixSuffixMax
	}
	if cfg.ContainmentMin == 0 {
		cfg.ContainmentMin = def.ContainmentMin
	}
	if cfg.EditSimilarityMin == 0 {
		cfg.EditSimilarityMin = def.EditSimilarityMin
	}
	if cfg.WordOverlapMin == 0 {
		cfg.WordOverlapMin = def.WordOverlapMin
	}
	return &Matcher{cfg: cfg}
}

// MatchComponents reports whether existing and incoming denote the same
// logical component. Identifier equality short-circuits; otherwise the
// decision falls to name/author similarity.
func (m *Matcher) MatchComponents(existing, incoming *types.Component) bool {
	if existing.ID == incoming.ID {
		return true
	}
	return m.Match(existing.Name, existing.Author, incoming.Name, incoming.Author)
}

// ScoreComponents returns a continuous rank in [0, 1] for the pairing.
func (m *Matcher) ScoreComponents(existing, incoming *types.Component) float64 {
	if existing.ID == incoming.ID {
		return 1.0
	}
	return m.Score(existing.Name, existing.Author, incoming.Name, incoming.Author)
}

// Match reports whether two name/author pairs denote the same logical
// component. The comparison is symmetric in its arguments.
func (m *Matcher) Match(name1, author1, name2, author2 string) bool {
	if !authorsCompatible(author1, author2) {
		return false
	}
	return m.namesSimilar(normalize(name1), normalize(name2))
}

// Score blends the same signals Match tests into a continuous rank in
// [0, 1], usable for best-match selection among several candidates.
// Incompatible authors score zero regardless of name similarity.
func (m *Matcher) Score(name1, author1, name2, author2 string) float64 {
	if !authorsCompatible(author1, author2) {
		return 0
	}

	a, b := normalize(name1), normalize(name2)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	lengthRatio := float64(len(short)) / float64(len(long))

	best := 0.0
	if strings.HasPrefix(long, short) {
		best = maxf(best, 0.6+0.4*lengthRatio)
	}
	if strings.Contains(long, short) {
		best = maxf(best, 0.5+0.5*lengthRatio)
	}
	best = maxf(best, editSimilarity(a, b))
	best = maxf(best, wordOverlap(a, b))
	return best
}

// namesSimilar applies the acceptance rules in order: exact match,
// bounded prefix containment, substring containment, edit-distance
// similarity, then meaningful-word overlap.
func (m *Matcher) namesSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}

	if strings.HasPrefix(long, short) {
		suffixRatio := float64(len(long)-len(short)) / float64(len(long))
		if suffixRatio <= m.cfg.PrefixSuffixMax {
			return true
		}
	}

	if strings.Contains(long, short) {
		if float64(len(short))/float64(len(long)) >= m.cfg.ContainmentMin {
			return true
		}
	}

	if editSimilarity(a, b) >= m.cfg.EditSimilarityMin {
		return true
	}

	if wordOverlap(a, b) >= m.cfg.WordOverlapMin {
		return true
	}

	return commonWordPrefix(a, b) >= 2
}

// authorsCompatible reports whether two author strings could plausibly
// name the same author: both unknown, equal after normalization, or one
// a prefix of the other ending at a separator boundary.
func authorsCompatible(author1, author2 string) bool {
	a, b := normalize(author1), normalize(author2)
	if isUnknownAuthor(a) && isUnknownAuthor(b) {
		return true
	}
	if isUnknownAuthor(a) || isUnknownAuthor(b) {
		return false
	}
	if a == b {
		return true
	}

	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if !strings.HasPrefix(long, short) {
		return false
	}
	rest := long[len(short):]
	switch rest[0] {
	case ' ', ',', '&', '/', '+':
		return true
	}
	return false
}

func isUnknownAuthor(a string) bool {
	switch a {
	case "", "unknown", "n/a", "anonymous":
		return true
	}
	return false
}

// normalize lowercases and collapses interior whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// editSimilarity is 1 minus the Levenshtein distance normalized by the
// longer string's length.
func editSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// wordOverlap is the Jaccard overlap of meaningful words, those longer
// than two characters.
func wordOverlap(a, b string) float64 {
	wordsA := meaningfulWords(a)
	wordsB := meaningfulWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}
	shared := 0
	for w := range setB {
		if setA[w] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

// commonWordPrefix counts how many leading words the two names share.
func commonWordPrefix(a, b string) int {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	n := 0
	for n < len(wordsA) && n < len(wordsB) && wordsA[n] == wordsB[n] {
		n++
	}
	return n
}

func meaningfulWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
