package keyword

import (
	"sort"
	"strings"
)

// Suggester proposes corrections for misspelled search terms from the index vocabulary.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
}

// NewSuggester returns a suggester accepting up to maxDistance edits (default 2).
func NewSuggester(dict TermDictionary, maxDistance int) *Suggester {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	return &Suggester{dict: dict, maxDistance: maxDistance}
}

// Suggest rewrites query replacing unknown terms with their closest indexed term.
// It returns "" when every term is known or nothing close enough exists.
func (s *Suggester) Suggest(query string) (string, error) {
	vocab, err := s.dict.Terms()
	if err != nil {
		return "", err
	}
	terms := tokenize(query)
	changed := false
	for i, term := range terms {
		if _, ok := vocab[term]; ok {
			continue
		}
		if best := s.closest(term, vocab); best != "" {
			terms[i] = best
			changed = true
		}
	}
	if !changed {
		return "", nil
	}
	return strings.Join(terms, " "), nil
}

type candidate struct {
	term string
	dist int
	freq int
}

// closest picks the nearest term, preferring more frequent terms and then lexical order.
func (s *Suggester) closest(term string, vocab map[string]int) string {
	var cands []candidate
	for t, freq := range vocab {
		if abs(len(t)-len(term)) > s.maxDistance {
			continue
		}
		if d := EditDistance(term, t); d <= s.maxDistance {
			cands = append(cands, candidate{t, d, freq})
		}
	}
	if len(cands) == 0 {
		return ""
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.freq != b.freq {
			return a.freq > b.freq
		}
		return a.term < b.term
	})
	return cands[0].term
}

// EditDistance is the optimal string alignment distance between a and b: insertions,
// deletions, substitutions and adjacent transpositions each cost 1.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = minInt(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(rb)]
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
