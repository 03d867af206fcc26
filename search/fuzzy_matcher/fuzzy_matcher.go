package fuzzy_matcher

import (
	"sort"

	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/search"
	"github.com/sahilm/fuzzy"
)

// fuzzyMatcher is the implmentation of search.Engine which matches the
// query as a subsequence of the link label, so "adnw" finds "Add New".
type fuzzyMatcher struct {
	store *links.Store
}

// linkSource implements fuzzy.Source over the store.
type linkSource []*links.Link

func (s linkSource) String(i int) string { return s[i].Label() }
func (s linkSource) Len() int            { return len(s) }

func NewFuzzyMatcher(store *links.Store) search.Engine {
	return &fuzzyMatcher{store: store}
}

func (f *fuzzyMatcher) Search(query string, limit int) []*links.Link {
	if search.Blank(query) || limit < 1 {
		return nil
	}

	source := linkSource(f.store.All())
	matches := fuzzy.FindFrom(query, source)

	// fuzzy sorts by score only, keep equal scores in store order.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*links.Link, len(matches))
	for i, m := range matches {
		out[i] = source[m.Index]
	}
	return out
}
