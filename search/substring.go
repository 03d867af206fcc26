package search

import "github.com/noelzubin/quick_nav/links"

// substringEngine matches the query as a case insensitive substring of the
// title or the parent menu title.
type substringEngine struct {
	store *links.Store
}

// NewSubstringEngine returns the default Engine.
func NewSubstringEngine(store *links.Store) Engine {
	return &substringEngine{store: store}
}

func (e *substringEngine) Search(query string, limit int) []*links.Link {
	if Blank(query) || limit < 1 {
		return nil
	}
	q := Normalize(query)

	var hits []Hit
	for _, l := range e.store.All() {
		if rank := RankOf(l, q); rank != NoMatch {
			hits = append(hits, Hit{Link: l, Rank: rank})
		}
	}

	return Order(hits, limit)
}
