package search

import (
	"sort"
	"strings"

	"github.com/noelzubin/quick_nav/links"
	"github.com/samber/lo"
)

// Engine filters and ranks the links of a store.
//
// Search never changes the store. An empty query gives no results, and the
// result never holds more than limit links. The same store, query and limit
// always give the same ordered result.
type Engine interface {
	Search(query string, limit int) []*links.Link // Search the links for the given query.
}

// Rank says how well a link matches a query; lower is better.
type Rank int

const (
	RankTitlePrefix Rank = iota // title starts with the query
	RankTitle                   // title contains the query
	RankParent                  // only the parent menu title contains the query
	NoMatch
)

// Blank reports whether a query holds nothing but whitespace. Blank
// queries match nothing.
func Blank(query string) bool {
	return strings.TrimSpace(query) == ""
}

// Normalize prepares a query for matching. Surrounding spaces are kept,
// they are part of what the user typed.
func Normalize(query string) string {
	return strings.ToLower(query)
}

// RankOf returns the rank of l for an already normalized query.
func RankOf(l *links.Link, query string) Rank {
	title := strings.ToLower(l.Title)

	switch {
	case strings.HasPrefix(title, query):
		return RankTitlePrefix
	case strings.Contains(title, query):
		return RankTitle
	case l.ParentTitle != "" && strings.Contains(strings.ToLower(l.ParentTitle), query):
		return RankParent
	}

	return NoMatch
}

// Hit is a matched link with its rank.
type Hit struct {
	Link *links.Link
	Rank Rank
}

// Order sorts hits by rank, then by store position, and keeps at most
// limit of them.
func Order(hits []Hit, limit int) []*links.Link {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Rank != hits[j].Rank {
			return hits[i].Rank < hits[j].Rank
		}
		return hits[i].Link.Position() < hits[j].Link.Position()
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return lo.Map(hits, func(h Hit, _ int) *links.Link { return h.Link })
}
