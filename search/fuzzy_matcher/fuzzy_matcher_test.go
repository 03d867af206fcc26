package fuzzy_matcher

import (
	"testing"

	"github.com/noelzubin/quick_nav/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func store() *links.Store {
	return links.NewStore(
		&links.Link{Type: links.TypeLink, Title: "Posts"},
		&links.Link{Type: links.TypeLink, Title: "Add New", ParentTitle: "Posts"},
		&links.Link{Type: links.TypeLink, Title: "Pages"},
		&links.Link{Type: links.TypeLink, Title: "Settings"},
	)
}

func TestFuzzySubsequence(t *testing.T) {
	f := NewFuzzyMatcher(store())

	got := f.Search("adnw", 10)

	require.NotEmpty(t, got)
	assert.Equal(t, "Add New", got[0].Title)
}

func TestFuzzyEmptyAndLimit(t *testing.T) {
	f := NewFuzzyMatcher(store())

	assert.Empty(t, f.Search("", 10))
	assert.Empty(t, f.Search("p", 0))
	assert.LessOrEqual(t, len(f.Search("s", 2)), 2)
}

func TestFuzzyDeterministic(t *testing.T) {
	f := NewFuzzyMatcher(store())

	first := f.Search("s", 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, f.Search("s", 10))
	}
}
