package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(titles ...string) *Store {
	s := NewStore()
	for _, title := range titles {
		s.Append(&Link{Type: TypeLink, Title: title, URL: "https://example.com/wp-admin/" + title})
	}
	return s
}

func activeCount(ls []*Link) int {
	n := 0
	for _, l := range ls {
		if l.IsActive() {
			n++
		}
	}
	return n
}

func TestStoreAppendKeepsOrder(t *testing.T) {
	s := newTestStore("Posts", "Pages")
	s.Append(nil, &Link{Type: TypeContent, Title: "Hello world"})

	require.Equal(t, 3, s.Len())
	for i, l := range s.All() {
		assert.Equal(t, i, l.Position())
		assert.Equal(t, Inactive, l.State)
	}
	assert.Equal(t, 2, s.Count(TypeLink))
	assert.Equal(t, 1, s.Count(TypeContent))
	assert.Len(t, s.Since(2), 1)
	assert.Nil(t, s.Since(3))
}

func TestResultsResetActivatesFirst(t *testing.T) {
	s := newTestStore("a", "b", "c")
	r := NewResults()

	r.Reset(s.All())

	active, idx := r.Active()
	require.NotNil(t, active)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", active.Title)
	assert.Equal(t, 1, activeCount(s.All()))
}

func TestResultsEmpty(t *testing.T) {
	r := NewResults()
	r.Reset(nil)

	active, idx := r.Active()
	assert.Nil(t, active)
	assert.Equal(t, -1, idx)

	// Moving on an empty set is a no-op.
	r.MoveActiveLink(Forwards)
	r.MoveActiveLink(Backwards)
	assert.Equal(t, 0, r.Len())
}

func TestMoveActiveLinkWraps(t *testing.T) {
	s := newTestStore("a", "b", "c")
	r := NewResults()
	r.Reset(s.All())

	r.MoveActiveLink(Backwards)
	_, idx := r.Active()
	assert.Equal(t, 2, idx)

	r.MoveActiveLink(Forwards)
	_, idx = r.Active()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, activeCount(s.All()))
}

func TestMoveActiveLinkRoundTrip(t *testing.T) {
	s := newTestStore("a", "b", "c", "d", "e")
	r := NewResults()
	r.Reset(s.All())

	for i := 1; i < r.Len()-1; i++ {
		r.Reset(s.All())
		for j := 0; j < i; j++ {
			r.MoveActiveLink(Forwards)
		}

		r.MoveActiveLink(Forwards)
		r.MoveActiveLink(Backwards)

		_, idx := r.Active()
		assert.Equal(t, i, idx)
		assert.Equal(t, 1, activeCount(s.All()))
	}
}

func TestResultsClearDeactivates(t *testing.T) {
	s := newTestStore("a", "b")
	r := NewResults()
	r.Reset(s.All())
	r.MoveActiveLink(Forwards)

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, activeCount(s.All()))
}

func TestLinkTarget(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "absolute", url: "https://example.com/wp-admin/edit.php", want: "https://example.com/wp-admin/edit.php"},
		{name: "empty", url: "", wantErr: true},
		{name: "blank", url: "   ", wantErr: true},
		{name: "relative", url: "edit.php", wantErr: true},
		{name: "broken", url: "http://[::1", wantErr: true},
		{name: "script", url: "javascript:void(0)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Link{URL: tt.url}
			got, err := l.Target()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotActivatable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkLabel(t *testing.T) {
	assert.Equal(t, "Posts › Add New", (&Link{Title: "Add New", ParentTitle: "Posts"}).Label())
	assert.Equal(t, "Hello world", (&Link{Title: "Hello world"}).Label())
}
