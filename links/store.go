package links

import "github.com/samber/lo"

// Store holds every link known to the session, in insertion order.
//
// Links are only ever appended: the page links when the app starts and the
// content items once the content index arrives. Only their State changes
// afterwards.
type Store struct {
	links []*Link
}

func NewStore(links ...*Link) *Store {
	s := &Store{}
	s.Append(links...)
	return s
}

// Append adds links to the end of the store, skipping nil entries.
func (s *Store) Append(links ...*Link) {
	for _, l := range links {
		if l == nil {
			continue
		}
		l.position = len(s.links)
		l.State = Inactive
		s.links = append(s.links, l)
	}
}

// All returns the links in insertion order.
// The slice must not be modified by the caller.
func (s *Store) All() []*Link {
	return s.links
}

func (s *Store) Len() int {
	return len(s.links)
}

// Since returns the links appended at or after position from.
func (s *Store) Since(from int) []*Link {
	if from >= len(s.links) {
		return nil
	}
	if from < 0 {
		from = 0
	}
	return s.links[from:]
}

// ResetStates marks every link inactive.
func (s *Store) ResetStates() {
	for _, l := range s.links {
		l.State = Inactive
	}
}

// Count returns how many links of the given type the store has.
func (s *Store) Count(t Type) int {
	return len(lo.Filter(s.links, func(l *Link, _ int) bool {
		return l.Type == t
	}))
}
