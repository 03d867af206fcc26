package links

// Direction for moving the active result.
type Direction int

const (
	Forwards Direction = iota
	Backwards
)

// Results is the ordered subset of links returned by a search.
// Whenever it is not empty exactly one of its links is active.
type Results struct {
	links  []*Link
	active int
}

func NewResults() *Results {
	return &Results{active: -1}
}

// Reset replaces the result set. The first link becomes active.
func (r *Results) Reset(found []*Link) {
	for _, l := range r.links {
		l.State = Inactive
	}

	r.links = append([]*Link(nil), found...)
	r.active = -1

	for _, l := range r.links {
		l.State = Inactive
	}

	if len(r.links) > 0 {
		r.setActive(0)
	}
}

// Clear empties the result set and deactivates its links.
func (r *Results) Clear() {
	r.Reset(nil)
}

func (r *Results) Len() int {
	return len(r.links)
}

func (r *Results) Links() []*Link {
	return r.links
}

// Active returns the active link and its index, or nil and -1.
func (r *Results) Active() (*Link, int) {
	if r.active < 0 || r.active >= len(r.links) {
		return nil, -1
	}
	return r.links[r.active], r.active
}

// MoveActiveLink moves the active cursor one step.
// The cursor wraps around at both ends of the list.
func (r *Results) MoveActiveLink(dir Direction) {
	n := len(r.links)
	if n == 0 {
		return
	}

	next := r.active
	switch dir {
	case Forwards:
		next = (r.active + 1) % n
	case Backwards:
		next = (r.active - 1 + n) % n
	}

	r.setActive(next)
}

func (r *Results) setActive(i int) {
	if cur, _ := r.Active(); cur != nil {
		cur.State = Inactive
	}
	r.active = i
	r.links[i].State = Active
}
