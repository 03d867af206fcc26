package links

import (
	"errors"
	"net/url"
	"strings"
)

// Type tells where a link came from.
type Type string

const (
	TypeLink    Type = "link"    // scraped from the admin page
	TypeContent Type = "content" // from the server content index
)

// State of a link inside the current result set.
type State string

const (
	Active   State = "active"
	Inactive State = "inactive"
)

// ErrNotActivatable is returned for links without a usable url.
var ErrNotActivatable = errors.New("link has no usable url")

// Link is one navigable entry.
type Link struct {
	Type        Type   // link or content
	Title       string // display title
	ParentTitle string // owning admin menu, only for page links
	URL         string // navigation target, may be empty
	Kind        string // content kind reported by the server (post, page, ...)
	State       State  // active or inactive

	position int // insertion order in the store
}

// Position returns the insertion order of the link in its store.
func (l *Link) Position() int {
	return l.position
}

// IsActive reports whether the link is the active result.
func (l *Link) IsActive() bool {
	return l.State == Active
}

// Target returns the url to navigate to.
// Links with a missing or unparsable url cannot be activated.
func (l *Link) Target() (string, error) {
	raw := strings.TrimSpace(l.URL)
	if raw == "" {
		return "", ErrNotActivatable
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrNotActivatable
	}

	return u.String(), nil
}

// Label is what the result list shows for the link.
func (l *Link) Label() string {
	if l.ParentTitle != "" {
		return l.ParentTitle + " › " + l.Title
	}
	return l.Title
}
