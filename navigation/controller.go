package navigation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/search"
)

// State of the overlay.
type State int

const (
	Closed          State = iota // overlay hidden
	OpenEmpty                    // overlay visible, no results
	OpenWithResults              // overlay visible, one result active
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenEmpty:
		return "open-empty"
	case OpenWithResults:
		return "open-with-results"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Shortcut names.
const (
	OpenInterface  = "open-interface"
	CloseInterface = "close-interface"
	OpenLink       = "open-link"
	NextLink       = "next-link"
	PreviousLink   = "previous-link"
)

// Click targets that dismiss the overlay.
const (
	BackdropClass    = "notification-dialog-background"
	CloseButtonClass = "button-link media-modal-close"
)

var (
	ErrNoShortcut = errors.New("shortcut not configured")
	ErrBadLimit   = errors.New("search results limit must be positive")
)

// Shortcut binds a shortcut name to a key.
type Shortcut struct {
	Code string `mapstructure:"code"`
}

// Shortcuts maps shortcut names to keys.
type Shortcuts map[string]Shortcut

// Code returns the key of a shortcut.
func (s Shortcuts) Code(name string) (string, error) {
	sc, ok := s[name]
	if !ok || sc.Code == "" {
		return "", fmt.Errorf("%w: %s", ErrNoShortcut, name)
	}
	return sc.Code, nil
}

// Options is what the controller reads from the configuration.
type Options struct {
	Shortcuts          Shortcuts
	SearchResultsLimit int
}

// Surface is the visible overlay the controller drives.
type Surface interface {
	ShowOverlay()             // show the container, clear and focus the query
	HideOverlay()             // hide the container, clear and blur the query
	ShowResults(visible bool) // show or hide the result list and instructions
}

// Activator follows a link.
type Activator interface {
	Activate(url string) error
}

// Controller is the overlay state machine.
type Controller struct {
	opts      Options
	store     *links.Store
	engine    search.Engine
	results   *links.Results
	surface   Surface
	activator Activator
	state     State
	log       *slog.Logger
}

func NewController(store *links.Store, engine search.Engine, opts Options, surface Surface, activator Activator, log *slog.Logger) *Controller {
	return &Controller{
		opts:      opts,
		store:     store,
		engine:    engine,
		results:   links.NewResults(),
		surface:   surface,
		activator: activator,
		state:     Closed,
		log:       log,
	}
}

// Register subscribes the controller to the bus.
func (c *Controller) Register(bus *Bus) {
	bus.On(QueryKeyUp, c.ShowRelevantLinks)
	bus.On(KeyUp, c.ToggleInterface)
	bus.On(Click, c.ToggleInterface)
}

func (c *Controller) State() State {
	return c.state
}

// Results returns the current result set. It must not be modified.
func (c *Controller) Results() *links.Results {
	return c.results
}

// ToggleInterface opens or closes the overlay on the configured shortcuts
// and closes it on clicks on the backdrop or the close button.
func (c *Controller) ToggleInterface(ev Event) error {
	switch ev.Kind {
	case KeyUp:
		open, err := c.opts.Shortcuts.Code(OpenInterface)
		if err != nil {
			return err
		}
		closeCode, err := c.opts.Shortcuts.Code(CloseInterface)
		if err != nil {
			return err
		}

		switch ev.Code {
		case open:
			// Typing the shortcut in a text field must not steal it.
			if ev.Target.IsTextInput() {
				return nil
			}
			c.Open()
		case closeCode:
			c.Close()
		}

	case Click:
		if ev.Target.Class == BackdropClass || ev.Target.Class == CloseButtonClass {
			c.Close()
		}
	}

	return nil
}

// ShowRelevantLinks handles keys typed in the query input: the navigation
// shortcuts move or follow the active result, anything else re-runs the
// search.
func (c *Controller) ShowRelevantLinks(ev Event) error {
	if c.state == Closed {
		return nil
	}

	openLink, err := c.opts.Shortcuts.Code(OpenLink)
	if err != nil {
		return err
	}
	next, err := c.opts.Shortcuts.Code(NextLink)
	if err != nil {
		return err
	}
	previous, err := c.opts.Shortcuts.Code(PreviousLink)
	if err != nil {
		return err
	}

	switch ev.Code {
	case openLink:
		return c.OpenLink()
	case next:
		c.results.MoveActiveLink(links.Forwards)
	case previous:
		c.results.MoveActiveLink(links.Backwards)
	default:
		return c.UpdateSearchResults(ev.Query)
	}

	return nil
}

// Open shows the overlay with an empty query. Results of an earlier query
// are dropped, also when the overlay was already open.
func (c *Controller) Open() {
	c.results.Clear()
	c.store.ResetStates()
	c.surface.ShowResults(false)
	c.surface.ShowOverlay()
	c.state = OpenEmpty
	c.log.Debug("overlay_opened")
}

// Close hides the overlay and forgets the query and its results.
func (c *Controller) Close() {
	c.results.Clear()
	c.store.ResetStates()
	c.surface.ShowResults(false)
	c.surface.HideOverlay()
	c.state = Closed
	c.log.Debug("overlay_closed")
}

// UpdateSearchResults replaces the results with the links matching query.
func (c *Controller) UpdateSearchResults(query string) error {
	limit := c.opts.SearchResultsLimit
	if limit < 1 {
		return fmt.Errorf("%w: %d", ErrBadLimit, limit)
	}

	found := c.engine.Search(query, limit)

	c.store.ResetStates()
	c.results.Reset(found)

	if c.results.Len() > 0 {
		c.state = OpenWithResults
	} else {
		c.state = OpenEmpty
	}
	c.surface.ShowResults(c.results.Len() > 0)

	return nil
}

// OpenLink follows the active result and closes the overlay.
// Without an active result, or when it has no usable url, nothing happens.
func (c *Controller) OpenLink() error {
	link, _ := c.results.Active()
	if link == nil {
		return nil
	}

	target, err := link.Target()
	if err != nil {
		c.log.Debug("link_not_activatable", "title", link.Title, "url", link.URL)
		return nil
	}

	if err := c.activator.Activate(target); err != nil {
		return fmt.Errorf("activate %s: %w", target, err)
	}

	c.Close()
	return nil
}
