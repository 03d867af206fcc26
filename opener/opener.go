package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelzubin/quick_nav/logging"
)

var openerLog = logging.ForComponent(logging.CompOpener)

var ErrNoBrowser = errors.New("no browser command configured")

type Opener struct {
	Opening    bool   // Is a browser being started
	BrowserCmd string // Command to open a url with, the url is appended
}

// Msg for when the browser command has been started.
type OpenFinished struct {
	URL string
	Err error
}

func New(browserCmd string) *Opener {
	return &Opener{BrowserCmd: browserCmd}
}

// this starts the browser without waiting for it to exit.
func startBrowser(app string, args ...string) tea.Cmd {
	url := args[len(args)-1]
	return func() tea.Msg {
		cmd := exec.Command(app, args...)
		if err := cmd.Start(); err != nil {
			return OpenFinished{URL: url, Err: err}
		}
		go cmd.Wait()
		return OpenFinished{URL: url}
	}
}

// Open checks the browser command and returns the command that opens url.
func (o *Opener) Open(url string) (tea.Cmd, error) {
	fields := strings.Fields(o.BrowserCmd)
	if len(fields) == 0 {
		return nil, ErrNoBrowser
	}

	app, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("find browser: %w", err)
	}

	o.Opening = true
	args := append(fields[1:len(fields):len(fields)], url)
	return startBrowser(app, args...), nil
}

func (o Opener) Update(msg tea.Msg) (Opener, tea.Cmd) {
	switch msg := msg.(type) {
	case OpenFinished:
		o.Opening = false
		if msg.Err != nil {
			openerLog.Error("open_failed", "url", msg.URL, "error", msg.Err)
		} else {
			openerLog.Info("opened", "url", msg.URL)
		}
		return o, nil
	}

	return o, nil
}
