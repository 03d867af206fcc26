package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/noelzubin/quick_nav/auth"
	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/samber/lo"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var pageLog = logging.ForComponent(logging.CompPage)

const (
	submenuClass     = "wp-submenu"
	menuNameClass    = "wp-menu-name"
	newContentMenuID = "wp-admin-bar-new-content"
	newContentListID = "wp-admin-bar-new-content-default"
	adminBarLabel    = "ab-label"
)

// Scrape returns a link for every anchor of an admin page, in document
// order. Relative urls are resolved against base when it is set.
func Scrape(r io.Reader, base *url.URL) ([]*links.Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	newContentLabel := ""
	if menu := findFirst(doc, byID(newContentMenuID)); menu != nil {
		newContentLabel = textOfAll(findAll(menu, byClass(adminBarLabel)))
	}

	var result []*links.Link
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return
		}

		title := textOf(n)
		parentTitle := ""

		if gp := grandparent(n); gp != nil {
			if hasClass(gp, submenuClass) {
				if gp.Parent != nil {
					parentTitle = textOfAll(findAll(gp.Parent, byClass(menuNameClass)))
				}
			} else if attr(gp, "id") == newContentListID && newContentLabel != "" {
				title = newContentLabel + " " + title
			}
		}

		result = append(result, &links.Link{
			Type:        links.TypeLink,
			Title:       title,
			ParentTitle: parentTitle,
			URL:         resolve(base, n),
		})
	})

	return result, nil
}

// Loader reads an admin page from a file or over http.
type Loader struct {
	Client *http.Client
	Auth   auth.Credentials
}

// Load scrapes the page at location. Locations starting with http:// or
// https:// are fetched, anything else is read as a file. baseURL is used to
// resolve relative links of files.
func (l *Loader) Load(ctx context.Context, location, baseURL string) ([]*links.Link, error) {
	if location == "" {
		return nil, nil
	}

	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		base = u
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return l.fetch(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	found, err := Scrape(f, base)
	if err != nil {
		return nil, err
	}
	pageLog.Debug("page_scraped", "source", location, "links", len(found))
	return found, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]*links.Link, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	l.Auth.Apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	found, err := Scrape(resp.Body, resp.Request.URL)
	if err != nil {
		return nil, err
	}
	pageLog.Debug("page_scraped", "source", location, "links", len(found))
	return found, nil
}

func resolve(base *url.URL, a *html.Node) string {
	href, ok := attrOK(a, "href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}

	u, err := base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	walk(n, func(c *html.Node) {
		if c.Type == html.ElementNode && match(c) {
			found = append(found, c)
		}
	})
	return found
}

func grandparent(n *html.Node) *html.Node {
	if n.Parent == nil {
		return nil
	}
	return n.Parent.Parent
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, "id") == id }
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func hasClass(n *html.Node, class string) bool {
	return lo.Contains(strings.Fields(attr(n, "class")), class)
}

// textOf returns the text of a node with whitespace collapsed. Adjacent
// text nodes are joined as they are, so Add<b>New</b> reads "AddNew".
func textOf(n *html.Node) string {
	return textOfAll([]*html.Node{n})
}

// textOfAll joins the text of all nodes, in order.
func textOfAll(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		walk(n, func(c *html.Node) {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		})
	}
	return strings.Join(strings.Fields(stripansi.Strip(b.String())), " ")
}
