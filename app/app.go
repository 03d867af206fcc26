package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/noelzubin/quick_nav/auth"
	"github.com/noelzubin/quick_nav/content"
	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/noelzubin/quick_nav/navigation"
	"github.com/noelzubin/quick_nav/page"
	"github.com/noelzubin/quick_nav/search"
	"github.com/noelzubin/quick_nav/search/bleve_indexer"
	"github.com/noelzubin/quick_nav/search/fuzzy_matcher"
	"github.com/noelzubin/quick_nav/utils"
)

var appLog = logging.ForComponent(logging.CompApp)

// App holds everything a session needs. It is built once at startup and
// handed to the ui, nothing lives in package globals.
type App struct {
	Config     *utils.Config
	Store      *links.Store
	Engine     search.Engine
	Fetcher    *content.Fetcher
	Bus        *navigation.Bus
	Controller *navigation.Controller

	pages   *page.Loader
	storage content.Storage
	closers []io.Closer
}

// New builds the app. The surface and activator are provided by the ui.
func New(cfg *utils.Config, surface navigation.Surface, activator navigation.Activator) (*App, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	creds := auth.Credentials{Nonce: cfg.Nonce, Username: cfg.Username, AppPassword: cfg.AppPassword}

	store := links.NewStore()

	engine, closer, err := NewEngine(cfg.Engine, store)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Store:   store,
		Engine:  engine,
		Bus:     navigation.NewBus(logging.ForComponent(logging.CompNav)),
		pages:   &page.Loader{Client: client, Auth: creds},
		storage: openStorage(cfg),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.Fetcher = content.NewFetcher(client, a.storage, creds)
	a.Controller = navigation.NewController(store, engine, cfg.Options(), surface, activator, logging.ForComponent(logging.CompNav))

	return a, nil
}

// NewEngine returns the search engine with the given name. The closer is
// nil for engines that hold no resources.
func NewEngine(name string, store *links.Store) (search.Engine, io.Closer, error) {
	switch name {
	case "", "substring":
		return search.NewSubstringEngine(store), nil, nil
	case "fuzzy":
		return fuzzy_matcher.NewFuzzyMatcher(store), nil, nil
	case "bleve":
		idx, err := bleve_indexer.NewBleveIndexer(store)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx, nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q", name)
}

// The cache is optional: when it can't be opened the content index is
// fetched on every start.
func openStorage(cfg *utils.Config) content.Storage {
	if !cfg.CacheEnabled() {
		return nil
	}

	storage, err := content.OpenBoltStorage(cfg.CachePath)
	if err != nil {
		appLog.Warn("cache_unavailable", "path", cfg.CachePath, "error", err)
		return nil
	}
	return storage
}

// Init loads the links of the admin page and wires the controller to the
// event bus. A page that can't be loaded only leaves the store without
// page links.
func (a *App) Init(ctx context.Context) error {
	found, err := a.pages.Load(ctx, a.Config.PageSource, a.Config.AdminURL)
	if err != nil {
		appLog.Warn("page_links_unavailable", "source", a.Config.PageSource, "error", err)
	}
	a.Store.Append(found...)

	a.Controller.Register(a.Bus)

	appLog.Info("initialized", slog.Int("page_links", len(found)), slog.String("engine", a.Config.Engine))
	return nil
}

// FetchContent fetches the content index. It is safe to call off the ui
// loop since it does not touch the store.
func (a *App) FetchContent(ctx context.Context) ([]*links.Link, error) {
	index, err := a.Fetcher.FetchContentIndex(ctx, a.Config.PluginVersion, a.Config.ContentDbVersion, a.Config.APIRoot)
	if err != nil {
		return nil, err
	}
	return content.ToLinks(index), nil
}

// AddContent appends fetched content links to the store.
func (a *App) AddContent(items []*links.Link) {
	a.Store.Append(items...)
	appLog.Info("content_loaded", slog.Int("items", len(items)), slog.Int("total", a.Store.Len()))
}

// Teardown closes the overlay, stops event delivery and releases the
// cache and engine once pending cache writes are done.
func (a *App) Teardown() error {
	if a.Controller.State() != navigation.Closed {
		a.Controller.Close()
	}
	a.Bus.Off()

	var errs []error
	if err := a.Fetcher.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
