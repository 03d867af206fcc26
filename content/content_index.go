package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/noelzubin/quick_nav/auth"
	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var contentLog = logging.ForComponent(logging.CompContent)

const (
	// CachePrefix marks the caches owned by this program. Other caches in
	// the same storage are never touched.
	CachePrefix = "qni-"

	// IndexPath is the REST route of the content index, relative to the api root.
	IndexPath = "quick-navigation-interface/v1/content-index/"
)

// Descriptor is one item of the content index.
type Descriptor struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// UnmarshalJSON accepts any json value as type. Falsy values (null, false,
// 0 and "") leave Type empty, anything else keeps its text.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title string          `json:"title"`
		URL   string          `json:"url"`
		Type  json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Title = raw.Title
	d.URL = raw.URL
	d.Type = typeText(raw.Type)
	return nil
}

func typeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}

	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
	case float64:
		if v == 0 {
			return ""
		}
	}
	return string(raw)
}

// Fetcher loads the content index, going through the cache storage when
// there is one.
type Fetcher struct {
	client  *http.Client
	storage Storage // nil when no cache can be used
	creds   auth.Credentials

	mu      sync.Mutex
	closed  bool // no cache writes are started once set
	pending errgroup.Group
}

// NewFetcher returns a Fetcher. A nil storage disables caching.
func NewFetcher(client *http.Client, storage Storage, creds auth.Credentials) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, storage: storage, creds: creds}
}

// CacheName returns the cache name for a plugin version and a content
// database version. Either version changing makes a new cache.
func CacheName(pluginVersion, userDbVersion string) string {
	return CachePrefix + pluginVersion + "-" + userDbVersion
}

// IndexURL returns the url of the content index for an api root.
func IndexURL(apiRootURL string) string {
	return apiRootURL + IndexPath
}

// FetchContentIndex returns the content index, from the cache when a valid
// copy exists for these versions, otherwise from the server.
//
// Cache problems are never returned, the request just goes to the network.
// Network and decoding failures are returned.
func (f *Fetcher) FetchContentIndex(ctx context.Context, pluginVersion, userDbVersion, apiRootURL string) ([]Descriptor, error) {
	cacheName := CacheName(pluginVersion, userDbVersion)
	url := IndexURL(apiRootURL)

	cached, err := f.cachedIndex(cacheName, url)
	if err == nil {
		contentLog.Debug("cache_hit", "cache", cacheName, "items", len(cached))
		return cached, nil
	}
	contentLog.Debug("cache_miss", "cache", cacheName, "reason", err)

	body, status, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var index []Descriptor
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("decode content index: %w", err)
	}

	f.storeLater(cacheName, url, Response{Status: status, Body: body, StoredAt: time.Now()})

	return index, nil
}

// storeLater writes the response to the cache in the background, unless
// the fetcher is closed.
func (f *Fetcher) storeLater(cacheName, url string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		contentLog.Debug("cache_store_skipped", "cache", cacheName, "reason", "fetcher closed")
		return
	}

	f.pending.Go(func() error {
		if err := f.cacheIndex(cacheName, url, resp); err != nil {
			contentLog.Warn("cache_store_failed", "cache", cacheName, "error", err)
		}
		return nil
	})
}

// Wait blocks until the cache writes started by FetchContentIndex are done.
func (f *Fetcher) Wait() error {
	return f.pending.Wait()
}

// Close stops new cache writes and waits for the pending ones. Fetches
// still work after Close, their results are just not cached.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	return f.pending.Wait()
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	f.creds.Apply(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch content index: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read content index: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("fetch content index: unexpected status %d", resp.StatusCode)
	}

	return body, resp.StatusCode, nil
}

var errInvalidEntry = errors.New("invalid cache entry")

// cachedIndex returns the cached index, or an error saying why it can't be used.
func (f *Fetcher) cachedIndex(cacheName, url string) ([]Descriptor, error) {
	if f.storage == nil {
		return nil, ErrCacheUnavailable
	}

	resp, err := f.storage.Match(cacheName, url)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.OK() {
		return nil, errInvalidEntry
	}

	var index []Descriptor
	if err := json.Unmarshal(resp.Body, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidEntry, err)
	}

	// Entries written before the type field existed can't be used.
	if len(index) == 0 || index[0].Type == "" {
		return nil, errInvalidEntry
	}

	return index, nil
}

func (f *Fetcher) cacheIndex(cacheName, url string, resp Response) error {
	if f.storage == nil {
		return nil
	}

	if err := f.storage.Put(cacheName, url, resp); err != nil {
		return fmt.Errorf("store content index: %w", err)
	}

	return DeleteOldCaches(f.storage, cacheName)
}

// DeleteOldCaches removes every cache of this program except current.
func DeleteOldCaches(storage Storage, current string) error {
	if storage == nil {
		return nil
	}

	keys, err := storage.Keys()
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}

	stale := lo.Filter(keys, func(key string, _ int) bool {
		return key != current && strings.HasPrefix(key, CachePrefix)
	})

	var errs []error
	for _, key := range stale {
		if err := storage.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("delete cache %s: %w", key, err))
			continue
		}
		contentLog.Debug("cache_deleted", "cache", key)
	}

	return errors.Join(errs...)
}

// ToLinks turns index items into content links for the store.
func ToLinks(index []Descriptor) []*links.Link {
	return lo.Map(index, func(d Descriptor, _ int) *links.Link {
		return &links.Link{
			Type:  links.TypeContent,
			Title: cleanTitle(d.Title),
			URL:   strings.TrimSpace(d.URL),
			Kind:  d.Type,
		}
	})
}

// WordPress sends rendered titles, so entities are decoded and any terminal
// escapes are dropped before they reach the screen.
func cleanTitle(title string) string {
	return strings.TrimSpace(stripansi.Strip(html.UnescapeString(title)))
}
