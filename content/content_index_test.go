package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/noelzubin/quick_nav/auth"
	"github.com/noelzubin/quick_nav/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexBody = `[{"title":"Hello world","url":"https://example.com/?p=1","type":"post"},{"title":"About &amp; us","url":"https://example.com/about/","type":"page"}]`

// indexServer serves the content index and counts requests.
func indexServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/wp-json/"+IndexPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestCacheName(t *testing.T) {
	assert.Equal(t, "qni-1.2.0-20230101", CacheName("1.2.0", "20230101"))
}

func TestFetchFromNetworkAndCache(t *testing.T) {
	srv, calls := indexServer(t, http.StatusOK, indexBody)
	apiRoot := srv.URL + "/wp-json/"
	storage := NewMemoryStorage()
	require.NoError(t, storage.Put("qni-1.1.0-20220101", IndexURL(apiRoot), Response{Status: 200, Body: []byte(indexBody)}))
	require.NoError(t, storage.Put("other-cache", "x", Response{Status: 200}))

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	index, err := f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	require.NoError(t, f.Wait())

	require.Len(t, index, 2)
	assert.Equal(t, "Hello world", index[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other-cache", "qni-1.2.0-20230101"}, keys)

	stored, err := storage.Match("qni-1.2.0-20230101", IndexURL(apiRoot))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.JSONEq(t, indexBody, string(stored.Body))
}

func TestFetchUsesValidCache(t *testing.T) {
	srv, calls := indexServer(t, http.StatusOK, `[]`)
	apiRoot := srv.URL + "/wp-json/"
	storage := NewMemoryStorage()
	require.NoError(t, storage.Put("qni-1.2.0-20230101", IndexURL(apiRoot), Response{Status: 200, Body: []byte(indexBody)}))

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	index, err := f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	require.NoError(t, f.Wait())

	assert.Len(t, index, 2)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestFetchRejectsUntypedCache(t *testing.T) {
	srv, calls := indexServer(t, http.StatusOK, indexBody)
	apiRoot := srv.URL + "/wp-json/"
	storage := NewMemoryStorage()
	old := `[{"title":"Hello world","url":"https://example.com/?p=1"}]`
	require.NoError(t, storage.Put("qni-1.2.0-20230101", IndexURL(apiRoot), Response{Status: 200, Body: []byte(old)}))
	require.NoError(t, storage.Put("qni-0.9.0-20200101", IndexURL(apiRoot), Response{Status: 200, Body: []byte(old)}))

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	index, err := f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	require.NoError(t, f.Wait())

	assert.Len(t, index, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"qni-1.2.0-20230101"}, keys)

	stored, err := storage.Match("qni-1.2.0-20230101", IndexURL(apiRoot))
	require.NoError(t, err)
	assert.JSONEq(t, indexBody, string(stored.Body))
}

func TestFetchAcceptsAnyTypeValue(t *testing.T) {
	body := `[{"title":"Hello world","url":"https://example.com/?p=1","type":7},{"title":"About","url":"https://example.com/about/","type":null}]`
	srv, calls := indexServer(t, http.StatusOK, body)
	apiRoot := srv.URL + "/wp-json/"
	storage := NewMemoryStorage()

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	index, err := f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	require.NoError(t, f.Wait())

	require.Len(t, index, 2)
	assert.Equal(t, "7", index[0].Type)
	assert.Equal(t, "", index[1].Type)

	// the first item has a type, so the cached copy is used
	_, err = f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestDescriptorType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"post"`, "post"},
		{`""`, ""},
		{`null`, ""},
		{`false`, ""},
		{`true`, "true"},
		{`0`, ""},
		{`3`, "3"},
		{`["post"]`, `["post"]`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var d Descriptor
			require.NoError(t, json.Unmarshal([]byte(`{"title":"T","url":"u","type":`+tt.raw+`}`), &d))
			assert.Equal(t, tt.want, d.Type)
			assert.Equal(t, "T", d.Title)
		})
	}

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T"}`), &d))
	assert.Equal(t, "", d.Type)
}

func TestFetchAfterCloseSkipsCache(t *testing.T) {
	srv, calls := indexServer(t, http.StatusOK, indexBody)
	apiRoot := srv.URL + "/wp-json/"
	storage := NewMemoryStorage()

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	require.NoError(t, f.Close())

	index, err := f.FetchContentIndex(context.Background(), "1.2.0", "20230101", apiRoot)
	require.NoError(t, err)
	assert.Len(t, index, 2)
	require.NoError(t, f.Wait())

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchIgnoresEmptyAndFailedCache(t *testing.T) {
	tests := []struct {
		name string
		resp Response
	}{
		{name: "empty list", resp: Response{Status: 200, Body: []byte(`[]`)}},
		{name: "not ok", resp: Response{Status: 500, Body: []byte(indexBody)}},
		{name: "garbage", resp: Response{Status: 200, Body: []byte(`<html>`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := indexServer(t, http.StatusOK, indexBody)
			apiRoot := srv.URL + "/wp-json/"
			storage := NewMemoryStorage()
			require.NoError(t, storage.Put(CacheName("1", "2"), IndexURL(apiRoot), tt.resp))

			f := NewFetcher(srv.Client(), storage, auth.Credentials{})
			index, err := f.FetchContentIndex(context.Background(), "1", "2", apiRoot)
			require.NoError(t, err)
			require.NoError(t, f.Wait())

			assert.Len(t, index, 2)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestFetchWithoutStorage(t *testing.T) {
	srv, calls := indexServer(t, http.StatusOK, indexBody)

	f := NewFetcher(srv.Client(), nil, auth.Credentials{})
	for i := 0; i < 2; i++ {
		index, err := f.FetchContentIndex(context.Background(), "1.2.0", "1", srv.URL+"/wp-json/")
		require.NoError(t, err)
		assert.Len(t, index, 2)
	}
	require.NoError(t, f.Wait())

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchNetworkFailure(t *testing.T) {
	srv, _ := indexServer(t, http.StatusForbidden, `{"code":"rest_forbidden"}`)
	storage := NewMemoryStorage()

	f := NewFetcher(srv.Client(), storage, auth.Credentials{})
	_, err := f.FetchContentIndex(context.Background(), "1.2.0", "1", srv.URL+"/wp-json/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	require.NoError(t, f.Wait())

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFetchUnreachable(t *testing.T) {
	srv, _ := indexServer(t, http.StatusOK, indexBody)
	apiRoot := srv.URL + "/wp-json/"
	srv.Close()

	f := NewFetcher(nil, NewMemoryStorage(), auth.Credentials{})
	_, err := f.FetchContentIndex(context.Background(), "1", "2", apiRoot)
	assert.Error(t, err)
}

func TestAuthHeaders(t *testing.T) {
	var nonce, user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = r.Header.Get("X-WP-Nonce")
		user, pass, _ = r.BasicAuth()
		w.Write([]byte(indexBody))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, auth.Credentials{Nonce: "abc123", Username: "admin", AppPassword: "xxxx yyyy"})
	_, err := f.FetchContentIndex(context.Background(), "1", "2", srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, "abc123", nonce)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "xxxx yyyy", pass)
}

func TestBoltStorage(t *testing.T) {
	storage, err := OpenBoltStorage(filepath.Join(t.TempDir(), "cache", "qni.db"))
	require.NoError(t, err)
	defer storage.Close()

	missing, err := storage.Match("qni-1-1", "u")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, storage.Put("qni-1-1", "u", Response{Status: 200, Body: []byte(indexBody)}))
	require.NoError(t, storage.Put("qni-1-2", "u", Response{Status: 200, Body: []byte(`[]`)}))
	require.NoError(t, storage.Put("unrelated", "u", Response{Status: 200}))

	got, err := storage.Match("qni-1-1", "u")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.OK())
	assert.Equal(t, indexBody, string(got.Body))

	require.NoError(t, DeleteOldCaches(storage, "qni-1-2"))

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"qni-1-2", "unrelated"}, keys)

	assert.NoError(t, storage.Delete("does-not-exist"))
}

func TestToLinks(t *testing.T) {
	got := ToLinks([]Descriptor{
		{Title: "About &amp; us", URL: " https://example.com/about/ ", Type: "page"},
		{Title: "\x1b[31mRed\x1b[0m", URL: "", Type: "post"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, links.TypeContent, got[0].Type)
	assert.Equal(t, "About & us", got[0].Title)
	assert.Equal(t, "https://example.com/about/", got[0].URL)
	assert.Equal(t, "page", got[0].Kind)
	assert.Equal(t, "Red", got[1].Title)
}
