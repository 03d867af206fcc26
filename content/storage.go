package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// ErrCacheUnavailable is returned when there is no cache storage to use.
var ErrCacheUnavailable = errors.New("cache storage unavailable")

// Response is a stored copy of an http response.
type Response struct {
	Status   int       `json:"status"`
	Body     []byte    `json:"body"`
	StoredAt time.Time `json:"stored_at"`
}

// OK reports whether the stored response was successful.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Storage is a namespace of named caches, each mapping a request url to a
// stored response.
type Storage interface {
	Match(cacheName, url string) (*Response, error) // nil when the cache or entry does not exist
	Put(cacheName, url string, resp Response) error // creates the cache if needed
	Keys() ([]string, error)                        // names of all caches
	Delete(cacheName string) error                  // drops a whole cache
	Close() error
}

// boltStorage keeps one bucket per cache name.
type boltStorage struct {
	db *bbolt.DB
}

// OpenBoltStorage opens (or creates) the cache file at path.
func OpenBoltStorage(path string) (Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	return &boltStorage{db: db}, nil
}

func (s *boltStorage) Match(cacheName, url string) (*Response, error) {
	var resp *Response

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cacheName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(url))
		if data == nil {
			return nil
		}
		resp = &Response{}
		return json.Unmarshal(data, resp)
	})
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", url, cacheName, err)
	}

	return resp, nil
}

func (s *boltStorage) Put(cacheName, url string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(cacheName))
		if err != nil {
			return err
		}
		return b.Put([]byte(url), data)
	})
}

func (s *boltStorage) Keys() ([]string, error) {
	var keys []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			keys = append(keys, string(name))
			return nil
		})
	})

	return keys, err
}

func (s *boltStorage) Delete(cacheName string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(cacheName))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}

// memoryStorage is a Storage that lives as long as the process.
type memoryStorage struct {
	mu     sync.Mutex
	caches map[string]map[string]Response
}

func NewMemoryStorage() Storage {
	return &memoryStorage{caches: make(map[string]map[string]Response)}
}

func (s *memoryStorage) Match(cacheName, url string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.caches[cacheName][url]
	if !ok {
		return nil, nil
	}
	resp.Body = append([]byte(nil), resp.Body...)
	return &resp, nil
}

func (s *memoryStorage) Put(cacheName, url string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.caches[cacheName] == nil {
		s.caches[cacheName] = make(map[string]Response)
	}
	resp.Body = append([]byte(nil), resp.Body...)
	s.caches[cacheName][url] = resp
	return nil
}

func (s *memoryStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.caches))
	for k := range s.caches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStorage) Delete(cacheName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, cacheName)
	return nil
}

func (s *memoryStorage) Close() error {
	return nil
}
