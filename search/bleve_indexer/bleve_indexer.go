package bleve_indexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/noelzubin/quick_nav/search"

	_ "github.com/blevesearch/bleve/v2/config"
)

var indexLog = logging.ForComponent(logging.CompSearch)

// bleveIndexer is the implmentation of search.Engine which keeps the
// links in an in-memory bleve index.
type bleveIndexer struct {
	store   *links.Store
	index   bleve.Index
	indexed int // links of the store already in the index
}

// Document is what gets indexed for each link.
// Fields are lower cased and kept as single keyword terms so a wildcard
// query behaves like a substring match.
type Document struct {
	Title  string
	Parent string
}

// NewBleveIndexer returns a search.Engine backed by bleve.
func NewBleveIndexer(store *links.Store) (*bleveIndexer, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &bleveIndexer{store: store, index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	field := bleve.NewTextFieldMapping()
	field.Analyzer = keyword.Name
	field.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("Title", field)
	doc.AddFieldMappingsAt("Parent", field)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func (s *bleveIndexer) Close() error {
	return s.index.Close()
}

// IndexLinks adds the links appended to the store since the last call.
func (s *bleveIndexer) IndexLinks() error {
	pending := s.store.Since(s.indexed)
	if len(pending) == 0 {
		return nil
	}

	batch := s.index.NewBatch()
	for _, l := range pending {
		doc := Document{
			Title:  strings.ToLower(l.Title),
			Parent: strings.ToLower(l.ParentTitle),
		}
		if err := batch.Index(strconv.Itoa(l.Position()), doc); err != nil {
			return fmt.Errorf("index link %d: %w", l.Position(), err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}

	s.indexed += len(pending)
	return nil
}

// Search searches the index for the given query.
// Candidates from bleve are checked again against the query and ordered the
// same way as the substring engine.
func (s *bleveIndexer) Search(qry string, limit int) []*links.Link {
	if search.Blank(qry) || limit < 1 {
		return nil
	}
	q := search.Normalize(qry)

	if err := s.IndexLinks(); err != nil {
		indexLog.Error("index_links_failed", "error", err)
		return nil
	}

	pattern := "*" + q + "*"
	title := bleve.NewWildcardQuery(pattern)
	title.SetField("Title")
	parent := bleve.NewWildcardQuery(pattern)
	parent.SetField("Parent")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery([]query.Query{title, parent}...))
	req.Size = s.store.Len()

	res, err := s.index.Search(req)
	if err != nil {
		indexLog.Error("search_failed", "query", q, "error", err)
		return nil
	}

	all := s.store.All()
	var matched []search.Hit
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(all) {
			continue
		}
		l := all[pos]
		if rank := search.RankOf(l, q); rank != search.NoMatch {
			matched = append(matched, search.Hit{Link: l, Rank: rank})
		}
	}

	return search.Order(matched, limit)
}
