// ABOUTME: Catalog boundary consumed by one-shot and standing queries
// ABOUTME: Request/response types and a wrapper serializing queries per connection

package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/nainya/nsilibridge/pkg/record"
)

// ErrResourceNotFound is returned when a resource URI has nothing behind it
var ErrResourceNotFound = errors.New("resource not found")

// ErrResourceTooLarge is returned when a resource body exceeds the configured limit
var ErrResourceTooLarge = errors.New("resource too large")

// SortField orders results by one attribute
type SortField struct {
	Attribute string `json:"attribute"`
	Ascending bool   `json:"ascending"`
}

// Request is one page of a catalog query
type Request struct {
	// Query is a BQS expression; empty matches everything
	Query    string      `json:"query"`
	View     string      `json:"view,omitempty"`
	PageSize int         `json:"page_size"`
	Offset   int         `json:"offset,omitempty"`
	Sort     []SortField `json:"sort,omitempty"`
}

// Response carries one page and the total hit count of the query
type Response struct {
	Records []record.Record `json:"records"`
	Hits    int             `json:"hits"`
}

// Source answers catalog queries
type Source interface {
	Query(ctx context.Context, req Request) (Response, error)
}

// ResourceResolver fetches the bytes behind a resource URI
type ResourceResolver interface {
	ResolveResource(ctx context.Context, uri string) ([]byte, error)
}

// Catalog is a full catalog connection
type Catalog interface {
	Source
	ResourceResolver
}

// Serialized allows one in-flight query at a time on the wrapped source
type Serialized struct {
	mu     sync.Mutex
	source Source
}

// Serialize wraps source
func Serialize(source Source) *Serialized {
	return &Serialized{source: source}
}

// Query forwards to the wrapped source while holding the connection lock
func (s *Serialized) Query(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.Query(ctx, req)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, req Request) (Response, error)

// Query calls f
func (f SourceFunc) Query(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
