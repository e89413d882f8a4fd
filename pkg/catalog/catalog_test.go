package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/nsili"
	"github.com/nainya/nsilibridge/pkg/record"
)

func TestSerializedQueries(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	src := SourceFunc(func(ctx context.Context, req Request) (Response, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return Response{Hits: req.Offset}, nil
	})

	s := Serialize(src)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			resp, err := s.Query(context.Background(), Request{Offset: offset})
			assert.NoError(t, err)
			assert.Equal(t, offset, resp.Hits)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestHTTPClientQuery(t *testing.T) {
	modified := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	var got Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		rec := record.Record{ID: "r1", Title: "bridge", Modified: modified, Security: nsili.DefaultSecurity()}
		rec.Set(nsili.Imagery, nsili.AttrNIIRS, dag.Integer(5))
		_ = json.NewEncoder(w).Encode(Response{Records: []record.Record{rec}, Hits: 7})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL + "/api", Timeout: time.Second})
	require.NoError(t, err)

	resp, err := c.Query(context.Background(), Request{Query: "(NSIL_FILE.title like '%b%')", PageSize: 2, Offset: 4})
	require.NoError(t, err)

	assert.Equal(t, "(NSIL_FILE.title like '%b%')", got.Query)
	assert.Equal(t, 2, got.PageSize)
	assert.Equal(t, 4, got.Offset)

	assert.Equal(t, 7, resp.Hits)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "bridge", resp.Records[0].Title)
	assert.True(t, modified.Equal(resp.Records[0].Modified))
	niirs, ok := resp.Records[0].Get(nsili.Imagery, nsili.AttrNIIRS)
	require.True(t, ok)
	v, _ := niirs.AsInteger()
	assert.Equal(t, int32(5), v)
}

func TestHTTPClientQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Query(context.Background(), Request{Query: "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad query")
}

func TestHTTPClientResolveResource(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/thumbs/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, CacheSize: 4, ResourceRate: 1000, ResourceBurst: 4})
	require.NoError(t, err)

	data, err := c.ResolveResource(context.Background(), "/thumbs/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg:/thumbs/a.jpg", string(data))

	data, err = c.ResolveResource(context.Background(), srv.URL+"/thumbs/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg:/thumbs/a.jpg", string(data))
	assert.Equal(t, int32(1), hits.Load(), "second fetch served from cache")

	_, err = c.ResolveResource(context.Background(), "/thumbs/missing.jpg")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestHTTPClientResolveResourceLimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, CacheSize: 4, MaxResourceBytes: 16})
	require.NoError(t, err)
	_, err = c.ResolveResource(context.Background(), "/big.jpg")
	assert.ErrorIs(t, err, ErrResourceTooLarge)
	_, cached := c.cache.Get(srv.URL + "/big.jpg")
	assert.False(t, cached)

	c, err = NewHTTPClient(HTTPConfig{BaseURL: srv.URL, MaxResourceBytes: 64})
	require.NoError(t, err)
	data, err := c.ResolveResource(context.Background(), "/big.jpg")
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestHTTPClientRateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, ResourceRate: 0.001, ResourceBurst: 1})
	require.NoError(t, err)

	_, err = c.ResolveResource(context.Background(), "/one")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ResolveResource(ctx, "/two")
	assert.Error(t, err)
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{BaseURL: "catalog/api"})
	assert.Error(t, err)
}
