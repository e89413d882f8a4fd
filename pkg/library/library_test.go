package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/nsilibridge/pkg/bqs"
	"github.com/nainya/nsilibridge/pkg/catalog"
	"github.com/nainya/nsilibridge/pkg/convert"
	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/nsili"
	"github.com/nainya/nsilibridge/pkg/record"
	"github.com/nainya/nsilibridge/pkg/standingquery"
)

type fakeCatalog struct {
	mu      sync.Mutex
	records []record.Record
	last    catalog.Request
	err     error
}

func (c *fakeCatalog) Query(_ context.Context, req catalog.Request) (catalog.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = req
	if c.err != nil {
		return catalog.Response{}, c.err
	}
	end := min(req.Offset+req.PageSize, len(c.records))
	start := min(req.Offset, end)
	return catalog.Response{Records: c.records[start:end], Hits: len(c.records)}, nil
}

func (c *fakeCatalog) lastRequest() catalog.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func sampleRecords() []record.Record {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return []record.Record{
		{ID: "a", Title: "bridge", Created: created, Modified: created, ContentType: nsili.TypeImagery, SourceID: "lib"},
		{ID: "b", Title: "harbor", Created: created, Modified: created.Add(time.Hour), ContentType: nsili.TypeImagery, SourceID: "lib"},
		{ID: "c", Title: "airfield", Created: created, Modified: created, ContentType: nsili.TypeVideo, SourceID: "lib"},
	}
}

func TestSubmitQueryWithBQS(t *testing.T) {
	cat := &fakeCatalog{records: sampleRecords()}
	lib := New(cat, nil, Options{Logger: zerolog.Nop()})
	defer lib.Close()

	res, err := lib.SubmitQuery(context.Background(), Query{
		BQS:      "NSIL_FILE.title like '%bridge%'",
		View:     nsili.ImageryView,
		PageSize: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Hits)
	assert.Len(t, res.DAGs, 2)
	assert.Equal(t, 0, res.Failed)

	req := cat.lastRequest()
	assert.Equal(t, "(NSIL_FILE.title like '%bridge%')", req.Query)
	assert.Equal(t, nsili.ImageryView, req.View)
	assert.Equal(t, 2, req.PageSize)

	rec, ok := convert.FromDAG(context.Background(), res.DAGs[0], convert.Options{})
	require.True(t, ok)
	assert.Equal(t, "a", rec.ID)
}

func TestSubmitQueryWithFilter(t *testing.T) {
	cat := &fakeCatalog{records: sampleRecords()}
	lib := New(cat, nil, Options{DefaultPageSize: 10})
	defer lib.Close()

	f := filter.NewBuilder().Where("datatype", filter.Str(nsili.TypeImagery)).Build()
	res, err := lib.SubmitQuery(context.Background(), Query{Filter: &f, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, res.DAGs, 2)

	req := cat.lastRequest()
	assert.Equal(t, "(NSIL_COMMON.type = 'IMAGERY')", req.Query)
	assert.Equal(t, nsili.AllView, req.View)
	assert.Equal(t, 10, req.PageSize)
	assert.Equal(t, 1, req.Offset)

	_, err = lib.SubmitQuery(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, "", cat.lastRequest().Query)
}

func TestSubmitQueryErrors(t *testing.T) {
	cat := &fakeCatalog{}
	lib := New(cat, nil, Options{})
	defer lib.Close()

	_, err := lib.SubmitQuery(context.Background(), Query{View: "NSIL_NOPE_VIEW"})
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = lib.SubmitQuery(context.Background(), Query{BQS: "(NSIL_FILE.title = "})
	assert.ErrorIs(t, err, bqs.ErrSyntax)

	cat.err = errors.New("unreachable")
	_, err = lib.SubmitQuery(context.Background(), Query{})
	assert.ErrorContains(t, err, "unreachable")
}

func TestEnforceRequiredDropsIncompleteProducts(t *testing.T) {
	records := sampleRecords()
	records[1].ID = ""
	cat := &fakeCatalog{records: records}
	lib := New(cat, nil, Options{EnforceRequired: true})
	defer lib.Close()

	res, err := lib.SubmitQuery(context.Background(), Query{View: nsili.AssociationView})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Hits)
	assert.Len(t, res.DAGs, 2)
	assert.Equal(t, 1, res.Failed)
}

func TestSubmitStandingQuery(t *testing.T) {
	cat := &fakeCatalog{records: sampleRecords()}
	lib := New(cat, nil, Options{UpdateInterval: time.Hour})
	defer lib.Close()

	q, err := lib.SubmitStandingQuery(StandingRequest{
		Query: Query{BQS: "NSIL_COMMON.type = 'IMAGERY'", PageSize: 2, UserInfo: "watch"},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, q.UpdateInterval())
	assert.Equal(t, "watch", q.GetRequestDescription().UserInfo)

	require.Eventually(t, func() bool { return q.GetNumberOfHits() == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, cat.lastRequest().Query, "NSIL_CARD.dateTimeModified >= ")

	dags, state, err := q.Complete(context.Background())
	require.NoError(t, err)
	assert.Len(t, dags, 2)
	assert.Equal(t, standingquery.CompletedAvailable, state)

	got, err := lib.StandingQueries().Get(q.ID())
	require.NoError(t, err)
	assert.Same(t, q, got)

	_, err = lib.SubmitStandingQuery(StandingRequest{Query: Query{BQS: "not valid ("}})
	assert.ErrorIs(t, err, bqs.ErrSyntax)
}

func TestViews(t *testing.T) {
	lib := New(&fakeCatalog{}, nil, Options{})
	defer lib.Close()
	assert.Contains(t, lib.Views(), nsili.ImageryView)
	assert.True(t, lib.Schema().HasView(nsili.CBRNView))
}
