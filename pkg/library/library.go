// ABOUTME: Library facade: one-shot queries and standing query submission
// ABOUTME: Wires translation, the catalog connection and DAG conversion together

package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nainya/nsilibridge/pkg/bqs"
	"github.com/nainya/nsilibridge/pkg/catalog"
	"github.com/nainya/nsilibridge/pkg/convert"
	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/lifespan"
	"github.com/nainya/nsilibridge/pkg/nsili"
	"github.com/nainya/nsilibridge/pkg/standingquery"
)

var tracer = otel.Tracer("nsilibridge.library")

// ErrUnknownView is returned for views missing from the schema
var ErrUnknownView = errors.New("unknown view")

// Options configures a Library
type Options struct {
	Schema          *nsili.Schema
	SourceLibrary   string
	DefaultView     string
	DefaultPageSize int
	// EnforceRequired drops DAGs missing a required attribute of the view
	EnforceRequired bool

	UpdateInterval    time.Duration
	MaxPendingResults int
	MaxWaitToStart    time.Duration

	Logger   zerolog.Logger
	Observer standingquery.Observer
}

// Library answers queries against one catalog connection
type Library struct {
	source   catalog.Source
	resolver catalog.ResourceResolver
	opts     Options
	manager  *standingquery.Manager
	log      zerolog.Logger
}

// New creates a library. Every query on source, one-shot or standing, is serialized through one lock.
func New(source catalog.Source, resolver catalog.ResourceResolver, opts Options) *Library {
	if opts.Schema == nil {
		opts.Schema = nsili.DefaultSchema()
	}
	if opts.DefaultView == "" {
		opts.DefaultView = nsili.AllView
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = standingquery.DefaultPageSize
	}
	return &Library{
		source:   catalog.Serialize(source),
		resolver: resolver,
		opts:     opts,
		manager:  standingquery.NewManager(opts.Logger),
		log:      opts.Logger,
	}
}

// Query describes a request. Filter is used when BQS is empty.
type Query struct {
	BQS              string              `json:"bqs,omitempty"`
	Filter           *filter.Filter      `json:"filter,omitempty"`
	View             string              `json:"view,omitempty"`
	PageSize         int                 `json:"page_size,omitempty"`
	Offset           int                 `json:"offset,omitempty"`
	Sort             []catalog.SortField `json:"sort,omitempty"`
	ResultAttributes []string            `json:"result_attributes,omitempty"`
	UserInfo         string              `json:"user_info,omitempty"`
}

// Result is one page of converted products
type Result struct {
	DAGs   []dag.DAG `json:"dags"`
	Hits   int       `json:"hits"`
	Failed int       `json:"failed"`
}

// Views lists the schema views
func (l *Library) Views() []string {
	return l.opts.Schema.Views()
}

// Schema returns the attribute schema
func (l *Library) Schema() *nsili.Schema {
	return l.opts.Schema
}

// StandingQueries exposes the standing query registry
func (l *Library) StandingQueries() *standingquery.Manager {
	return l.manager
}

// Close cancels every standing query
func (l *Library) Close() {
	l.manager.Close()
}

func (l *Library) prepare(q Query) (filter.Filter, *bqs.Translator, error) {
	view := q.View
	if view == "" {
		view = l.opts.DefaultView
	}
	if !l.opts.Schema.HasView(view) {
		return filter.Filter{}, nil, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	var f filter.Filter
	switch {
	case q.BQS != "":
		parsed, err := bqs.Parse(q.BQS)
		if err != nil {
			return filter.Filter{}, nil, err
		}
		f = parsed
	case q.Filter != nil:
		f = *q.Filter
	default:
		f = filter.All()
	}
	return f, bqs.NewTranslator(l.opts.Schema, view), nil
}

func (l *Library) convertOptions(view string, resultAttributes []string) convert.Options {
	opts := convert.Options{
		Resolver:         l.resolver,
		Logger:           &l.log,
		SourceLibrary:    l.opts.SourceLibrary,
		ResultAttributes: resultAttributes,
	}
	if l.opts.EnforceRequired {
		opts.RequiredAttributes = l.opts.Schema.Required(view)
	}
	return opts
}

// SubmitQuery runs a one-shot query and converts the page to DAGs
func (l *Library) SubmitQuery(ctx context.Context, q Query) (Result, error) {
	f, tr, err := l.prepare(q)
	if err != nil {
		return Result{}, err
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = l.opts.DefaultPageSize
	}

	req := catalog.Request{
		Query:    tr.Translate(f),
		View:     tr.View(),
		PageSize: pageSize,
		Offset:   q.Offset,
		Sort:     q.Sort,
	}

	ctx, span := tracer.Start(ctx, "library.SubmitQuery",
		trace.WithAttributes(
			attribute.String("library.view", req.View),
			attribute.String("library.query", req.Query),
			attribute.Int("library.page_size", req.PageSize),
		),
	)
	defer span.End()

	resp, err := l.source.Query(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("catalog query: %w", err)
	}

	dags, failed := convert.ToDAGs(resp.Records, l.convertOptions(req.View, q.ResultAttributes))
	if l.opts.Observer != nil {
		l.opts.Observer.Converted(len(dags), failed)
	}
	span.SetAttributes(attribute.Int("library.hits", resp.Hits), attribute.Int("library.dags", len(dags)))
	span.SetStatus(codes.Ok, "")

	l.log.Debug().
		Str("view", req.View).
		Str("query", req.Query).
		Int("hits", resp.Hits).
		Int("dags", len(dags)).
		Int("failed", failed).
		Msg("Query completed")

	return Result{DAGs: dags, Hits: resp.Hits, Failed: failed}, nil
}

// StandingRequest is a standing query submission
type StandingRequest struct {
	Query
	LifeSpan lifespan.LifeSpan `json:"life_span"`
	// UpdateInterval overrides the library default when positive
	UpdateInterval time.Duration `json:"update_interval,omitempty"`
}

// SubmitStandingQuery starts a standing query
func (l *Library) SubmitStandingQuery(req StandingRequest) (*standingquery.StandingQuery, error) {
	f, tr, err := l.prepare(req.Query)
	if err != nil {
		return nil, err
	}
	interval := req.UpdateInterval
	if interval <= 0 {
		interval = l.opts.UpdateInterval
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = l.opts.DefaultPageSize
	}

	q, err := l.manager.Submit(standingquery.Config{
		Query:             f,
		Translator:        tr,
		Source:            l.source,
		Convert:           l.convertOptions(tr.View(), req.ResultAttributes),
		Sort:              req.Sort,
		PageSize:          pageSize,
		UpdateInterval:    interval,
		MaxPendingResults: l.opts.MaxPendingResults,
		MaxWaitToStart:    l.opts.MaxWaitToStart,
		LifeSpan:          req.LifeSpan,
		UserInfo:          req.UserInfo,
		Observer:          l.opts.Observer,
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("standing_query", q.ID()).Str("view", tr.View()).Msg("Standing query submitted")
	return q, nil
}
