// ABOUTME: Standing query: a background poll loop feeding an interval result buffer
// ABOUTME: Supports pause/resume/cancel, pagination catch-up and result callbacks

package standingquery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
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
)

var tracer = otel.Tracer("nsilibridge.standingquery")

// Defaults applied to zero Config fields
const (
	DefaultUpdateInterval = 60 * time.Second
	DefaultPageSize       = 100
	DefaultMaxWaitToStart = 5 * time.Minute
	DefaultNotifyTimeout  = 10 * time.Second
)

const (
	modifiedSinceProperty  = "modified"
	requestDescriptionType = "SUBMIT_STANDING_QUERY"
)

// Config describes one standing query
type Config struct {
	// ID defaults to a random UUID
	ID         string
	Query      filter.Filter
	Translator *bqs.Translator
	Source     catalog.Source
	Convert    convert.Options
	Sort       []catalog.SortField
	PageSize   int
	// UpdateInterval is the sleep between polls; a relative frequency event in LifeSpan overrides it
	UpdateInterval time.Duration
	// MaxPendingResults stops polling while the buffer holds this many DAGs; zero means unbounded
	MaxPendingResults int
	// MaxWaitToStart caps a single sleep while waiting for a future start time
	MaxWaitToStart time.Duration
	NotifyTimeout  time.Duration
	LifeSpan       lifespan.LifeSpan
	UserInfo       string
	Logger         zerolog.Logger
	Observer       Observer
	Now            func() time.Time
}

// StandingQuery re-runs a catalog query on an interval and buffers new results
type StandingQuery struct {
	id         string
	query      filter.Filter
	translator *bqs.Translator
	source     catalog.Source
	convert    convert.Options
	sort       []catalog.SortField
	interval   time.Duration
	maxPending int
	maxWait    time.Duration
	notifyTO   time.Duration
	window     lifespan.Window
	log        zerolog.Logger
	observer   Observer
	now        func() time.Time

	buffer *resultBuffer

	cbMu      sync.Mutex
	callbacks map[string]Callback
	cbOrder   []string

	mu           sync.Mutex
	pageSize     int
	paused       bool
	canceled     bool
	userInfo     string
	since        time.Time
	pollStart    time.Time
	offset       int
	pageQuery    string
	lastExecuted time.Time

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New validates cfg and resolves its life span. The loop starts with Start.
func New(cfg Config) (*StandingQuery, error) {
	if cfg.Source == nil {
		return nil, ErrMissingSource
	}
	if cfg.Translator == nil {
		return nil, ErrMissingTranslator
	}
	if !cfg.Translator.Queryable(modifiedSinceProperty) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedView, cfg.Translator.View())
	}
	if cfg.PageSize < 0 {
		return nil, ErrInvalidPageSize
	}
	if cfg.UpdateInterval < 0 {
		return nil, ErrInvalidUpdatePeriod
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if d, ok := cfg.LifeSpan.Interval(); ok {
		cfg.UpdateInterval = d
	}
	if cfg.MaxWaitToStart <= 0 {
		cfg.MaxWaitToStart = DefaultMaxWaitToStart
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	log := cfg.Logger.With().Str("standing_query", cfg.ID).Logger()
	created := cfg.Now().UTC()

	return &StandingQuery{
		id:         cfg.ID,
		query:      cfg.Query,
		translator: cfg.Translator,
		source:     cfg.Source,
		convert:    cfg.Convert,
		sort:       cfg.Sort,
		interval:   cfg.UpdateInterval,
		maxPending: cfg.MaxPendingResults,
		maxWait:    cfg.MaxWaitToStart,
		notifyTO:   cfg.NotifyTimeout,
		window:     cfg.LifeSpan.Resolve(created, log),
		log:        log,
		observer:   cfg.Observer,
		now:        cfg.Now,
		buffer:     newResultBuffer(),
		callbacks:  make(map[string]Callback),
		pageSize:   cfg.PageSize,
		userInfo:   cfg.UserInfo,
		since:      created,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}, nil
}

// ID returns the query id
func (q *StandingQuery) ID() string { return q.id }

// Start launches the poll loop. It must be called at most once.
func (q *StandingQuery) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	q.mu.Lock()
	if q.canceled {
		q.mu.Unlock()
		cancel()
		return
	}
	q.cancel = cancel
	q.mu.Unlock()

	q.observer.QueryStarted()
	go q.run(ctx)
}

// Done is closed when the poll loop has exited
func (q *StandingQuery) Done() <-chan struct{} { return q.done }

func (q *StandingQuery) run(ctx context.Context) {
	defer close(q.done)
	defer q.observer.QueryFinished()

	q.log.Info().Dur("interval", q.interval).Time("start", q.window.Start).Time("stop", q.window.Stop).Msg("Standing query started")

	if !q.waitForStart(ctx) {
		return
	}

	for {
		catchUp := q.tick(ctx)

		if q.window.Expired(q.now()) {
			q.log.Info().Msg("Standing query life span ended")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if catchUp {
			continue
		}
		if !q.sleep(ctx, q.interval) {
			return
		}
	}
}

func (q *StandingQuery) waitForStart(ctx context.Context) bool {
	for {
		now := q.now()
		if q.window.Started(now) {
			return true
		}
		d := min(q.window.Start.Sub(now), q.maxWait)
		q.log.Debug().Dur("sleep", d).Msg("Waiting for standing query start")
		if !q.sleep(ctx, d) {
			return false
		}
	}
}

// sleep waits for d, a wake-up or cancellation. It returns false once ctx is done.
func (q *StandingQuery) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-q.wake:
		return true
	case <-timer.C:
		return true
	}
}

func (q *StandingQuery) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// tick runs one poll. It reports whether more pages are waiting.
func (q *StandingQuery) tick(ctx context.Context) bool {
	q.mu.Lock()
	if q.paused || q.canceled {
		q.mu.Unlock()
		return false
	}
	if q.maxPending > 0 && q.buffer.hits() >= q.maxPending {
		q.mu.Unlock()
		q.log.Debug().Int("max_pending", q.maxPending).Msg("Result buffer full, skipping poll")
		return false
	}

	mode := ModeCatchUp
	if q.offset == 0 {
		mode = ModeNormal
		q.pollStart = q.now().UTC()
		q.pageQuery = q.translator.Translate(filter.All(q.query, filter.AfterTime(modifiedSinceProperty, q.since)))
	}
	req := catalog.Request{
		Query:    q.pageQuery,
		View:     q.translator.View(),
		PageSize: q.pageSize,
		Offset:   q.offset,
		Sort:     q.sort,
	}
	q.mu.Unlock()

	ctx, span := tracer.Start(ctx, "standingquery.Poll",
		trace.WithAttributes(
			attribute.String("standing_query.id", q.id),
			attribute.String("standing_query.mode", mode),
			attribute.Int("standing_query.offset", req.Offset),
			attribute.Int("standing_query.page_size", req.PageSize),
		),
	)
	defer span.End()

	resp, err := q.source.Query(ctx, req)
	q.observer.Polled(mode, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		q.log.Warn().Err(err).Int("offset", req.Offset).Msg("Catalog query failed, retrying next interval")
		return false
	}

	dags, failed := convert.ToDAGs(resp.Records, q.convert)
	q.observer.Converted(len(dags), failed)
	if failed > 0 {
		q.log.Warn().Int("failed", failed).Msg("Records dropped during conversion")
	}

	executed := q.now().UTC()
	q.buffer.append(executed, dags)

	q.mu.Lock()
	q.lastExecuted = executed
	accumulated := req.Offset + len(resp.Records)
	more := len(resp.Records) > 0 && accumulated < resp.Hits
	if more {
		q.offset = accumulated
	} else {
		q.since = q.pollStart
		q.offset = 0
	}
	q.mu.Unlock()

	span.SetAttributes(
		attribute.Int("standing_query.records", len(resp.Records)),
		attribute.Int("standing_query.hits", resp.Hits),
	)
	span.SetStatus(codes.Ok, "")

	q.log.Debug().
		Str("mode", mode).
		Int("records", len(resp.Records)).
		Int("hits", resp.Hits).
		Bool("more", more).
		Msg("Standing query polled")

	if q.buffer.hits() > 0 {
		q.notify(ctx)
	}
	return more
}

// notify tells every callback results are waiting and drops those with transport faults
func (q *StandingQuery) notify(ctx context.Context) {
	q.cbMu.Lock()
	ids := append([]string(nil), q.cbOrder...)
	cbs := make([]Callback, len(ids))
	for i, id := range ids {
		cbs[i] = q.callbacks[id]
	}
	q.cbMu.Unlock()

	desc := q.GetRequestDescription()
	var dead []string
	for i, cb := range cbs {
		nctx, cancel := context.WithTimeout(ctx, q.notifyTO)
		err := cb.Notify(nctx, ResultsAvailable, desc)
		cancel()

		var fault *ProtocolFault
		switch {
		case err == nil:
			q.observer.Notified(NotifyOK)
		case errors.As(err, &fault):
			q.observer.Notified(NotifyProtocolFault)
			q.log.Warn().Err(err).Str("callback", ids[i]).Msg("Callback rejected notification")
		default:
			q.observer.Notified(NotifyTransportFault)
			q.log.Warn().Err(err).Str("callback", ids[i]).Msg("Callback unreachable, removing")
			dead = append(dead, ids[i])
		}
	}

	for _, id := range dead {
		_ = q.FreeCallback(id)
	}
}

// RegisterCallback adds cb and returns its id
func (q *StandingQuery) RegisterCallback(cb Callback) (string, error) {
	q.mu.Lock()
	canceled := q.canceled
	q.mu.Unlock()
	if canceled {
		return "", ErrCanceled
	}

	id := uuid.NewString()
	q.cbMu.Lock()
	q.callbacks[id] = cb
	q.cbOrder = append(q.cbOrder, id)
	q.cbMu.Unlock()
	return id, nil
}

// FreeCallback removes a callback
func (q *StandingQuery) FreeCallback(id string) error {
	q.cbMu.Lock()
	defer q.cbMu.Unlock()
	if _, ok := q.callbacks[id]; !ok {
		return ErrUnknownCallback
	}
	delete(q.callbacks, id)
	for i, o := range q.cbOrder {
		if o == id {
			q.cbOrder = append(q.cbOrder[:i], q.cbOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Callbacks returns the registered callback ids in registration order
func (q *StandingQuery) Callbacks() []string {
	q.cbMu.Lock()
	defer q.cbMu.Unlock()
	return append([]string(nil), q.cbOrder...)
}

// Pause stops catalog polling until Resume
func (q *StandingQuery) Pause() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.canceled {
		return ErrCanceled
	}
	q.paused = true
	return nil
}

// Resume restarts polling immediately
func (q *StandingQuery) Resume() error {
	q.mu.Lock()
	if q.canceled {
		q.mu.Unlock()
		return ErrCanceled
	}
	q.paused = false
	q.mu.Unlock()
	q.signal()
	return nil
}

// Cancel stops the loop and releases every callback. Repeated calls are no-ops.
func (q *StandingQuery) Cancel() {
	q.once.Do(func() {
		q.mu.Lock()
		q.canceled = true
		cancel := q.cancel
		q.mu.Unlock()

		q.cbMu.Lock()
		q.callbacks = make(map[string]Callback)
		q.cbOrder = nil
		q.cbMu.Unlock()

		if cancel != nil {
			cancel()
		} else {
			close(q.done)
		}
		q.signal()
		q.log.Info().Msg("Standing query canceled")
	})
}

// Status reports the current state
func (q *StandingQuery) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.canceled:
		return Canceled
	case q.paused:
		return Suspended
	case q.buffer.hits() > 0:
		return ResultsAvailable
	default:
		return Pending
	}
}

// Complete returns up to one page of buffered results. With an empty buffer it waits up to one update interval.
func (q *StandingQuery) Complete(ctx context.Context) ([]dag.DAG, CompletionState, error) {
	if q.isCanceled() {
		return nil, InProgress, ErrCanceled
	}

	if q.buffer.hits() == 0 {
		timer := time.NewTimer(q.interval)
		defer timer.Stop()
	wait:
		for q.buffer.hits() == 0 {
			select {
			case <-ctx.Done():
				return nil, InProgress, ctx.Err()
			case <-q.done:
				break wait
			case <-timer.C:
				break wait
			case <-q.buffer.avail:
			}
		}
	}

	dags := q.buffer.drain(q.GetPageSize())
	if q.buffer.hits() == 0 {
		return dags, InProgress, nil
	}
	return dags, CompletedAvailable, nil
}

// CompleteStringDAG is not supported
func (q *StandingQuery) CompleteStringDAG(context.Context) error { return ErrNotImplemented }

// CompleteXML is not supported
func (q *StandingQuery) CompleteXML(context.Context) error { return ErrNotImplemented }

func (q *StandingQuery) isCanceled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canceled
}

// GetPageSize returns the page size used for polls and Complete
func (q *StandingQuery) GetPageSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pageSize
}

// SetPageSize changes the page size
func (q *StandingQuery) SetPageSize(n int) error {
	if n <= 0 {
		return ErrInvalidPageSize
	}
	q.mu.Lock()
	q.pageSize = n
	q.mu.Unlock()
	return nil
}

// SetUserInfo replaces the caller supplied description text
func (q *StandingQuery) SetUserInfo(info string) {
	q.mu.Lock()
	q.userInfo = info
	q.mu.Unlock()
}

// GetRequestDescription describes the query for callbacks
func (q *StandingQuery) GetRequestDescription() Description {
	q.mu.Lock()
	info := q.userInfo
	q.mu.Unlock()
	return Description{
		ID:       q.id,
		UserInfo: info,
		Query:    q.translator.Translate(q.query),
		View:     q.translator.View(),
	}
}

// RequestType names the request kind for RPC peers
func (q *StandingQuery) RequestType() string { return requestDescriptionType }

// GetNumberOfHits is the number of buffered DAGs
func (q *StandingQuery) GetNumberOfHits() int { return q.buffer.hits() }

// GetNumberOfIntervals is the number of buffered poll intervals
func (q *StandingQuery) GetNumberOfIntervals() int { return q.buffer.intervalCount() }

// GetNumberOfHitsInInterval counts the DAGs buffered by interval i, oldest first
func (q *StandingQuery) GetNumberOfHitsInInterval(i int) (int, error) {
	n, ok := q.buffer.hitsIn(i)
	if !ok {
		return 0, ErrIntervalOutOfRange
	}
	return n, nil
}

// ClearAll empties the buffer
func (q *StandingQuery) ClearAll() { q.buffer.clearAll() }

// ClearIntervals drops the n oldest intervals
func (q *StandingQuery) ClearIntervals(n int) { q.buffer.clearIntervals(n) }

// ClearBefore drops intervals older than d
func (q *StandingQuery) ClearBefore(d time.Duration) { q.buffer.clearBefore(q.now().UTC().Add(-d)) }

// GetTimeLastExecuted is the time of the last completed poll; zero before the first
func (q *StandingQuery) GetTimeLastExecuted() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastExecuted
}

// GetTimeNextExecution is the last poll plus one interval, or the start time before the first poll
func (q *StandingQuery) GetTimeNextExecution() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lastExecuted.IsZero() {
		if q.window.Start.IsZero() {
			return q.since
		}
		return q.window.Start
	}
	return q.lastExecuted.Add(q.interval)
}

// GetRemainingDelay is the time until the next poll
func (q *StandingQuery) GetRemainingDelay() time.Duration {
	return max(0, q.GetTimeNextExecution().Sub(q.now()))
}

// UpdateInterval returns the effective poll interval
func (q *StandingQuery) UpdateInterval() time.Duration { return q.interval }
