// Package server implements the nsili.Library gRPC service
package server

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nainya/nsilibridge/internal/logger"
	"github.com/nainya/nsilibridge/internal/metrics"
	"github.com/nainya/nsilibridge/pkg/bqs"
	"github.com/nainya/nsilibridge/pkg/library"
	"github.com/nainya/nsilibridge/pkg/standingquery"
)

// Server implements LibraryServer on top of a library
type Server struct {
	lib          *library.Library
	log          *logger.Logger
	callbackOpts []grpc.DialOption
}

// Options configures a Server
type Options struct {
	// CallbackDialOptions are used to reach callback peers; insecure transport when empty
	CallbackDialOptions []grpc.DialOption
}

// NewServer creates the service
func NewServer(lib *library.Library, log *logger.Logger, opts Options) *Server {
	dialOpts := opts.CallbackDialOptions
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &Server{
		lib:          lib,
		log:          log,
		callbackOpts: dialOpts,
	}
}

// NewGRPCServer builds a grpc.Server serving srv and the standard health service
func NewGRPCServer(srv *Server, m *metrics.Metrics, maxMessageBytes int) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
	}
	if m != nil {
		opts = append(opts, grpc.UnaryInterceptor(GrpcMetricsInterceptor(m, srv.log)))
	}
	grpcServer := grpc.NewServer(opts...)
	RegisterLibraryServer(grpcServer, srv)

	hs := health.NewServer()
	hs.SetServingStatus(LibraryServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	return grpcServer, hs
}

// toStatus maps domain errors to gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, standingquery.ErrNotImplemented):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, standingquery.ErrNotFound),
		errors.Is(err, standingquery.ErrUnknownCallback):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, bqs.ErrSyntax),
		errors.Is(err, library.ErrUnknownView),
		errors.Is(err, standingquery.ErrInvalidPageSize),
		errors.Is(err, standingquery.ErrIntervalOutOfRange),
		errors.Is(err, standingquery.ErrInvalidUpdatePeriod),
		errors.Is(err, standingquery.ErrUnsupportedView):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, standingquery.ErrCanceled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) query(id string) (*standingquery.StandingQuery, error) {
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	q, err := s.lib.StandingQueries().Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return q, nil
}

// ========== Queries ==========

func (s *Server) SubmitQuery(ctx context.Context, req *SubmitQueryRequest) (*SubmitQueryResponse, error) {
	res, err := s.lib.SubmitQuery(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SubmitQueryResponse{Result: res}, nil
}

func (s *Server) SubmitStandingQuery(ctx context.Context, req *SubmitStandingQueryRequest) (*SubmitStandingQueryResponse, error) {
	q, err := s.lib.SubmitStandingQuery(req.StandingRequest)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SubmitStandingQueryResponse{
		ID:             q.ID(),
		UpdateInterval: q.UpdateInterval().String(),
	}, nil
}

func (s *Server) GetViews(ctx context.Context, _ *Empty) (*GetViewsResponse, error) {
	return &GetViewsResponse{Views: s.lib.Views()}, nil
}

func (s *Server) ListStandingQueries(ctx context.Context, _ *Empty) (*ListStandingQueriesResponse, error) {
	return &ListStandingQueriesResponse{IDs: s.lib.StandingQueries().IDs()}, nil
}

// ========== Standing Query Control ==========

func (s *Server) GetPageSize(ctx context.Context, req *QueryRef) (*PageSizeResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &PageSizeResponse{PageSize: q.GetPageSize()}, nil
}

func (s *Server) SetPageSize(ctx context.Context, req *PageSizeRequest) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if err := q.SetPageSize(req.PageSize); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) SetUserInfo(ctx context.Context, req *UserInfoRequest) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	q.SetUserInfo(req.UserInfo)
	return &Empty{}, nil
}

func (s *Server) GetRequestDescription(ctx context.Context, req *QueryRef) (*DescriptionResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &DescriptionResponse{Description: q.GetRequestDescription(), Type: q.RequestType()}, nil
}

func (s *Server) Pause(ctx context.Context, req *QueryRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if err := q.Pause(); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) Resume(ctx context.Context, req *QueryRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if err := q.Resume(); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) Cancel(ctx context.Context, req *QueryRef) (*Empty, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := s.lib.StandingQueries().Cancel(req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) GetStatus(ctx context.Context, req *QueryRef) (*StatusResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{Status: q.Status()}, nil
}

// ========== Results ==========

func (s *Server) Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if req.TimeoutMillis > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMillis)*time.Millisecond)
		defer cancel()
	}

	dags, state, err := q.Complete(ctx)
	if errors.Is(err, context.DeadlineExceeded) && req.TimeoutMillis > 0 {
		return &CompleteResponse{State: standingquery.InProgress}, nil
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &CompleteResponse{State: state, DAGs: dags}, nil
}

func (s *Server) CompleteStringDAG(ctx context.Context, req *QueryRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, toStatus(q.CompleteStringDAG(ctx))
}

func (s *Server) CompleteXML(ctx context.Context, req *QueryRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, toStatus(q.CompleteXML(ctx))
}

func (s *Server) GetNumberOfHits(ctx context.Context, req *QueryRef) (*HitsResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &HitsResponse{Hits: q.GetNumberOfHits()}, nil
}

func (s *Server) GetNumberOfHitsInInterval(ctx context.Context, req *IntervalRequest) (*HitsResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	n, err := q.GetNumberOfHitsInInterval(req.Interval)
	if err != nil {
		return nil, toStatus(err)
	}
	return &HitsResponse{Hits: n}, nil
}

func (s *Server) GetNumberOfIntervals(ctx context.Context, req *QueryRef) (*IntervalsResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &IntervalsResponse{Intervals: q.GetNumberOfIntervals()}, nil
}

func (s *Server) ClearAll(ctx context.Context, req *QueryRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	q.ClearAll()
	return &Empty{}, nil
}

func (s *Server) ClearIntervals(ctx context.Context, req *ClearIntervalsRequest) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if req.Count < 0 {
		return nil, status.Error(codes.InvalidArgument, "count must not be negative")
	}
	q.ClearIntervals(req.Count)
	return &Empty{}, nil
}

func (s *Server) ClearBefore(ctx context.Context, req *ClearBeforeRequest) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	q.ClearBefore(time.Duration(req.AgeMillis) * time.Millisecond)
	return &Empty{}, nil
}

// ========== Timing ==========

func (s *Server) GetTimeLastExecuted(ctx context.Context, req *QueryRef) (*TimeResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &TimeResponse{Time: q.GetTimeLastExecuted()}, nil
}

func (s *Server) GetTimeNextExecution(ctx context.Context, req *QueryRef) (*TimeResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &TimeResponse{Time: q.GetTimeNextExecution()}, nil
}

func (s *Server) GetRemainingDelay(ctx context.Context, req *QueryRef) (*DelayResponse, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	return &DelayResponse{DelayMillis: q.GetRemainingDelay().Milliseconds()}, nil
}

// ========== Callbacks ==========

func (s *Server) RegisterCallback(ctx context.Context, req *RegisterCallbackRequest) (*CallbackRef, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if req.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "address is required")
	}
	cb := NewRemoteCallback(req.Address, s.callbackOpts...)
	id, err := q.RegisterCallback(cb)
	if err != nil {
		return nil, toStatus(err)
	}
	s.log.Info("Callback registered").
		Str("standing_query", req.ID).
		Str("callback", id).
		Str("address", req.Address).
		Send()
	return &CallbackRef{ID: req.ID, CallbackID: id}, nil
}

func (s *Server) FreeCallback(ctx context.Context, req *CallbackRef) (*Empty, error) {
	q, err := s.query(req.ID)
	if err != nil {
		return nil, err
	}
	if err := q.FreeCallback(req.CallbackID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}
