package server

import (
	"context"

	"google.golang.org/grpc"
)

const (
	// LibraryServiceName is the full name of the library service
	LibraryServiceName = "nsili.Library"
	// CallbackServiceName is the service a callback peer must serve
	CallbackServiceName = "nsili.Callback"
	// CallbackNotifyMethod is invoked on callback peers when results are waiting
	CallbackNotifyMethod = "/" + CallbackServiceName + "/Notify"
)

// LibraryServer is the server API of nsili.Library
type LibraryServer interface {
	SubmitQuery(context.Context, *SubmitQueryRequest) (*SubmitQueryResponse, error)
	SubmitStandingQuery(context.Context, *SubmitStandingQueryRequest) (*SubmitStandingQueryResponse, error)
	GetViews(context.Context, *Empty) (*GetViewsResponse, error)
	ListStandingQueries(context.Context, *Empty) (*ListStandingQueriesResponse, error)
	GetPageSize(context.Context, *QueryRef) (*PageSizeResponse, error)
	SetPageSize(context.Context, *PageSizeRequest) (*Empty, error)
	SetUserInfo(context.Context, *UserInfoRequest) (*Empty, error)
	GetRequestDescription(context.Context, *QueryRef) (*DescriptionResponse, error)
	Pause(context.Context, *QueryRef) (*Empty, error)
	Resume(context.Context, *QueryRef) (*Empty, error)
	Cancel(context.Context, *QueryRef) (*Empty, error)
	GetStatus(context.Context, *QueryRef) (*StatusResponse, error)
	Complete(context.Context, *CompleteRequest) (*CompleteResponse, error)
	CompleteStringDAG(context.Context, *QueryRef) (*Empty, error)
	CompleteXML(context.Context, *QueryRef) (*Empty, error)
	GetNumberOfHits(context.Context, *QueryRef) (*HitsResponse, error)
	GetNumberOfHitsInInterval(context.Context, *IntervalRequest) (*HitsResponse, error)
	GetNumberOfIntervals(context.Context, *QueryRef) (*IntervalsResponse, error)
	ClearAll(context.Context, *QueryRef) (*Empty, error)
	ClearIntervals(context.Context, *ClearIntervalsRequest) (*Empty, error)
	ClearBefore(context.Context, *ClearBeforeRequest) (*Empty, error)
	GetTimeLastExecuted(context.Context, *QueryRef) (*TimeResponse, error)
	GetTimeNextExecution(context.Context, *QueryRef) (*TimeResponse, error)
	GetRemainingDelay(context.Context, *QueryRef) (*DelayResponse, error)
	RegisterCallback(context.Context, *RegisterCallbackRequest) (*CallbackRef, error)
	FreeCallback(context.Context, *CallbackRef) (*Empty, error)
}

func unaryMethod[Req, Resp any](service, name string, call func(LibraryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LibraryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LibraryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LibraryServiceDesc describes nsili.Library for grpc.Server.RegisterService
var LibraryServiceDesc = grpc.ServiceDesc{
	ServiceName: LibraryServiceName,
	HandlerType: (*LibraryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(LibraryServiceName, "SubmitQuery", LibraryServer.SubmitQuery),
		unaryMethod(LibraryServiceName, "SubmitStandingQuery", LibraryServer.SubmitStandingQuery),
		unaryMethod(LibraryServiceName, "GetViews", LibraryServer.GetViews),
		unaryMethod(LibraryServiceName, "ListStandingQueries", LibraryServer.ListStandingQueries),
		unaryMethod(LibraryServiceName, "GetPageSize", LibraryServer.GetPageSize),
		unaryMethod(LibraryServiceName, "SetPageSize", LibraryServer.SetPageSize),
		unaryMethod(LibraryServiceName, "SetUserInfo", LibraryServer.SetUserInfo),
		unaryMethod(LibraryServiceName, "GetRequestDescription", LibraryServer.GetRequestDescription),
		unaryMethod(LibraryServiceName, "Pause", LibraryServer.Pause),
		unaryMethod(LibraryServiceName, "Resume", LibraryServer.Resume),
		unaryMethod(LibraryServiceName, "Cancel", LibraryServer.Cancel),
		unaryMethod(LibraryServiceName, "GetStatus", LibraryServer.GetStatus),
		unaryMethod(LibraryServiceName, "Complete", LibraryServer.Complete),
		unaryMethod(LibraryServiceName, "CompleteStringDAG", LibraryServer.CompleteStringDAG),
		unaryMethod(LibraryServiceName, "CompleteXML", LibraryServer.CompleteXML),
		unaryMethod(LibraryServiceName, "GetNumberOfHits", LibraryServer.GetNumberOfHits),
		unaryMethod(LibraryServiceName, "GetNumberOfHitsInInterval", LibraryServer.GetNumberOfHitsInInterval),
		unaryMethod(LibraryServiceName, "GetNumberOfIntervals", LibraryServer.GetNumberOfIntervals),
		unaryMethod(LibraryServiceName, "ClearAll", LibraryServer.ClearAll),
		unaryMethod(LibraryServiceName, "ClearIntervals", LibraryServer.ClearIntervals),
		unaryMethod(LibraryServiceName, "ClearBefore", LibraryServer.ClearBefore),
		unaryMethod(LibraryServiceName, "GetTimeLastExecuted", LibraryServer.GetTimeLastExecuted),
		unaryMethod(LibraryServiceName, "GetTimeNextExecution", LibraryServer.GetTimeNextExecution),
		unaryMethod(LibraryServiceName, "GetRemainingDelay", LibraryServer.GetRemainingDelay),
		unaryMethod(LibraryServiceName, "RegisterCallback", LibraryServer.RegisterCallback),
		unaryMethod(LibraryServiceName, "FreeCallback", LibraryServer.FreeCallback),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterLibraryServer registers srv on s
func RegisterLibraryServer(s grpc.ServiceRegistrar, srv LibraryServer) {
	s.RegisterService(&LibraryServiceDesc, srv)
}

// LibraryClient calls nsili.Library
type LibraryClient struct {
	cc grpc.ClientConnInterface
}

// NewLibraryClient wraps a connection
func NewLibraryClient(cc grpc.ClientConnInterface) *LibraryClient {
	return &LibraryClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{JSON()}, opts...)
	if err := cc.Invoke(ctx, "/"+LibraryServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LibraryClient) SubmitQuery(ctx context.Context, in *SubmitQueryRequest, opts ...grpc.CallOption) (*SubmitQueryResponse, error) {
	return invoke[SubmitQueryResponse](ctx, c.cc, "SubmitQuery", in, opts)
}

func (c *LibraryClient) SubmitStandingQuery(ctx context.Context, in *SubmitStandingQueryRequest, opts ...grpc.CallOption) (*SubmitStandingQueryResponse, error) {
	return invoke[SubmitStandingQueryResponse](ctx, c.cc, "SubmitStandingQuery", in, opts)
}

func (c *LibraryClient) GetViews(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GetViewsResponse, error) {
	return invoke[GetViewsResponse](ctx, c.cc, "GetViews", in, opts)
}

func (c *LibraryClient) ListStandingQueries(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListStandingQueriesResponse, error) {
	return invoke[ListStandingQueriesResponse](ctx, c.cc, "ListStandingQueries", in, opts)
}

func (c *LibraryClient) GetPageSize(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*PageSizeResponse, error) {
	return invoke[PageSizeResponse](ctx, c.cc, "GetPageSize", in, opts)
}

func (c *LibraryClient) SetPageSize(ctx context.Context, in *PageSizeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SetPageSize", in, opts)
}

func (c *LibraryClient) SetUserInfo(ctx context.Context, in *UserInfoRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SetUserInfo", in, opts)
}

func (c *LibraryClient) GetRequestDescription(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*DescriptionResponse, error) {
	return invoke[DescriptionResponse](ctx, c.cc, "GetRequestDescription", in, opts)
}

func (c *LibraryClient) Pause(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Pause", in, opts)
}

func (c *LibraryClient) Resume(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Resume", in, opts)
}

func (c *LibraryClient) Cancel(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Cancel", in, opts)
}

func (c *LibraryClient) GetStatus(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "GetStatus", in, opts)
}

func (c *LibraryClient) Complete(ctx context.Context, in *CompleteRequest, opts ...grpc.CallOption) (*CompleteResponse, error) {
	return invoke[CompleteResponse](ctx, c.cc, "Complete", in, opts)
}

func (c *LibraryClient) CompleteStringDAG(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "CompleteStringDAG", in, opts)
}

func (c *LibraryClient) CompleteXML(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "CompleteXML", in, opts)
}

func (c *LibraryClient) GetNumberOfHits(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*HitsResponse, error) {
	return invoke[HitsResponse](ctx, c.cc, "GetNumberOfHits", in, opts)
}

func (c *LibraryClient) GetNumberOfHitsInInterval(ctx context.Context, in *IntervalRequest, opts ...grpc.CallOption) (*HitsResponse, error) {
	return invoke[HitsResponse](ctx, c.cc, "GetNumberOfHitsInInterval", in, opts)
}

func (c *LibraryClient) GetNumberOfIntervals(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*IntervalsResponse, error) {
	return invoke[IntervalsResponse](ctx, c.cc, "GetNumberOfIntervals", in, opts)
}

func (c *LibraryClient) ClearAll(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ClearAll", in, opts)
}

func (c *LibraryClient) ClearIntervals(ctx context.Context, in *ClearIntervalsRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ClearIntervals", in, opts)
}

func (c *LibraryClient) ClearBefore(ctx context.Context, in *ClearBeforeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ClearBefore", in, opts)
}

func (c *LibraryClient) GetTimeLastExecuted(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*TimeResponse, error) {
	return invoke[TimeResponse](ctx, c.cc, "GetTimeLastExecuted", in, opts)
}

func (c *LibraryClient) GetTimeNextExecution(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*TimeResponse, error) {
	return invoke[TimeResponse](ctx, c.cc, "GetTimeNextExecution", in, opts)
}

func (c *LibraryClient) GetRemainingDelay(ctx context.Context, in *QueryRef, opts ...grpc.CallOption) (*DelayResponse, error) {
	return invoke[DelayResponse](ctx, c.cc, "GetRemainingDelay", in, opts)
}

func (c *LibraryClient) RegisterCallback(ctx context.Context, in *RegisterCallbackRequest, opts ...grpc.CallOption) (*CallbackRef, error) {
	return invoke[CallbackRef](ctx, c.cc, "RegisterCallback", in, opts)
}

func (c *LibraryClient) FreeCallback(ctx context.Context, in *CallbackRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "FreeCallback", in, opts)
}
