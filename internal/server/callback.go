package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nainya/nsilibridge/pkg/standingquery"
)

// RemoteCallback notifies a peer serving nsili.Callback
type RemoteCallback struct {
	target string
	opts   []grpc.DialOption
}

// NewRemoteCallback creates a callback for target. The peer is dialed on every notification.
func NewRemoteCallback(target string, opts ...grpc.DialOption) *RemoteCallback {
	return &RemoteCallback{target: target, opts: opts}
}

// Notify implements standingquery.Callback. Replies the peer understood but rejected are protocol faults.
func (c *RemoteCallback) Notify(ctx context.Context, st standingquery.Status, desc standingquery.Description) error {
	conn, err := grpc.NewClient(c.target, c.opts...)
	if err != nil {
		return fmt.Errorf("dial callback %s: %w", c.target, err)
	}
	defer conn.Close()

	req := &NotifyRequest{Status: st, Description: desc}
	err = conn.Invoke(ctx, CallbackNotifyMethod, req, &Empty{}, JSON())
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.Unimplemented:
		return &standingquery.ProtocolFault{Reason: status.Convert(err).Message(), Err: err}
	}
	return fmt.Errorf("notify callback %s: %w", c.target, err)
}

// CallbackServer is implemented by peers that receive notifications
type CallbackServer interface {
	Notify(context.Context, *NotifyRequest) (*Empty, error)
}

func notifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NotifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CallbackServer).Notify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallbackNotifyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CallbackServer).Notify(ctx, req.(*NotifyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// CallbackServiceDesc describes nsili.Callback
var CallbackServiceDesc = grpc.ServiceDesc{
	ServiceName: CallbackServiceName,
	HandlerType: (*CallbackServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Notify", Handler: notifyHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCallbackServer registers srv on s
func RegisterCallbackServer(s grpc.ServiceRegistrar, srv CallbackServer) {
	s.RegisterService(&CallbackServiceDesc, srv)
}
