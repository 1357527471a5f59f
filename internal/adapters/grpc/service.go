// internal/adapters/grpc/service.go
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "checkout.CheckoutService"

// CheckoutServer is the server API for checkout.CheckoutService.
type CheckoutServer interface {
	StartCheckout(context.Context, *Empty) (*StartCheckoutResponse, error)
	GetSession(context.Context, *Empty) (*SessionResponse, error)
	SendOTP(context.Context, *SendOTPRequest) (*SessionResponse, error)
	VerifyOTP(context.Context, *VerifyOTPRequest) (*SessionResponse, error)
	ResendOTP(context.Context, *Empty) (*SessionResponse, error)
	ChangeContact(context.Context, *Empty) (*SessionResponse, error)
	UpdateAddressField(context.Context, *UpdateAddressFieldRequest) (*SessionResponse, error)
	SubmitAddress(context.Context, *SubmitAddressRequest) (*SessionResponse, error)
	GoBack(context.Context, *Empty) (*SessionResponse, error)
	SetItems(context.Context, *SetItemsRequest) (*SessionResponse, error)
	Quote(context.Context, *Empty) (*QuoteResponse, error)
	CompletePayment(context.Context, *Empty) (*SessionResponse, error)
	GetOrder(context.Context, *Empty) (*OrderResponse, error)
	AbandonCheckout(context.Context, *Empty) (*MessageResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	ListCategories(context.Context, *Empty) (*ListCategoriesResponse, error)
	WatchCooldown(*Empty, CheckoutService_WatchCooldownServer) error
}

type CheckoutService_WatchCooldownServer interface {
	Send(*CooldownTick) error
	grpc.ServerStream
}

type watchCooldownServer struct {
	grpc.ServerStream
}

func (x *watchCooldownServer) Send(m *CooldownTick) error {
	return x.ServerStream.SendMsg(m)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(CheckoutServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CheckoutServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(CheckoutServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchCooldownHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CheckoutServer).WatchCooldown(in, &watchCooldownServer{stream})
}

// ServiceDesc describes checkout.CheckoutService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckoutServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartCheckout", CheckoutServer.StartCheckout),
		unary("GetSession", CheckoutServer.GetSession),
		unary("SendOTP", CheckoutServer.SendOTP),
		unary("VerifyOTP", CheckoutServer.VerifyOTP),
		unary("ResendOTP", CheckoutServer.ResendOTP),
		unary("ChangeContact", CheckoutServer.ChangeContact),
		unary("UpdateAddressField", CheckoutServer.UpdateAddressField),
		unary("SubmitAddress", CheckoutServer.SubmitAddress),
		unary("GoBack", CheckoutServer.GoBack),
		unary("SetItems", CheckoutServer.SetItems),
		unary("Quote", CheckoutServer.Quote),
		unary("CompletePayment", CheckoutServer.CompletePayment),
		unary("GetOrder", CheckoutServer.GetOrder),
		unary("AbandonCheckout", CheckoutServer.AbandonCheckout),
		unary("ListProducts", CheckoutServer.ListProducts),
		unary("GetProduct", CheckoutServer.GetProduct),
		unary("ListCategories", CheckoutServer.ListCategories),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchCooldown",
			Handler:       watchCooldownHandler,
			ServerStreams: true,
		},
	},
	Metadata: "checkout/checkout.json",
}

func RegisterCheckoutServer(s grpc.ServiceRegistrar, srv CheckoutServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// RegisterHealth adds the standard health service, reporting the checkout service as serving.
func RegisterHealth(s grpc.ServiceRegistrar) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}
