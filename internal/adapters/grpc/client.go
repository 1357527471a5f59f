// internal/adapters/grpc/client.go
package grpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls checkout.CheckoutService with the JSON codec. Calls made after
// StartCheckout carry the bearer token it returned.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// DialOptions returns the call options every connection to the service needs.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName))}
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func invoke[Req, Resp any](ctx context.Context, c *Client, method string, in *Req) (*Resp, error) {
	out := new(Resp)
	if err := c.cc.Invoke(c.outgoing(ctx), fullMethod(method), in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// StartCheckout opens a session and keeps its token for later calls.
func (c *Client) StartCheckout(ctx context.Context) (*StartCheckoutResponse, error) {
	out, err := invoke[Empty, StartCheckoutResponse](ctx, c, "StartCheckout", &Empty{})
	if err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return out, nil
}

func (c *Client) GetSession(ctx context.Context) (*SessionResponse, error) {
	return invoke[Empty, SessionResponse](ctx, c, "GetSession", &Empty{})
}

func (c *Client) SendOTP(ctx context.Context, in *SendOTPRequest) (*SessionResponse, error) {
	return invoke[SendOTPRequest, SessionResponse](ctx, c, "SendOTP", in)
}

func (c *Client) VerifyOTP(ctx context.Context, in *VerifyOTPRequest) (*SessionResponse, error) {
	return invoke[VerifyOTPRequest, SessionResponse](ctx, c, "VerifyOTP", in)
}

func (c *Client) ResendOTP(ctx context.Context) (*SessionResponse, error) {
	return invoke[Empty, SessionResponse](ctx, c, "ResendOTP", &Empty{})
}

func (c *Client) ChangeContact(ctx context.Context) (*SessionResponse, error) {
	return invoke[Empty, SessionResponse](ctx, c, "ChangeContact", &Empty{})
}

func (c *Client) UpdateAddressField(ctx context.Context, in *UpdateAddressFieldRequest) (*SessionResponse, error) {
	return invoke[UpdateAddressFieldRequest, SessionResponse](ctx, c, "UpdateAddressField", in)
}

func (c *Client) SubmitAddress(ctx context.Context, in *SubmitAddressRequest) (*SessionResponse, error) {
	return invoke[SubmitAddressRequest, SessionResponse](ctx, c, "SubmitAddress", in)
}

func (c *Client) GoBack(ctx context.Context) (*SessionResponse, error) {
	return invoke[Empty, SessionResponse](ctx, c, "GoBack", &Empty{})
}

func (c *Client) SetItems(ctx context.Context, in *SetItemsRequest) (*SessionResponse, error) {
	return invoke[SetItemsRequest, SessionResponse](ctx, c, "SetItems", in)
}

func (c *Client) Quote(ctx context.Context) (*QuoteResponse, error) {
	return invoke[Empty, QuoteResponse](ctx, c, "Quote", &Empty{})
}

func (c *Client) CompletePayment(ctx context.Context) (*SessionResponse, error) {
	return invoke[Empty, SessionResponse](ctx, c, "CompletePayment", &Empty{})
}

func (c *Client) GetOrder(ctx context.Context) (*OrderResponse, error) {
	return invoke[Empty, OrderResponse](ctx, c, "GetOrder", &Empty{})
}

func (c *Client) AbandonCheckout(ctx context.Context) (*MessageResponse, error) {
	return invoke[Empty, MessageResponse](ctx, c, "AbandonCheckout", &Empty{})
}

func (c *Client) ListProducts(ctx context.Context, in *ListProductsRequest) (*ListProductsResponse, error) {
	return invoke[ListProductsRequest, ListProductsResponse](ctx, c, "ListProducts", in)
}

func (c *Client) GetProduct(ctx context.Context, in *GetProductRequest) (*ProductResponse, error) {
	return invoke[GetProductRequest, ProductResponse](ctx, c, "GetProduct", in)
}

func (c *Client) ListCategories(ctx context.Context) (*ListCategoriesResponse, error) {
	return invoke[Empty, ListCategoriesResponse](ctx, c, "ListCategories", &Empty{})
}

// WatchCooldown streams the remaining resend cooldown to fn until the server ends the stream.
func (c *Client) WatchCooldown(ctx context.Context, fn func(*CooldownTick) error) error {
	stream, err := c.cc.NewStream(c.outgoing(ctx), &ServiceDesc.Streams[0], fullMethod("WatchCooldown"), grpc.CallContentSubtype(CodecName))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		tick := new(CooldownTick)
		if err := stream.RecvMsg(tick); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(tick); err != nil {
			return err
		}
	}
}
