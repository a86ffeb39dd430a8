package rpcapi

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "cachequorum.v1.Replica"

	methodRead   = "Read"
	methodWrite  = "Write"
	methodRemove = "Remove"
)

// Status values carried in Response.Status.
const (
	StatusOK       = "OK"
	StatusNotFound = "NOT_FOUND"
	StatusError    = "ERROR"
)

const (
	fieldKey     = "key"
	fieldValue   = "value"
	fieldStatus  = "status"
	fieldMessage = "message"
)

// Request is the payload of every replica call. Value is ignored by Read and Remove.
type Request struct {
	Key   uint64
	Value string
}

// Response is what a replica answers.
type Response struct {
	Status  string
	Value   string
	Message string
}

// EncodeRequest packs r into a Struct. Keys are sent as decimal strings so
// the full uint64 range survives the float64 number encoding.
func EncodeRequest(r Request) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKey:   structpb.NewStringValue(strconv.FormatUint(r.Key, 10)),
		fieldValue: structpb.NewStringValue(r.Value),
	}}
}

// DecodeRequest unpacks a Struct produced by EncodeRequest.
func DecodeRequest(s *structpb.Struct) (Request, error) {
	f := s.GetFields()
	raw := f[fieldKey].GetStringValue()
	key, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Request{}, fmt.Errorf("invalid key %q: %w", raw, err)
	}
	return Request{Key: key, Value: f[fieldValue].GetStringValue()}, nil
}

// EncodeResponse packs r into a Struct.
func EncodeResponse(r Response) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldStatus:  structpb.NewStringValue(r.Status),
		fieldValue:   structpb.NewStringValue(r.Value),
		fieldMessage: structpb.NewStringValue(r.Message),
	}}
}

// DecodeResponse unpacks a Struct produced by EncodeResponse.
func DecodeResponse(s *structpb.Struct) Response {
	f := s.GetFields()
	return Response{
		Status:  f[fieldStatus].GetStringValue(),
		Value:   f[fieldValue].GetStringValue(),
		Message: f[fieldMessage].GetStringValue(),
	}
}

// ReplicaServer is implemented by anything that serves the replica service.
type ReplicaServer interface {
	Read(ctx context.Context, req Request) (Response, error)
	Write(ctx context.Context, req Request) (Response, error)
	Remove(ctx context.Context, req Request) (Response, error)
}

type serverCall func(srv ReplicaServer, ctx context.Context, req Request) (Response, error)

func handler(method string, call serverCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		invoke := func(ctx context.Context, msg any) (any, error) {
			req, err := DecodeRequest(msg.(*structpb.Struct))
			if err != nil {
				return EncodeResponse(Response{Status: StatusError, Message: err.Error()}), nil
			}
			resp, err := call(srv.(ReplicaServer), ctx, req)
			if err != nil {
				return nil, err
			}
			return EncodeResponse(resp), nil
		}
		if interceptor == nil {
			return invoke(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, in, info, invoke)
	}
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ServiceDesc describes the replica service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReplicaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodRead, Handler: handler(methodRead, ReplicaServer.Read)},
		{MethodName: methodWrite, Handler: handler(methodWrite, ReplicaServer.Write)},
		{MethodName: methodRemove, Handler: handler(methodRemove, ReplicaServer.Remove)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cachequorum/v1/replica",
}

// RegisterReplicaServer registers srv on s.
func RegisterReplicaServer(s grpc.ServiceRegistrar, srv ReplicaServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the replica service over cc.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req Request, opts ...grpc.CallOption) (Response, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), EncodeRequest(req), out, opts...); err != nil {
		return Response{}, err
	}
	return DecodeResponse(out), nil
}

func (c *Client) Read(ctx context.Context, key uint64, opts ...grpc.CallOption) (Response, error) {
	return c.invoke(ctx, methodRead, Request{Key: key}, opts...)
}

func (c *Client) Write(ctx context.Context, key uint64, value string, opts ...grpc.CallOption) (Response, error) {
	return c.invoke(ctx, methodWrite, Request{Key: key, Value: value}, opts...)
}

func (c *Client) Remove(ctx context.Context, key uint64, opts ...grpc.CallOption) (Response, error) {
	return c.invoke(ctx, methodRemove, Request{Key: key}, opts...)
}
