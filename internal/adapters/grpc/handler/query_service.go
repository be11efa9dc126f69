package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// QueryServiceName は検索サービスの完全修飾名です。
	QueryServiceName = "hrdb.v1.QueryService"
	// QueryFullMethod は Query RPC のメソッド名です。
	QueryFullMethod = "/" + QueryServiceName + "/Query"
)

// QueryServiceServer は検索サービスのサーバー側インターフェースです。
// リクエストは google.protobuf.Struct、レスポンスは JSON 文字列を持つ google.protobuf.StringValue です。
type QueryServiceServer interface {
	Query(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
}

// QueryServiceDesc は検索サービスの grpc.ServiceDesc です。
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: QueryServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Query",
			Handler:    queryServiceQueryHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hrdb/v1/query.proto",
}

// RegisterQueryServiceServer は srv を s に登録します。
func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

func queryServiceQueryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: QueryFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).Query(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// QueryServiceClient は検索サービスのクライアントです。
type QueryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryServiceClient は QueryServiceClient を生成します。
func NewQueryServiceClient(cc grpc.ClientConnInterface) *QueryServiceClient {
	return &QueryServiceClient{cc: cc}
}

// Query は Query RPC を呼び出します。
func (c *QueryServiceClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, QueryFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
