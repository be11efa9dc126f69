package handler

import (
	"context"
	"fmt"
	"math"

	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// QueryGrpcHandler は gRPC 層から検索ユースケースを呼び出すアダプタです。
type QueryGrpcHandler struct {
	uc query.UseCase
}

var _ QueryServiceServer = (*QueryGrpcHandler)(nil)

// NewQueryGrpcHandler は QueryGrpcHandler を生成します。
func NewQueryGrpcHandler(uc query.UseCase) *QueryGrpcHandler {
	return &QueryGrpcHandler{uc: uc}
}

// Query は検索結果を JSON 文字列として返します。
func (h *QueryGrpcHandler) Query(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	in, err := toQueryInput(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := h.uc.Query(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	payload, err := query.EncodeRows(res.Rows)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.String(payload), nil
}

func toQueryInput(req *structpb.Struct) (query.Input, error) {
	var in query.Input
	fields := req.GetFields()

	var err error
	if in.Table, err = stringField(fields, "table"); err != nil {
		return in, err
	}
	if in.EmployeeID, err = stringField(fields, "employee_id"); err != nil {
		return in, err
	}
	if in.Department, err = stringField(fields, "department"); err != nil {
		return in, err
	}

	if v, ok := fields["limit"]; ok {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_NullValue:
		case *structpb.Value_NumberValue:
			n := kind.NumberValue
			if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
				return in, fmt.Errorf("limit must be an integer")
			}
			in.Limit = int(n)
		default:
			return in, fmt.Errorf("limit must be a number")
		}
	}
	return in, nil
}

func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	default:
		return "", fmt.Errorf("%s must be a string", name)
	}
}
