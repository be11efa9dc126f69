package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case query.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, query.Message(err))
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, query.Message(err))
	}
}
