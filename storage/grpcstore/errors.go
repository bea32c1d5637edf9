package grpcstore

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/nameres/storage"
)

// Storage sentinels and the status codes that carry them. FailedPrecondition
// is shared, so the message decides which sentinel it was.
var sentinels = []struct {
	err  error
	code codes.Code
}{
	{storage.ErrNotFound, codes.NotFound},
	{storage.ErrInvalidCID, codes.InvalidArgument},
	{storage.ErrCIDMismatch, codes.DataLoss},
	{storage.ErrAlreadyExists, codes.AlreadyExists},
	{storage.ErrVersionConflict, codes.Aborted},
	{storage.ErrEmptyContent, codes.FailedPrecondition},
	{storage.ErrImmutable, codes.FailedPrecondition},
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, s.err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	// Prefer an exact message match, then fall back to the code alone.
	for _, s := range sentinels {
		if st.Code() == s.code && st.Message() == s.err.Error() {
			return s.err
		}
	}
	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrAlreadyExists
	case codes.Aborted:
		return storage.ErrVersionConflict
	default:
		return err
	}
}
