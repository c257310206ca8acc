package api

import (
	"errors"

	"github.com/dmitrijs2005/diary/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus maps domain errors to gRPC status errors. Unknown causes become
// codes.Internal and keep their message.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return status.Error(codes.Unauthenticated, common.ErrNotAuthenticated.Error())
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrInvalidMood), errors.Is(err, common.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromStatus is the inverse of ToStatus for the codes the service emits.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	s, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch s.Code() {
	case codes.Unauthenticated:
		if s.Message() == common.ErrNotAuthenticated.Error() {
			return common.ErrNotAuthenticated
		}
		return common.ErrUnauthorized
	case codes.NotFound:
		return common.ErrNotFound
	case codes.AlreadyExists:
		return common.ErrAlreadyExists
	case codes.InvalidArgument:
		return &remoteError{sentinel: common.ErrInvalidArgument, msg: s.Message()}
	default:
		return &remoteError{sentinel: common.ErrInternal, msg: s.Message()}
	}
}

// remoteError keeps the server's message while matching a local sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }
