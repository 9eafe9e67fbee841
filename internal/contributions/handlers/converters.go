package handlers

import (
	"context"
	"errors"

	e "github.com/gartstein/contributions/internal/contributions/errors"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "contributions.v1"

// Reasons attached to error statuses as errdetails.ErrorInfo.
const (
	ReasonNotFound          = "NOT_FOUND"
	ReasonDuplicateKey      = "DUPLICATE_KEY"
	ReasonDanglingReference = "DANGLING_REFERENCE"
	ReasonHasDependents     = "HAS_DEPENDENTS"
	ReasonInvalidInput      = "INVALID_INPUT"
)

// mapServiceError maps domain or repository errors to gRPC statuses carrying
// an ErrorInfo detail with a stable reason.
func (h *ContributionHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return withReason(codes.NotFound, err, ReasonNotFound)
	case errors.Is(err, e.ErrDuplicateKey):
		return withReason(codes.AlreadyExists, err, ReasonDuplicateKey)
	case errors.Is(err, e.ErrDanglingReference):
		return withReason(codes.FailedPrecondition, err, ReasonDanglingReference)
	case errors.Is(err, e.ErrHasDependents):
		return withReason(codes.FailedPrecondition, err, ReasonHasDependents)
	case errors.Is(err, e.ErrInvalidInput):
		return withReason(codes.InvalidArgument, err, ReasonInvalidInput)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}

func withReason(code codes.Code, err error, reason string) error {
	st := status.New(code, err.Error())
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: errorDomain,
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf returns the ErrorInfo reason carried by a status error, or ""
// when there is none.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}
