package api

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/mmynk/stepsquad/internal/apperr"
)

// CodeOf maps a domain error kind to its Connect code.
func CodeOf(kind apperr.Kind) connect.Code {
	switch kind {
	case apperr.KindValidation:
		return connect.CodeInvalidArgument
	case apperr.KindNotFound:
		return connect.CodeNotFound
	case apperr.KindAuthorization:
		return connect.CodePermissionDenied
	case apperr.KindConflict:
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

// toConnectError converts a service error. Domain errors keep only their
// message; anything else is internal.
func toConnectError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return connect.NewError(CodeOf(appErr.Kind), errors.New(appErr.Message))
	}
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
