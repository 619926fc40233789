package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorMapping struct {
	target error
	code   codes.Code
	msg    string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{common.ErrInvalidCredentials, codes.Unauthenticated, "invalid credentials"},
	{common.ErrTokenInvalid, codes.Unauthenticated, "invalid token"},
	{common.ErrInvalidMasterPassword, codes.PermissionDenied, "invalid master password"},
	{common.ErrMfaRequired, codes.FailedPrecondition, "mfa code required"},
	{common.ErrInvalidMfaCode, codes.PermissionDenied, "invalid mfa code"},
	{common.ErrMfaVerificationFailed, codes.PermissionDenied, "mfa verification failed"},
	{common.ErrAuthenticationFailed, codes.PermissionDenied, "authentication failed"},
	{common.ErrMalformedRecord, codes.DataLoss, "malformed record"},
	{common.ErrMfaNotPending, codes.FailedPrecondition, "mfa enrollment not started"},
	{common.ErrMfaAlreadyEnabled, codes.FailedPrecondition, "mfa already enabled"},
	{common.ErrMfaNotEnabled, codes.FailedPrecondition, "mfa not enabled"},
	{common.ErrMasterPasswordRequired, codes.InvalidArgument, "master password required"},
	{common.ErrorNotFound, codes.NotFound, "not found"},
	{common.ErrDerivationBusy, codes.ResourceExhausted, "server busy, retry later"},
}

// toStatus converts a service error to a gRPC status. Only validation and
// conflict messages reach the caller verbatim; they describe the caller's
// own input.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return status.Error(m.code, m.msg)
		}
	}

	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
