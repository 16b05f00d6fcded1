package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"already sending is a conflict", ErrAlreadySending, ErrConflict},
		{"missing message is not found", ErrMessageNotFound, ErrNotFound},
		{"password mismatch is validation", ErrPasswordMismatch, ErrValidation},
		{"non member is permission", ErrNotMember, ErrPermission},
		{"wrapped subscription close is network", fmt.Errorf("pump: %w", ErrSubscriptionClosed), ErrNetwork},
		{"plain error has no kind", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestNetwork_WrapsOnlyUnclassifiedErrors(t *testing.T) {
	req := require.New(t)

	err := Network("fetch page", errors.New("connection reset"))
	req.ErrorIs(err, ErrNetwork)
	req.True(IsRetryable(err))

	err = Network("delete", ErrMessageNotFound)
	req.ErrorIs(err, ErrNotFound)
	req.NotErrorIs(err, ErrNetwork)

	req.NoError(Network("noop", nil))
}

func TestGRPCMapping_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		kind error
	}{
		{"not found", ErrMessageNotFound, codes.NotFound, ErrNotFound},
		{"validation", ErrEmptyMessage, codes.InvalidArgument, ErrValidation},
		{"conflict", ErrMessageExists, codes.AlreadyExists, ErrConflict},
		{"already sending", ErrAlreadySending, codes.FailedPrecondition, ErrConflict},
		{"permission", ErrNotMember, codes.PermissionDenied, ErrPermission},
		{"unauthenticated", ErrInvalidCredentials, codes.Unauthenticated, ErrPermission},
		{"network", ErrBackendUnavailable, codes.Unavailable, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			mapped := MapToGRPCError(tt.err)
			st, ok := status.FromError(mapped)
			req.True(ok)
			req.Equal(tt.code, st.Code())

			back := FromGRPCError(mapped)
			req.ErrorIs(back, tt.kind)
		})
	}
}

func TestFromGRPCError_NonStatusIsNetwork(t *testing.T) {
	req := require.New(t)
	err := FromGRPCError(errors.New("dial tcp: refused"))
	req.ErrorIs(err, ErrNetwork)
	req.NoError(FromGRPCError(nil))
	req.NoError(MapToGRPCError(nil))
}
