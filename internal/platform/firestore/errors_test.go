package firestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{codes.NotFound, true, false, false},
		{codes.Aborted, false, true, false},
		{codes.AlreadyExists, false, true, false},
		{codes.Unavailable, false, false, true},
		{codes.ResourceExhausted, false, false, true},
		{codes.PermissionDenied, false, false, false},
	}
	for _, tc := range cases {
		err := WrapError("kv.get", status.Error(tc.code, "boom"))
		var fsErr *Error
		require.ErrorAs(t, err, &fsErr)
		require.Equal(t, tc.notFound, fsErr.IsNotFound(), tc.code.String())
		require.Equal(t, tc.conflict, fsErr.IsConflict(), tc.code.String())
		require.Equal(t, tc.unavailable, fsErr.IsUnavailable(), tc.code.String())
		require.Contains(t, err.Error(), "kv.get")
	}
}

func TestWrapErrorPassesContextErrors(t *testing.T) {
	require.NoError(t, WrapError("op", nil))
	require.ErrorIs(t, WrapError("op", context.Canceled), context.Canceled)
	require.ErrorIs(t, WrapError("op", status.Error(codes.DeadlineExceeded, "late")), context.DeadlineExceeded)
}

func TestWrapErrorKeepsExistingClassification(t *testing.T) {
	first := WrapError("", status.Error(codes.NotFound, "missing"))
	second := WrapError("kv.get", first)
	var fsErr *Error
	require.True(t, errors.As(second, &fsErr))
	require.True(t, fsErr.IsNotFound())
	require.Contains(t, second.Error(), "kv.get")
}

func TestWrapErrorPlainErrorIsUnavailable(t *testing.T) {
	err := WrapError("kv.put", errors.New("dial failed"))
	var fsErr *Error
	require.ErrorAs(t, err, &fsErr)
	require.True(t, fsErr.IsUnavailable())
}
