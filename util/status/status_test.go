package status_test

import (
	"errors"
	"testing"

	"github.com/spawnkit-io/spawnkit/util/status"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	gstatus "google.golang.org/grpc/status"
)

func TestStatusIs(t *testing.T) {
	innerErr := errors.New("inner error")
	err := status.UnknownErrorf("Unknown: %w", innerErr)
	assert.True(t, status.IsUnknownError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.InvalidArgumentErrorf("InvalidArgument: %w", innerErr)
	assert.True(t, status.IsInvalidArgumentError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.NotFoundErrorf("NotFound: %w", innerErr)
	assert.True(t, status.IsNotFoundError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.AlreadyExistsErrorf("AlreadyExists: %w", innerErr)
	assert.True(t, status.IsAlreadyExistsError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.FailedPreconditionErrorf("FailedPrecondition: %w", innerErr)
	assert.True(t, status.IsFailedPreconditionError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.UnimplementedErrorf("Unimplemented: %w", innerErr)
	assert.True(t, status.IsUnimplementedError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.InternalErrorf("Internal: %w", innerErr)
	assert.True(t, status.IsInternalError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.UnavailableErrorf("Unavailable: %w", innerErr)
	assert.True(t, status.IsUnavailableError(err))
	assert.True(t, errors.Is(err, innerErr))
}

func TestWrapError(t *testing.T) {
	inner := status.InvalidArgumentError("bad input")
	wrapped := status.WrapError(inner, "while expanding")
	assert.True(t, status.IsInvalidArgumentError(wrapped))
	assert.Contains(t, wrapped.Error(), "while expanding")
	assert.Contains(t, wrapped.Error(), "bad input")

	assert.Nil(t, status.WrapError(nil, "ignored"))
}

func TestWrapWithCode(t *testing.T) {
	inner := errors.New("plain")
	err := status.WrapWithCode(inner, codes.Unavailable)
	assert.Equal(t, codes.Unavailable, gstatus.Code(err))
	assert.True(t, errors.Is(err, inner))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", status.Message(nil))
	assert.Equal(t, "boom", status.Message(status.InternalError("boom")))
	assert.Equal(t, "plain", status.Message(errors.New("plain")))
}
