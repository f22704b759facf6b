package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op only",
			err:  NewError("list", cause),
			want: "s3copy.list: boom",
		},
		{
			name: "with bucket",
			err:  NewBucketError("list", "photos", cause),
			want: "s3copy.list bucket photos: boom",
		},
		{
			name: "with bucket and key",
			err:  NewObjectError("copy", "photos", "2024/a.jpg", cause),
			want: "s3copy.copy photos/2024/a.jpg: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewObjectError("copy", "b", "k", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestSentinelHelpers(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrObjectNotFound)
	assert.True(t, IsObjectNotFound(wrapped))
	assert.False(t, IsObjectNotFound(errors.New("other")))

	assert.True(t, IsBucketNotFound(NewBucketError("validate", "b", ErrBucketNotFound)))
	assert.True(t, IsAccessDenied(fmt.Errorf("x: %w", ErrAccessDenied)))
}
