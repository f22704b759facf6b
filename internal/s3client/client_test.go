package s3client

import (
	"context"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredngo/s3copy/errors"
)

func TestNewFactoryDefaults(t *testing.T) {
	f, err := NewFactory(context.Background(), Config{
		Access: "AKIAEXAMPLE",
		Secret: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", f.cfg.Region)
	assert.Empty(t, f.opts)
}

func TestNewFactoryOptions(t *testing.T) {
	f, err := NewFactory(context.Background(), Config{
		Access:    "AKIAEXAMPLE",
		Secret:    "secret",
		Region:    "eu-west-1",
		Endpoint:  "http://localhost:4566",
		PathStyle: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", f.cfg.Region)
	assert.Len(t, f.opts, 2)
	assert.NotNil(t, f.New())
}

func TestNewFactoryIndependentClients(t *testing.T) {
	f, err := NewFactory(context.Background(), Config{Access: "a", Secret: "s"})
	require.NoError(t, err)

	// Each call mints a distinct client; none is shared across goroutines.
	c1 := f.New()
	c2 := f.New()
	assert.NotSame(t, c1, c2)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"missing bucket", "NoSuchBucket", errors.ErrBucketNotFound},
		{"head not found", "NotFound", errors.ErrBucketNotFound},
		{"forbidden", "Forbidden", errors.ErrAccessDenied},
		{"bad key id", "InvalidAccessKeyId", errors.ErrInvalidCredentials},
		{"bad signature", "SignatureDoesNotMatch", errors.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(&smithy.GenericAPIError{Code: tt.code, Message: tt.name})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		cause := &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}
		err := classify(cause)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}
