// Package s3client builds AWS S3 clients for the replication pipeline.
//
// Every goroutine in the pipeline (the lister and each worker) gets its own
// client so that no HTTP connection pool is shared across goroutines.
package s3client

import (
	"context"
	goerrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/fredngo/s3copy/errors"
	"github.com/fredngo/s3copy/internal/s3api"
)

// Config holds everything needed to construct S3 clients for a run.
type Config struct {
	// Access is the AWS access key id
	Access string

	// Secret is the AWS secret access key
	Secret string

	// Region is the AWS region. Defaults to us-east-1 when empty.
	Region string

	// Endpoint overrides the S3 endpoint URL. Used for S3-compatible
	// services and local testing.
	Endpoint string

	// PathStyle forces path-style addressing instead of virtual-hosted
	// style. Required by most S3-compatible services.
	PathStyle bool
}

// Factory mints independent S3 clients from a shared immutable Config.
type Factory struct {
	cfg aws.Config
	opts []func(*s3.Options)
}

// NewFactory resolves the AWS configuration once and returns a factory
// whose New method is cheap to call per goroutine.
func NewFactory(ctx context.Context, cfg Config) (*Factory, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1" // AWS default region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Access, cfg.Secret, ""),
		),
	)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.PathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Factory{cfg: awsCfg, opts: opts}, nil
}

// New returns a fresh S3 client. Each call creates an independent client
// with its own connection pool.
func (f *Factory) New() s3api.S3API {
	return s3.NewFromConfig(f.cfg, f.opts...)
}

// Validate checks the credentials and both buckets before any work begins.
// It performs a HeadBucket against each bucket with a dedicated client.
func (f *Factory) Validate(ctx context.Context, buckets ...string) error {
	client := f.New()

	for _, bucket := range buckets {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(bucket),
		})
		if err != nil {
			return errors.NewBucketError("validate", bucket, classify(err))
		}
	}
	return nil
}

// classify maps AWS API errors onto the package sentinel errors while
// keeping the original error in the chain.
func classify(err error) error {
	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return goerrors.Join(errors.ErrBucketNotFound, err)
		case "Forbidden", "AccessDenied":
			return goerrors.Join(errors.ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "UnrecognizedClientException":
			return goerrors.Join(errors.ErrInvalidCredentials, err)
		}
	}
	return err
}
