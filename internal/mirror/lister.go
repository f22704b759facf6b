package mirror

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/fredngo/s3copy/errors"
	"github.com/fredngo/s3copy/internal/s3api"
)

// lister is the single producer of the pipeline. It paginates the source
// bucket and feeds every key into the queue, blocking whenever the queue
// is at capacity.
type lister struct {
	client  s3api.S3API
	bucket  string
	prefix  string
	queue   *Queue
	tracker *Tracker
	log     *zap.Logger
}

// run paginates until the bucket is exhausted. The queue is closed on every
// exit path, including listing failures, so the workers can never block
// forever on an abandoned queue.
func (l *lister) run(ctx context.Context) error {
	defer l.queue.Close()

	var token *string
	for {
		out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(l.prefix),
			ContinuationToken: token,
			MaxKeys:           aws.Int32(pageSize),
		})
		if err != nil {
			return errors.NewBucketError("list", l.bucket, err)
		}

		if len(out.Contents) == 0 {
			return nil
		}

		for _, obj := range out.Contents {
			if err := l.queue.Enqueue(ctx, aws.ToString(obj.Key)); err != nil {
				return errors.NewBucketError("list", l.bucket, err)
			}
			l.tracker.AddListed(1)
		}

		l.log.Debug("listed page",
			zap.Int("keys", len(out.Contents)),
			zap.Int("queue_depth", l.queue.Depth()),
		)

		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
		token = out.NextContinuationToken
	}
}
