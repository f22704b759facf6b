package mirror

import (
	"context"
	goerrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/fredngo/s3copy/errors"
	"github.com/fredngo/s3copy/internal/s3api"
)

// worker consumes keys from the queue and applies the copy-or-skip policy
// until the queue is closed and drained. Each worker owns its own client.
type worker struct {
	id      int
	client  s3api.S3API
	cfg     Config
	queue   *Queue
	tracker *Tracker
	log     *zap.Logger
}

// run processes keys until the queue closes. The first failed key ends the
// loop and is reported as this worker's outcome; the key is not re-enqueued
// and the remaining workers keep draining the queue.
func (w *worker) run(ctx context.Context) error {
	for key := range w.queue.Items() {
		if err := w.process(ctx, key); err != nil {
			return err
		}
	}
	w.log.Debug("worker drained", zap.Int("worker", w.id))
	return nil
}

func (w *worker) process(ctx context.Context, key string) error {
	if !w.cfg.Clobber {
		found, err := w.destinationExists(ctx, key)
		if err != nil {
			if w.cfg.StrictExists {
				return errors.NewObjectError("head", w.cfg.Dest, key, err)
			}
			// Lenient mode: an undiagnosable HEAD failure counts as absent
			// and the key is copied.
			w.log.Warn("existence check failed, treating key as absent",
				zap.Int("worker", w.id),
				zap.String("key", key),
				zap.Error(err),
			)
			found = false
		}
		if found {
			w.tracker.AddSkipped()
			w.log.Debug("skipped", zap.Int("worker", w.id), zap.String("key", key))
			return nil
		}
	}

	if err := w.copyWithACL(ctx, key); err != nil {
		return err
	}
	w.tracker.AddCopied()
	w.log.Debug("copied", zap.Int("worker", w.id), zap.String("key", key))
	return nil
}

// destinationExists reports whether the key is already present in the
// destination bucket. Not-found is distinguished from every other HEAD
// failure so the caller can pick a policy for the error arm.
func (w *worker) destinationExists(ctx context.Context, key string) (bool, error) {
	_, err := w.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(w.cfg.Dest),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiError smithy.APIError
		if goerrors.As(err, &apiError) {
			switch apiError.(type) {
			case *types.NotFound:
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// copyWithACL replicates one object: fetch the source ACL, server-side copy
// the bytes, then apply the ACL to the destination. The sequence is not
// atomic; a failure after CopyObject leaves the destination object present
// with a default ACL.
func (w *worker) copyWithACL(ctx context.Context, key string) error {
	acl, err := w.client.GetObjectAcl(ctx, &s3.GetObjectAclInput{
		Bucket: aws.String(w.cfg.Source),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.NewObjectError("getAcl", w.cfg.Source, key, err)
	}

	copySource := w.cfg.Source + "/" + key
	_, err = w.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(w.cfg.Dest),
		Key:        aws.String(key),
		CopySource: aws.String(copySource),
	})
	if err != nil {
		return errors.NewObjectError("copy", w.cfg.Dest, key, err)
	}

	_, err = w.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(w.cfg.Dest),
		Key:    aws.String(key),
		AccessControlPolicy: &types.AccessControlPolicy{
			Grants: acl.Grants,
			Owner:  acl.Owner,
		},
	})
	if err != nil {
		return errors.NewObjectError("putAcl", w.cfg.Dest, key, err)
	}

	return nil
}
