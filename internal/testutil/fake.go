package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// FakeObject is one object held by FakeS3.
type FakeObject struct {
	Data []byte

	// Grants and Owner model the object ACL. A server-side copy resets
	// them to the bucket default (nil grants, DefaultACL true) until a
	// PutObjectAcl replicates the source policy, mirroring real S3.
	Grants     []types.Grant
	Owner      *types.Owner
	DefaultACL bool
}

// FakeS3 is an in-memory object store implementing the s3api.S3API surface
// used by the pipeline. It is safe for concurrent use and records call
// counts so tests can assert exactly-once processing.
type FakeS3 struct {
	mu      sync.Mutex
	buckets map[string]map[string]*FakeObject

	// Error hooks. When non-nil and returning a non-nil error, the
	// corresponding operation fails with that error.
	ListErr   func(page int) error
	HeadErr   func(key string) error
	CopyErr   func(key string) error
	GetAclErr func(key string) error
	PutAclErr func(key string) error

	listPages int
	copyCount map[string]int
	headCount map[string]int
}

// NewFakeS3 creates an empty fake store.
func NewFakeS3() *FakeS3 {
	return &FakeS3{
		buckets:   make(map[string]map[string]*FakeObject),
		copyCount: make(map[string]int),
		headCount: make(map[string]int),
	}
}

// CreateBucket adds an empty bucket.
func (f *FakeS3) CreateBucket(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[name]; !ok {
		f.buckets[name] = make(map[string]*FakeObject)
	}
}

// Put seeds an object with a non-default ACL owned by "source-owner".
func (f *FakeS3) Put(bucket, key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = make(map[string]*FakeObject)
	}
	owner := &types.Owner{ID: aws.String("source-owner")}
	f.buckets[bucket][key] = &FakeObject{
		Data:  []byte(data),
		Owner: owner,
		Grants: []types.Grant{{
			Grantee:    &types.Grantee{Type: types.TypeCanonicalUser, ID: owner.ID},
			Permission: types.PermissionFullControl,
		}},
	}
}

// Object returns the stored object and whether it exists.
func (f *FakeS3) Object(bucket, key string) (FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return FakeObject{}, false
	}
	return *obj, true
}

// Keys returns the sorted keys of a bucket.
func (f *FakeS3) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.buckets[bucket] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CopyCalls returns how many times the given destination key was copied.
func (f *FakeS3) CopyCalls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyCount[key]
}

// HeadCalls returns how many times the given key was HEADed.
func (f *FakeS3) HeadCalls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headCount[key]
}

// ListObjectsV2 lists a page of keys in sorted order. The continuation
// token is the last key of the previous page.
func (f *FakeS3) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listPages++
	if f.ListErr != nil {
		if err := f.ListErr(f.listPages); err != nil {
			return nil, err
		}
	}

	bucket, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}

	prefix := aws.ToString(params.Prefix)
	var keys []string
	for key := range bucket {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if after := aws.ToString(params.ContinuationToken); after != "" {
		idx := sort.SearchStrings(keys, after)
		if idx < len(keys) && keys[idx] == after {
			idx++
		}
		keys = keys[idx:]
	}

	max := 1000
	if params.MaxKeys != nil && *params.MaxKeys > 0 {
		max = int(*params.MaxKeys)
	}
	truncated := len(keys) > max
	if truncated {
		keys = keys[:max]
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if truncated {
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	return out, nil
}

// HeadObject reports object existence, returning *types.NotFound for
// missing keys the way the AWS SDK does.
func (f *FakeS3) HeadObject(
	ctx context.Context,
	params *s3.HeadObjectInput,
	optFns ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(params.Key)
	f.headCount[key]++

	if f.HeadErr != nil {
		if err := f.HeadErr(key); err != nil {
			return nil, err
		}
	}

	obj, ok := f.buckets[aws.ToString(params.Bucket)][key]
	if !ok {
		return nil, &types.NotFound{}
	}
	size := int64(len(obj.Data))
	return &s3.HeadObjectOutput{ContentLength: &size}, nil
}

// HeadBucket reports bucket existence.
func (f *FakeS3) HeadBucket(
	ctx context.Context,
	params *s3.HeadBucketInput,
	optFns ...func(*s3.Options),
) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

// CopyObject performs a server-side copy. The destination object gets the
// bucket-default ACL; replicating the source ACL requires PutObjectAcl.
func (f *FakeS3) CopyObject(
	ctx context.Context,
	params *s3.CopyObjectInput,
	optFns ...func(*s3.Options),
) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dstKey := aws.ToString(params.Key)
	f.copyCount[dstKey]++

	if f.CopyErr != nil {
		if err := f.CopyErr(dstKey); err != nil {
			return nil, err
		}
	}

	parts := strings.SplitN(aws.ToString(params.CopySource), "/", 2)
	if len(parts) != 2 {
		return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "malformed copy source"}
	}
	src, ok := f.buckets[parts[0]][parts[1]]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	dstBucket, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}

	data := make([]byte, len(src.Data))
	copy(data, src.Data)
	dstBucket[dstKey] = &FakeObject{Data: data, DefaultACL: true}

	return &s3.CopyObjectOutput{}, nil
}

// GetObjectAcl returns the ACL of an object.
func (f *FakeS3) GetObjectAcl(
	ctx context.Context,
	params *s3.GetObjectAclInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectAclOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(params.Key)
	if f.GetAclErr != nil {
		if err := f.GetAclErr(key); err != nil {
			return nil, err
		}
	}

	obj, ok := f.buckets[aws.ToString(params.Bucket)][key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectAclOutput{Grants: obj.Grants, Owner: obj.Owner}, nil
}

// PutObjectAcl applies an ACL to an object.
func (f *FakeS3) PutObjectAcl(
	ctx context.Context,
	params *s3.PutObjectAclInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectAclOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(params.Key)
	if f.PutAclErr != nil {
		if err := f.PutAclErr(key); err != nil {
			return nil, err
		}
	}

	obj, ok := f.buckets[aws.ToString(params.Bucket)][key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	if params.AccessControlPolicy != nil {
		obj.Grants = params.AccessControlPolicy.Grants
		obj.Owner = params.AccessControlPolicy.Owner
	}
	obj.DefaultACL = false
	return &s3.PutObjectAclOutput{}, nil
}
