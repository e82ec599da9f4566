package storage

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// deleteBatchSize is the S3 DeleteObjects per-request limit.
const deleteBatchSize = 1000

// S3Store is an ObjectStore backed by one S3 bucket.
type S3Store struct {
	bucket     string
	client     *s3.S3
	downloader *s3manager.Downloader
	uploader   *s3manager.Uploader
}

// Credentials are the static credentials injected into the client; no
// values are read from the process environment.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// NewS3Store builds a store for one bucket with explicitly supplied
// credentials.
func NewS3Store(creds Credentials, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(creds.Region),
		Credentials: credentials.NewStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3Store{
		bucket:     bucket,
		client:     s3.New(sess),
		downloader: s3manager.NewDownloader(sess),
		uploader:   s3manager.NewUploader(sess),
	}, nil
}

// Bucket returns the bucket this store operates on.
func (s *S3Store) Bucket() string { return s.bucket }

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.client.ListObjectsV2PagesWithContext(ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, *obj.Key)
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	buf := &aws.WriteAtBuffer{}
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", s.bucket, key, err)
	}
	return buf.Bytes(), nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, meta map[string]string) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if len(meta) > 0 {
		input.Metadata = make(map[string]*string, len(meta))
		for k, v := range meta {
			input.Metadata[k] = aws.String(v)
		}
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		objects := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
		}
		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("deleting under s3://%s/%s: %w", s.bucket, prefix, err)
		}
		deleted += end - start - len(out.Errors)
		// With Quiet set the request succeeds even when individual keys
		// fail; a survivor here would merge stale output into the new run.
		if err := deleteBatchError(s.bucket, prefix, out.Errors); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// deleteBatchError folds the per-key failures of a DeleteObjects response
// into a single error.
func deleteBatchError(bucket, prefix string, errs []*s3.Error) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fmt.Errorf("deleting under s3://%s/%s: %d objects not deleted, first %s: %s: %s",
		bucket, prefix, len(errs),
		aws.StringValue(first.Key), aws.StringValue(first.Code), aws.StringValue(first.Message))
}
