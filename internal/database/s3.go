package database

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mdouchement/todokernel/internal/config"
	"github.com/pkg/errors"
)

// An S3Client is the subset of the S3 API used by the object store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type objectstore struct {
	client S3Client
	bucket string
}

// S3Open returns a key-value store where every key is an object of the given bucket.
func S3Open(ctx context.Context, cfg config.S3) (KeyValueStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not load S3 configuration")
	}

	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3(client, cfg.Bucket), nil
}

// NewS3 returns a key-value store on top of the given client.
func NewS3(client S3Client, bucket string) KeyValueStore {
	return &objectstore{
		client: client,
		bucket: bucket,
	}
}

// Get returns the value stored under key.
func (c *objectstore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errors.Wrap(ErrNotFound, key)
		}
		return nil, errors.Wrap(err, "could not get object")
	}
	defer out.Body.Close()

	value, err := io.ReadAll(out.Body)
	return value, errors.Wrap(err, "could not read object")
}

// Put inserts or replaces the value stored under key.
func (c *objectstore) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/octet-stream"),
	})
	return errors.Wrap(err, "could not put object")
}

// Delete removes key.
func (c *objectstore) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey(key)),
	})
	return errors.Wrap(err, "could not delete object")
}

// Walk calls fn for every key stored under the given namespace.
func (c *objectstore) Walk(ctx context.Context, namespace string, fn func(key string, value []byte) error) error {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(objectKey(prefix(namespace))),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "could not list objects")
		}

		for _, object := range page.Contents {
			key := "/" + aws.ToString(object.Key)

			value, err := c.Get(ctx, key)
			if IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}

			if err = fn(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close is a no-op, the S3 client is stateless.
func (c *objectstore) Close() error {
	return nil
}

func objectKey(key string) string {
	return strings.TrimPrefix(key, "/")
}
