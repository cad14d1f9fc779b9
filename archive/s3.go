// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type (
	// ObjectStore is the read-only view of the archive bucket.
	ObjectStore interface {
		List(ctx context.Context, bucket, prefix string) ([]string, error)
		Get(ctx context.Context, bucket, key string) ([]byte, error)
	}

	// S3API is the part of *s3.Client used by S3Store.
	S3API interface {
		s3.ListObjectsV2APIClient
		GetObject(
			ctx context.Context,
			params *s3.GetObjectInput,
			optFns ...func(*s3.Options),
		) (*s3.GetObjectOutput, error)
	}

	// S3Store reads the public archive bucket without credentials.
	S3Store struct {
		api S3API
	}
)

// DefaultRegion is the region of the public archive bucket.
const DefaultRegion = "us-east-1"

// NewS3Store builds an anonymous S3 client for the region. The bucket is
// public, so no credentials are looked up.
func NewS3Store(
	ctx context.Context,
	region string,
	optFns ...func(*s3.Options),
) (*S3Store, error) {
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, &InvalidArgumentError{
			message: "could not load S3 configuration",
			wrapped: err,
		}
	}
	return NewS3StoreFromAPI(s3.NewFromConfig(cfg, optFns...)), nil
}

// NewS3StoreFromAPI wraps an existing S3 client.
func NewS3StoreFromAPI(api S3API) *S3Store {
	return &S3Store{api: api}
}

// List returns every key under the prefix, following continuation tokens.
func (s *S3Store) List(
	ctx context.Context,
	bucket string,
	prefix string,
) ([]string, error) {
	var keys []string
	pages := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, storeError(bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Get returns the body of one object.
func (s *S3Store) Get(
	ctx context.Context,
	bucket string,
	key string,
) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, storeError(bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storeError(bucket, key, err)
	}
	return data, nil
}

func storeError(bucket, key string, err error) error {
	e := &StoreAccessError{Bucket: bucket, Key: key, wrapped: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
	}
	return e
}
