// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sondehub/sondehub-go/archive"
	"github.com/stretchr/testify/require"
)

type s3Stub struct {
	objects map[string]string
	prefix  string
}

func (s *s3Stub) ListObjectsV2(
	_ context.Context,
	in *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	if aws.ToString(in.Bucket) != archive.DefaultBucket {
		return nil, &smithy.GenericAPIError{
			Code:    "NoSuchBucket",
			Message: "The specified bucket does not exist",
		}
	}
	s.prefix = aws.ToString(in.Prefix)

	out := &s3.ListObjectsV2Output{}
	for key := range s.objects {
		if strings.HasPrefix(key, s.prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (s *s3Stub) GetObject(
	_ context.Context,
	in *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	data, ok := s.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{
			Code:    "AccessDenied",
			Message: "Access Denied",
		}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader([]byte(data))),
	}, nil
}

func TestS3Store(t *testing.T) {
	stub := &s3Stub{objects: map[string]string{
		"serial/S1234567.json.gz": `{"serial":"S1234567"}`,
		"date/2021/03/01/A.json":  `{"serial":"A"}`,
	}}
	store := archive.NewS3StoreFromAPI(stub)

	keys, err := store.List(context.Background(), archive.DefaultBucket, "serial/")
	require.NoError(t, err)
	require.Equal(t, []string{"serial/S1234567.json.gz"}, keys)
	require.Equal(t, "serial/", stub.prefix)

	data, err := store.Get(context.Background(), archive.DefaultBucket, keys[0])
	require.NoError(t, err)
	require.Equal(t, `{"serial":"S1234567"}`, string(data))

	f := archive.NewFetcher(store)
	records, err := f.FetchSerial(context.Background(), "S1234567")
	require.NoError(t, err)
	require.Equal(t, []archive.Record{{"serial": "S1234567"}}, records)
}

func TestS3StoreErrorCodes(t *testing.T) {
	store := archive.NewS3StoreFromAPI(&s3Stub{})

	var accessErr *archive.StoreAccessError

	_, err := store.List(context.Background(), "missing", "date/")
	require.ErrorAs(t, err, &accessErr)
	require.Equal(t, "NoSuchBucket", accessErr.Code)
	require.Equal(t, "missing", accessErr.Bucket)

	_, err = store.Get(context.Background(), archive.DefaultBucket, "date/x")
	require.ErrorAs(t, err, &accessErr)
	require.Equal(t, "AccessDenied", accessErr.Code)
	require.Equal(t, "date/x", accessErr.Key)
}
