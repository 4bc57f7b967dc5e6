// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package artifact

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// S3Store keeps artifacts in an S3 bucket. A non-empty endpoint
// switches to path-style addressing for S3-compatible object stores.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, bucket, region, endpoint string) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.NewValidationError("s3 artifact store requires a bucket")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.WrapError(err, "load aws config", errors.CodeInitializeError)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errors.WrapError(err, "put s3 artifact "+key, errors.CodeTransientExternal)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) Fetch(ctx context.Context, uri string) ([]byte, error) {
	key, err := s.key(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.WrapError(err, "get s3 artifact "+key, errors.CodeTransientExternal)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.WrapError(err, "read s3 artifact "+key, errors.CodeTransientExternal)
	}
	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, uri string) error {
	key, err := s.key(uri)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.WrapError(err, "delete s3 artifact "+key, errors.CodeTransientExternal)
	}
	return nil
}

func (s *S3Store) key(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "s3://"+s.bucket+"/")
	if !ok {
		return "", errors.NewValidationError("artifact uri " + uri + " not in bucket " + s.bucket)
	}
	return rest, nil
}
