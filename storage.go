/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package crewmark

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/internal/apierror"
)

// ProgressFunc receives the number of bytes transferred so far and the total
// expected size. Total is -1 when the size is unknown.
type ProgressFunc func(transferred, total int64)

// ObjectStore abstracts the video file storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, progress ProgressFunc) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// S3ObjectStore stores deliverable files in an S3-compatible bucket.
type S3ObjectStore struct {
	uploader *s3manager.Uploader
	client   *s3.S3
	bucket   string
	endpoint string
}

// NewS3ObjectStore builds an object store from the configured storage section.
func NewS3ObjectStore(conf *config.Configuration) (*S3ObjectStore, error) {
	awsConfig := &aws.Config{
		Region: aws.String(conf.Storage.Region),
	}
	if conf.Storage.Endpoint != "" {
		awsConfig.Endpoint = aws.String(conf.Storage.Endpoint)
		// Custom endpoints (MinIO and friends) need path-style addressing.
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if conf.Storage.AccessKeyId != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(conf.Storage.AccessKeyId, conf.Storage.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrUpstreamUnavailable, "Failed to initialize object storage session", err)
	}

	return &S3ObjectStore{
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
		bucket:   conf.Storage.Bucket,
		endpoint: conf.Storage.Endpoint,
	}, nil
}

// progressReader wraps an upload body and reports transferred bytes.
type progressReader struct {
	reader      io.Reader
	total       int64
	transferred int64
	progress    ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		transferred := atomic.AddInt64(&r.transferred, int64(n))
		if r.progress != nil {
			r.progress(transferred, r.total)
		}
	}
	return n, err
}

// Upload streams body into the bucket under key and returns the object URL.
func (s *S3ObjectStore) Upload(ctx context.Context, key string, body io.Reader, size int64, progress ProgressFunc) (string, error) {
	reader := &progressReader{reader: body, total: size, progress: progress}

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return "", apierror.NewAPIError(apierror.ErrUpstreamUnavailable, "Failed to upload file to object storage", err)
	}
	return s.URL(key), nil
}

// Delete removes an object from the bucket.
func (s *S3ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrUpstreamUnavailable, "Failed to delete file from object storage", err)
	}
	return nil
}

// URL returns the public URL for an object key.
func (s *S3ObjectStore) URL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// BuildObjectKey derives the storage key for one uploaded deliverable file.
// Keys are namespaced by user, campaign, and submission so a listing of any
// prefix reads as that scope's history.
func BuildObjectKey(userID, campaignID, submissionID string, version int, kind, fileName string) string {
	ext := path.Ext(fileName)
	ts := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s/%s/%s/%s_v%d_%s%s", userID, campaignID, submissionID, ts, version, kind, ext)
}
