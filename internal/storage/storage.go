package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store keeps uploaded images and hands back their public URL.
type Store interface {
	Store(ctx context.Context, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, urlOrPublicID string) (bool, error)
}

type S3Store struct {
	client    *s3.Client
	bucket    string
	folder    string
	publicURL string
}

// NewS3Store creates a store backed by an S3 compatible bucket. publicURL is the base
// under which stored objects are publicly reachable.
func NewS3Store(ctx context.Context, endpoint, region, bucket, accessKey, secretKey, publicURL string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("could not load storage config: %w", err)
	}

	endpoint = strings.TrimSuffix(endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:    client,
		bucket:    bucket,
		folder:    "quill",
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *S3Store) Store(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key := s.folder + "/" + uuid.NewString()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not store object %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes the object behind a public URL or public ID.
func (s *S3Store) Delete(ctx context.Context, urlOrPublicID string) (bool, error) {
	key := PublicID(urlOrPublicID)
	if key == "" {
		return false, nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("could not delete object %s: %w", key, err)
	}

	return true, nil
}

// PublicID extracts the object id from a public URL: the last two path segments
// with the file extension stripped.
func PublicID(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}
	if len(segments) > 2 {
		segments = segments[len(segments)-2:]
	}

	last := segments[len(segments)-1]
	segments[len(segments)-1] = strings.TrimSuffix(last, path.Ext(last))

	return strings.Join(segments, "/")
}

// Release deletes a previously stored image on a best-effort basis. Failures are logged
// and never returned, the primary record stays the source of truth.
func Release(ctx context.Context, s Store, logger *slog.Logger, url *string) {
	if s == nil || url == nil || *url == "" {
		return
	}

	ok, err := s.Delete(ctx, *url)
	if err != nil {
		logger.Warn("could not release image", slog.String("url", *url), slog.String("error", err.Error()))
		return
	}
	if !ok {
		logger.Warn("image was not released", slog.String("url", *url))
	}
}
