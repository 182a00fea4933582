// Package s3 is implementation of blob store over AWS S3 compatible storage.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/yatube-net/yatube/internal/blob"
)

// Options ...
type Options struct {
	Bucket   string
	Region   string
	Endpoint string
	// PublicURL is a base of references returned by Put, e.g. https://bucket.s3.amazonaws.com.
	PublicURL string
}

type store struct {
	u    *s3manager.Uploader
	opts Options
}

// New creates blob store which uploads files to the bucket.
func New(opts Options) (blob.Store, error) {
	cfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}

	if opts.PublicURL == "" {
		opts.PublicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return store{
		u:    s3manager.NewUploader(sess),
		opts: opts,
	}, nil
}

func (s store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if _, err := s.u.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("failed to upload: %w", err)
	}

	return strings.TrimSuffix(s.opts.PublicURL, "/") + "/" + key, nil
}
