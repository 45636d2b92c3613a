// Package s3 stores localized images in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/chirino/docsync/internal/config"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	"github.com/chirino/docsync/internal/tempfiles"
)

func init() {
	registryasset.Register(registryasset.Plugin{
		Name:   "s3",
		Loader: load,
	})
}

func load(ctx context.Context) (registryasset.AssetStore, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.S3Bucket == "" {
		return nil, fmt.Errorf("asset/s3: DOCSYNC_S3_BUCKET is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("asset/s3: load AWS config: %w", err)
	}
	usePathStyle := cfg.S3UsePathStyle
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.S3PublicBaseURL), "/")
	if publicBase == "" {
		publicBase = "https://" + cfg.S3Bucket + ".s3.amazonaws.com"
	}
	return &Store{
		client:     client,
		bucket:     cfg.S3Bucket,
		prefix:     strings.Trim(strings.TrimSpace(cfg.S3Prefix), "/"),
		publicBase: publicBase,
		tempDir:    cfg.ResolvedTempDir(),
	}, nil
}

// Store keeps assets as objects named {prefix}/{name}.
type Store struct {
	client     *s3.Client
	bucket     string
	prefix     string
	publicBase string
	tempDir    string
}

func (s *Store) key(name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	key := s.key(name)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("asset/s3: head object: %w", err)
}

func (s *Store) Put(ctx context.Context, name string, data io.Reader, contentType string) error {
	key := s.key(name)

	// PutObject needs a known length; buffer the download on disk first.
	tmp, err := tempfiles.Create(s.tempDir, "docsync-s3-asset-*")
	if err != nil {
		return fmt.Errorf("asset/s3: create temp file: %w", err)
	}
	body := tempfiles.NewDeleteOnClose(tmp)
	defer func() { _ = body.Close() }()

	size, err := io.Copy(tmp, data)
	if err != nil {
		return fmt.Errorf("asset/s3: buffer asset: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("asset/s3: rewind temp file: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	_, err = s.client.PutObject(ctx, input, func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware)
	})
	if err != nil {
		return fmt.Errorf("asset/s3: put object: %w", err)
	}
	return nil
}

func (s *Store) PublicPath(name string) string {
	return s.publicBase + "/" + s.key(name)
}
