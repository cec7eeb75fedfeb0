// Package logarchive periodically uploads snapshots of the server log files
// to S3-compatible object storage.
package logarchive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	sc "github.com/dmitrijs2005/trackmeta/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the part of *s3.Client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archiver struct {
	client   ObjectPutter
	bucket   string
	paths    []string
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

// NewS3Client builds an S3 client with static credentials and a custom
// base endpoint (MinIO and friends).
func NewS3Client(ctx context.Context, cfg *sc.Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func NewArchiver(client ObjectPutter, bucket string, interval time.Duration, l logging.Logger, paths ...string) *Archiver {
	return &Archiver{
		client:   client,
		bucket:   bucket,
		paths:    paths,
		interval: interval,
		logger:   l.With("module", "logarchive"),
		now:      time.Now,
	}
}

// Run uploads snapshots every interval until ctx is done, then makes one
// last upload with a short deadline.
func (a *Archiver) Run(ctx context.Context) error {
	if a.interval <= 0 {
		return errors.New("logarchive: interval must be positive")
	}

	t := time.NewTicker(a.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := a.ArchiveOnce(final); err != nil {
				a.logger.Warn(ctx, "final log archive failed", "err", err)
			}
			return nil
		case <-t.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.Warn(ctx, "log archive failed", "err", err)
			}
		}
	}
}

// ArchiveOnce uploads a snapshot of every non-empty log file. Missing files
// are skipped. The first error is returned after all files were tried.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	var firstErr error
	for _, p := range a.paths {
		if err := a.upload(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *Archiver) upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}

	key := a.objectKey(path)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	a.logger.Debug(ctx, "log file archived", "path", path, "key", key, "bytes", len(data))
	return nil
}

func (a *Archiver) objectKey(path string) string {
	d := a.now().UTC()
	return fmt.Sprintf("logs/%d/%02d/%02d/%s-%s", d.Year(), d.Month(), d.Day(), d.Format("150405"), filepath.Base(path))
}
