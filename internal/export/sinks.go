package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// FileSink writes exports into a local directory.
type FileSink struct {
	Dir string
}

// Save writes data to Dir/name, picking "name (n).ext" if that file exists.
func (s FileSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	target, err := resolveFileNameConflict(filepath.Join(dir, filepath.Base(name)))
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	logrus.Infof("Result saved to %s", target)
	return target, nil
}

// resolveFileNameConflict returns originalPath, or the first free
// "name (n).ext" next to it.
func resolveFileNameConflict(originalPath string) (string, error) {
	if _, err := os.Stat(originalPath); os.IsNotExist(err) {
		return originalPath, nil
	}

	ext := filepath.Ext(originalPath)
	baseName := originalPath[:len(originalPath)-len(ext)]

	for i := 1; i < 1000; i++ {
		newPath := fmt.Sprintf("%s (%d)%s", baseName, i, ext)
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath, nil
		}
	}

	return "", fmt.Errorf("no free file name for %s", originalPath)
}

// ClipboardSink copies exports to the system clipboard.
type ClipboardSink struct {
	// write defaults to clipboard.WriteAll.
	write func(string) error
}

func (s ClipboardSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	write := s.write
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(string(data)); err != nil {
		return "", fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return "clipboard", nil
}

// ObjectPutter is the part of the S3 client R2Sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Sink archives exports in an R2 bucket.
type R2Sink struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

func (s R2Sink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if s.Client == nil {
		return "", fmt.Errorf("archive storage is not configured")
	}

	key := path.Join(s.Prefix, name)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive result to %s/%s: %w", s.Bucket, key, err)
	}

	location := fmt.Sprintf("r2://%s/%s", s.Bucket, key)
	logrus.Infof("Result archived to %s", location)
	return location, nil
}
