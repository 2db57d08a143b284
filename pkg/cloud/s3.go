package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archiveSuffix = ".zip"

// S3API is the slice of the S3 client used by the archive store.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectStore lists and fetches scenario archives for a symbol.
type ObjectStore interface {
	ListArchives(ctx context.Context, symbol string) ([]string, error)
	Download(ctx context.Context, key, dest string) error
}

type objectStore struct {
	client S3API
	bucket string
}

func NewObjectStore(client S3API, bucket string) ObjectStore {
	return &objectStore{
		client: client,
		bucket: bucket,
	}
}

func (s *objectStore) ListArchives(ctx context.Context, symbol string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(symbol + "/"),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, symbol, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, archiveSuffix) {
				keys = append(keys, key)
			}
		}
	}

	return keys, nil
}

func (s *objectStore) Download(ctx context.Context, key, dest string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return nil
}

// Scenario derives the scenario name from an archive key such as
// "btc-1mF/s_-3000..-100..400.zip".
func Scenario(key string) string {
	base := filepath.Base(key)

	return strings.TrimSuffix(base, archiveSuffix)
}
