package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Builder-Lawyers/hosting-backend/pkg/env"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type MirrorConfig struct {
	Enabled bool
	Bucket  string
	Prefix  string
}

func NewMirrorConfig() *MirrorConfig {
	return &MirrorConfig{
		Enabled: env.GetEnvBool("S3_MIRROR_ENABLED", false),
		Bucket:  env.GetEnv("S3_BUCKET", "hosted-sites"),
		Prefix:  env.GetEnv("S3_PREFIX", "sites/"),
	}
}

type Storage struct {
	client *s3.Client
	bucket string
}

func NewStorage(config aws.Config, bucket string) *Storage {
	return &Storage{
		client: initClient(config),
		bucket: bucket,
	}
}

func initClient(config aws.Config) *s3.Client {
	return s3.NewFromConfig(config, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

func (s *Storage) CreateBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("err creating bucket %s, %v", s.bucket, err)
	}
	return nil
}

func (s *Storage) UploadFile(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("error uploading %s: %v", key, err)
	}
	return nil
}

func (s *Storage) ListFiles(ctx context.Context, limit int32, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}, func(o *s3.ListObjectsV2PaginatorOptions) {
		o.Limit = limit
	})

	var files []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			slog.Error("failed to get page", "prefix", prefix, "err", err)
			return nil, fmt.Errorf("error listing %s: %v", prefix, err)
		}
		for _, obj := range page.Contents {
			files = append(files, *obj.Key)
		}
	}
	return files, nil
}

func (s *Storage) GetFile(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading file %v: %v", key, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading file contents, %v", err)
	}
	return data, nil
}

// DeleteFiles removes keys in batches of 1000, the S3 limit per request.
func (s *Storage) DeleteFiles(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("error deleting objects: %v", err)
		}
	}
	return nil
}
