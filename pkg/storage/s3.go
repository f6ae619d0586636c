package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"adwall/config"
	"adwall/pkg/logger"
)

// S3 保存在 S3 存储桶，返回公开访问地址
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
	logger   *logger.Logger
}

// NewS3 未配置密钥时使用默认凭证链
func NewS3(ctx context.Context, cfg config.S3Config, logger *logger.Logger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		logger.Warn("S3 未配置访问密钥，使用默认凭证链")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	logger.Info("视频存储使用 S3", "bucket", cfg.Bucket, "region", cfg.Region)
	return &S3{client: client, uploader: uploader, bucket: cfg.Bucket, region: cfg.Region, logger: logger}, nil
}

// PublicObjectURL 对象的公开地址
func (s *S3) PublicObjectURL(key string) string {
	return publicObjectURL(s.bucket, s.region, key)
}

func publicObjectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// Save 分片上传并设置公开读
func (s *S3) Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("上传到 S3 失败: %w", err)
	}
	return s.PublicObjectURL(key), nil
}

// Delete 根据公开地址删除对象
func (s *S3) Delete(ctx context.Context, filePath string) error {
	key, ok := objectKey(s.bucket, s.region, filePath)
	if !ok {
		return ErrOutsideStorage
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("删除 S3 对象失败: %w", err)
	}
	return nil
}

func objectKey(bucket, region, url string) (string, bool) {
	key, ok := strings.CutPrefix(url, publicObjectURL(bucket, region, ""))
	return key, ok && key != ""
}
