package minio

import (
	"CPOverflow/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例，未初始化时附件上传不可用
	Client *minio.Client
	// MainBucket 主要存储桶
	MainBucket string

	publicBase string
)

// Configure 创建客户端但不发起网络请求
func Configure(cfg config.MinIOConfig) error {
	endpoint := cfg.InternalEndpoint
	useSSL := cfg.InternalUseSSL
	if endpoint == "" {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.ExternalEndpoint, "https://"), "http://")
		useSSL = strings.HasPrefix(cfg.ExternalEndpoint, "https://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	Client = client
	MainBucket = cfg.MainBucket
	publicBase = strings.TrimSuffix(cfg.ExternalEndpoint, "/")
	return nil
}

// Init 初始化客户端并确保主存储桶存在
func Init(cfg config.MinIOConfig) error {
	if err := Configure(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, MainBucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = Client.MakeBucket(ctx, MainBucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", MainBucket, err)
		}
		log.Info("MinIO bucket created", "bucket", MainBucket)
	}
	return nil
}
