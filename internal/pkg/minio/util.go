package minio

import (
	"CPOverflow/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("minio client is not initialized")

// PresignUpload 生成客户端直传的 PUT 地址
func PresignUpload(ctx context.Context, objectName string, expires time.Duration) (*url.URL, error) {
	if Client == nil {
		return nil, ErrNotConfigured
	}
	u, err := Client.PresignedPutObject(ctx, MainBucket, objectName, expires)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return u, nil
}

// GetPublicURL 对象的公开访问地址，已是完整 URL 时原样返回
func GetPublicURL(objectName string) string {
	if objectName == "" {
		objectName = consts.DefaultAvatarURL
	}
	if strings.HasPrefix(objectName, "http://") || strings.HasPrefix(objectName, "https://") {
		return objectName
	}
	if publicBase == "" {
		return "/" + strings.TrimPrefix(objectName, "/")
	}
	return fmt.Sprintf("%s/%s/%s", publicBase, MainBucket, strings.TrimPrefix(objectName, "/"))
}
