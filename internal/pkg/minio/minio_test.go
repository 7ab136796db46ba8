package minio

import (
	"CPOverflow/internal/api/config"
	"context"
	"strings"
	"testing"
	"time"
)

func TestGetPublicURL(t *testing.T) {
	t.Cleanup(func() { Client, MainBucket, publicBase = nil, "", "" })

	if got := GetPublicURL("a.png"); got != "/a.png" {
		t.Fatalf("unconfigured url: %s", got)
	}

	err := Configure(config.MinIOConfig{
		ExternalEndpoint: "https://cdn.example.com/",
		AccessKey:        "ak",
		SecretKey:        "sk",
		Region:           "us-east-1",
		MainBucket:       "chat",
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	if got := GetPublicURL("avatars/a.png"); got != "https://cdn.example.com/chat/avatars/a.png" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := GetPublicURL("https://elsewhere/x.png"); got != "https://elsewhere/x.png" {
		t.Fatalf("absolute url must pass through, got %s", got)
	}
	if got := GetPublicURL(""); !strings.HasSuffix(got, "default_avatar.png") {
		t.Fatalf("expected default avatar, got %s", got)
	}
}

func TestPresignUploadOffline(t *testing.T) {
	t.Cleanup(func() { Client, MainBucket, publicBase = nil, "", "" })

	if _, err := PresignUpload(context.Background(), "x", time.Minute); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	// 指定 region 后签名无需访问服务端
	_ = Configure(config.MinIOConfig{
		InternalEndpoint: "127.0.0.1:9000",
		AccessKey:        "ak",
		SecretKey:        "sk",
		Region:           "us-east-1",
		MainBucket:       "chat",
	})
	u, err := PresignUpload(context.Background(), "chat/1/file.png", 5*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(u.String(), "X-Amz-Signature") || !strings.Contains(u.Path, "/chat/chat/1/file.png") {
		t.Fatalf("unexpected presigned url %s", u)
	}
}
