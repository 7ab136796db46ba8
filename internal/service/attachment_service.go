package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/minio"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AttachmentService interface {
	// PresignUpload 为聊天室成员生成附件直传地址
	PresignUpload(ctx context.Context, userID, roomID uint64, req *dto.AttachmentDTO) (*dto.AttachmentUploadDTO, error)
}

type attachmentServiceImpl struct {
	chatRoomSvc ChatRoomService
	expire      time.Duration
}

func NewAttachmentService(chatRoomSvc ChatRoomService, expireMinutes int) AttachmentService {
	if expireMinutes <= 0 {
		expireMinutes = 15
	}
	return &attachmentServiceImpl{
		chatRoomSvc: chatRoomSvc,
		expire:      time.Duration(expireMinutes) * time.Minute,
	}
}

func (s *attachmentServiceImpl) PresignUpload(ctx context.Context, userID, roomID uint64, req *dto.AttachmentDTO) (*dto.AttachmentUploadDTO, error) {
	if err := s.chatRoomSvc.CheckAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(req.FileName))
	objectKey := fmt.Sprintf("chat/%d/%s%s", roomID, uuid.NewString(), ext)
	u, err := minio.PresignUpload(ctx, objectKey, s.expire)
	if err != nil {
		if errors.Is(err, minio.ErrNotConfigured) {
			return nil, ErrAttachmentUnavailable
		}
		log.ErrorContext(ctx, "presign attachment failed", "room_id", roomID, "err", err)
		return nil, ErrAttachmentUnavailable
	}

	return &dto.AttachmentUploadDTO{
		UploadURL: u.String(),
		FileURL:   minio.GetPublicURL(objectKey),
		ObjectKey: objectKey,
		ExpiresIn: int64(s.expire.Seconds()),
	}, nil
}
