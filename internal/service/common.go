package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/minio"
)

func toUserSimpleDTO(u *model.User) *dto.UserSimpleDTO {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &dto.UserSimpleDTO{
		ID:             u.ID,
		Username:       u.Username,
		Nickname:       u.UserDetail.Nickname,
		ProfilePicture: minio.GetPublicURL(u.UserDetail.AvatarURL),
	}
}

func toMessageDTO(m *model.Message) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:          m.ID,
		RoomID:      m.RoomID,
		Content:     m.Content,
		Sender:      toUserSimpleDTO(&m.Sender),
		MessageType: m.MessageType,
		FileURL:     m.FileURL,
		CreatedAt:   m.CreatedAt,
	}
}

// uniqueIds 去重并剔除 exclude，保持原有顺序
func uniqueIds(ids []uint64, exclude uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
