package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/repository"
	"context"
	log "log/slog"
	"slices"
)

type ChatRoomService interface {
	CreateOrGetDirectRoom(ctx context.Context, initiatorID, targetID uint64) (*dto.ChatRoomDTO, bool, error)
	CreateGroupRoom(ctx context.Context, initiatorID uint64, memberIDs []uint64, name *string) (*dto.ChatRoomDTO, error)
	CanAccess(ctx context.Context, userID, roomID uint64) (bool, error)
	// CheckAccess 聊天室不存在返回 ErrRoomNotFound，非成员返回 ErrChatNotAllowed
	CheckAccess(ctx context.Context, userID, roomID uint64) error
	OtherParticipant(ctx context.Context, roomID, userID uint64) (*model.User, error)
	ListRooms(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO[*dto.ChatRoomDTO], error)
	GetRoomDetail(ctx context.Context, userID, roomID uint64) (*dto.ChatRoomDetailDTO, error)
}

type chatRoomServiceImpl struct {
	chatRoomRepo       repository.ChatRoomRepo
	messageRepo        repository.MessageRepo
	userRepo           repository.UserRepo
	userFollowSvc      UserFollowService
	presenceSvc        PresenceService
	detailMessageLimit int
}

func NewChatRoomService(
	chatRoomRepo repository.ChatRoomRepo,
	messageRepo repository.MessageRepo,
	userRepo repository.UserRepo,
	userFollowSvc UserFollowService,
	presenceSvc PresenceService,
	detailMessageLimit int,
) ChatRoomService {
	if detailMessageLimit <= 0 {
		detailMessageLimit = 50
	}
	return &chatRoomServiceImpl{
		chatRoomRepo:       chatRoomRepo,
		messageRepo:        messageRepo,
		userRepo:           userRepo,
		userFollowSvc:      userFollowSvc,
		presenceSvc:        presenceSvc,
		detailMessageLimit: detailMessageLimit,
	}
}

// CreateOrGetDirectRoom 发起方必须已关注对方，同一对用户只会有一个单聊
func (s *chatRoomServiceImpl) CreateOrGetDirectRoom(ctx context.Context, initiatorID, targetID uint64) (*dto.ChatRoomDTO, bool, error) {
	if targetID == 0 || initiatorID == targetID {
		return nil, false, ErrParamInvalid
	}
	target, err := s.userRepo.GetUserById(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	if target == nil {
		return nil, false, ErrUserNotFound
	}

	following, err := s.userFollowSvc.IsFollowing(ctx, initiatorID, targetID)
	if err != nil {
		return nil, false, err
	}
	if !following {
		return nil, false, ErrChatNotAllowed
	}

	room, created, err := s.chatRoomRepo.CreateOrGetDirectRoom(ctx, initiatorID, targetID)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.InfoContext(ctx, "direct room created", "room_id", room.ID, "initiator", initiatorID, "target", targetID)
	}

	list, err := s.buildRoomDTOs(ctx, initiatorID, []*model.ChatRoom{room})
	if err != nil {
		return nil, false, err
	}
	return list[0], created, nil
}

// CreateGroupRoom 无法解析为用户的 id 会被忽略
func (s *chatRoomServiceImpl) CreateGroupRoom(ctx context.Context, initiatorID uint64, memberIDs []uint64, name *string) (*dto.ChatRoomDTO, error) {
	existing, err := s.userRepo.GetExistingIds(ctx, uniqueIds(memberIDs, initiatorID))
	if err != nil {
		return nil, err
	}
	members := append([]uint64{initiatorID}, existing...)

	room := &model.ChatRoom{Name: name, IsGroup: true}
	if err = s.chatRoomRepo.CreateGroupRoom(ctx, room, members); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "group room created", "room_id", room.ID, "members", len(members))

	list, err := s.buildRoomDTOs(ctx, initiatorID, []*model.ChatRoom{room})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

func (s *chatRoomServiceImpl) CanAccess(ctx context.Context, userID, roomID uint64) (bool, error) {
	if userID == 0 || roomID == 0 {
		return false, nil
	}
	return s.chatRoomRepo.IsParticipant(ctx, roomID, userID)
}

func (s *chatRoomServiceImpl) CheckAccess(ctx context.Context, userID, roomID uint64) error {
	ok, err := s.CanAccess(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	room, err := s.chatRoomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	return ErrChatNotAllowed
}

// OtherParticipant 单聊中的另一方，群聊或成员数不为 2 时返回 nil
func (s *chatRoomServiceImpl) OtherParticipant(ctx context.Context, roomID, userID uint64) (*model.User, error) {
	room, err := s.chatRoomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.IsGroup {
		return nil, nil
	}
	participants, err := s.chatRoomRepo.GetParticipants(ctx, []uint64{roomID})
	if err != nil {
		return nil, err
	}
	other := otherOf(participants, userID)
	if other == nil {
		return nil, nil
	}
	return &other.User, nil
}

func (s *chatRoomServiceImpl) ListRooms(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO[*dto.ChatRoomDTO], error) {
	offset := (page - 1) * pageSize
	rooms, err := s.chatRoomRepo.GetUserRooms(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.chatRoomRepo.CountUserRooms(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.buildRoomDTOs(ctx, userID, rooms)
	if err != nil {
		return nil, err
	}
	return &dto.PageDTO[*dto.ChatRoomDTO]{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(offset+len(list)) < total,
	}, nil
}

// GetRoomDetail 聊天室详情，附带最近的消息(时间升序)
func (s *chatRoomServiceImpl) GetRoomDetail(ctx context.Context, userID, roomID uint64) (*dto.ChatRoomDetailDTO, error) {
	if err := s.CheckAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}
	room, err := s.chatRoomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	list, err := s.buildRoomDTOs(ctx, userID, []*model.ChatRoom{room})
	if err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.GetRecentMessages(ctx, roomID, s.detailMessageLimit)
	if err != nil {
		return nil, err
	}
	messages, err := withReadFlags(ctx, s.messageRepo, msgs, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ChatRoomDetailDTO{ChatRoomDTO: *list[0], Messages: messages}, nil
}

// buildRoomDTOs 批量装配成员、最后一条消息、未读数与对方在线状态
func (s *chatRoomServiceImpl) buildRoomDTOs(ctx context.Context, userID uint64, rooms []*model.ChatRoom) ([]*dto.ChatRoomDTO, error) {
	res := make([]*dto.ChatRoomDTO, 0, len(rooms))
	if len(rooms) == 0 {
		return res, nil
	}
	roomIDs := make([]uint64, 0, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
	}

	participants, err := s.chatRoomRepo.GetParticipants(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	byRoom := make(map[uint64][]*model.ChatRoomParticipant, len(rooms))
	for _, p := range participants {
		byRoom[p.RoomID] = append(byRoom[p.RoomID], p)
	}
	lastMessages, err := s.messageRepo.GetLastMessages(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	unread, err := s.messageRepo.CountUnreadByRooms(ctx, roomIDs, userID)
	if err != nil {
		return nil, err
	}

	otherIds := make([]uint64, 0, len(rooms))
	for _, r := range rooms {
		res = append(res, s.toRoomDTO(r, byRoom[r.ID], lastMessages[r.ID], unread[r.ID], userID))
		if other := res[len(res)-1].OtherParticipant; other != nil && !slices.Contains(otherIds, other.ID) {
			otherIds = append(otherIds, other.ID)
		}
	}

	if len(otherIds) > 0 {
		statuses, err := s.presenceSvc.StatusOfMany(ctx, otherIds)
		if err != nil {
			log.WarnContext(ctx, "load participant status failed", "err", err)
			return res, nil
		}
		for _, d := range res {
			if d.OtherParticipant != nil {
				d.OtherParticipantState = statuses[d.OtherParticipant.ID]
			}
		}
	}
	return res, nil
}

func (s *chatRoomServiceImpl) toRoomDTO(
	room *model.ChatRoom,
	participants []*model.ChatRoomParticipant,
	last *model.Message,
	unread int64,
	userID uint64,
) *dto.ChatRoomDTO {
	d := &dto.ChatRoomDTO{
		ID:           room.ID,
		Name:         room.Name,
		IsGroup:      room.IsGroup,
		Participants: make([]*dto.UserSimpleDTO, 0, len(participants)),
		UnreadCount:  unread,
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
	}
	for _, p := range participants {
		if u := toUserSimpleDTO(&p.User); u != nil {
			d.Participants = append(d.Participants, u)
		}
	}
	if !room.IsGroup {
		if other := otherOf(participants, userID); other != nil {
			d.OtherParticipant = toUserSimpleDTO(&other.User)
		}
	}
	if last != nil {
		d.LastMessage = toMessageDTO(last)
	}
	return d
}

func otherOf(participants []*model.ChatRoomParticipant, userID uint64) *model.ChatRoomParticipant {
	if len(participants) != 2 {
		return nil
	}
	switch userID {
	case participants[0].UserID:
		return participants[1]
	case participants[1].UserID:
		return participants[0]
	}
	return nil
}

// withReadFlags 转换消息并标记当前用户的已读状态，自己发送的消息视为已读
func withReadFlags(ctx context.Context, repo repository.MessageRepo, msgs []*model.Message, userID uint64) ([]*dto.MessageDTO, error) {
	ids := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	read, err := repo.GetReadMessageIds(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		d := toMessageDTO(m)
		d.IsRead = m.SenderID == userID || read[m.ID]
		res = append(res, d)
	}
	return res, nil
}
