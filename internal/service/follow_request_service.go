package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/database"
	"CPOverflow/internal/pkg/mongo"
	"CPOverflow/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
)

const notifyTimeout = 3 * time.Second

type FollowRequestService interface {
	Send(ctx context.Context, requesterID, requestedID uint64) (*dto.FollowRequestDTO, error)
	ListReceived(ctx context.Context, userID uint64, limit, offset int) ([]*dto.FollowRequestDTO, error)
	// Accept 通过请求，写入双向关注并返回两人的单聊 id
	Accept(ctx context.Context, userID, requestID uint64) (*dto.AcceptFollowRequestDTO, error)
	Reject(ctx context.Context, userID, requestID uint64) error
}

type followRequestServiceImpl struct {
	followRequestRepo repository.FollowRequestRepo
	userRepo          repository.UserRepo
	userFollowSvc     UserFollowService
	notifier          Notifier
}

// NewFollowRequestService notifier 为 nil 时不发送系统通知
func NewFollowRequestService(
	followRequestRepo repository.FollowRequestRepo,
	userRepo repository.UserRepo,
	userFollowSvc UserFollowService,
	notifier Notifier,
) FollowRequestService {
	return &followRequestServiceImpl{
		followRequestRepo: followRequestRepo,
		userRepo:          userRepo,
		userFollowSvc:     userFollowSvc,
		notifier:          notifier,
	}
}

func (s *followRequestServiceImpl) Send(ctx context.Context, requesterID, requestedID uint64) (*dto.FollowRequestDTO, error) {
	if requesterID == requestedID {
		return nil, ErrFollowSelf
	}
	target, err := s.userRepo.GetUserById(ctx, requestedID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	following, err := s.userFollowSvc.IsFollowing(ctx, requesterID, requestedID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, ErrAlreadyFollowing
	}

	fr, err := s.upsertPending(ctx, requesterID, requestedID)
	if err != nil {
		return nil, err
	}

	requester, err := s.userRepo.GetUserById(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	name := ""
	if requester != nil {
		fr.Requester = *requester
		name = requester.UserDetail.Nickname
	}
	s.notify(ctx, &mongo.SysBoxModel{
		ReceiverID: requestedID,
		SenderID:   requesterID,
		Type:       consts.SysBoxFollowRequest,
		TargetID:   fr.ID,
		Content:    fmt.Sprintf("%s 请求关注你", name),
	})

	log.InfoContext(ctx, "follow request sent", "request_id", fr.ID, "requester", requesterID, "requested", requestedID)
	return toFollowRequestDTO(fr), nil
}

func (s *followRequestServiceImpl) ListReceived(ctx context.Context, userID uint64, limit, offset int) ([]*dto.FollowRequestDTO, error) {
	list, err := s.followRequestRepo.GetReceivedPending(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.FollowRequestDTO, 0, len(list))
	for _, fr := range list {
		res = append(res, toFollowRequestDTO(fr))
	}
	return res, nil
}

func (s *followRequestServiceImpl) Accept(ctx context.Context, userID, requestID uint64) (*dto.AcceptFollowRequestDTO, error) {
	fr, room, err := s.followRequestRepo.Accept(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, ErrFollowRequestNotFound
	}

	AddFollowCache(ctx, fr.RequesterID, fr.RequestedID)
	AddFollowCache(ctx, fr.RequestedID, fr.RequesterID)

	s.notify(ctx, &mongo.SysBoxModel{
		ReceiverID: fr.RequesterID,
		SenderID:   fr.RequestedID,
		Type:       consts.SysBoxFollowAccepted,
		TargetID:   fr.ID,
		Content:    "你的关注请求已通过",
		Payload:    map[string]any{"room_id": room.ID},
	})

	log.InfoContext(ctx, "follow request accepted", "request_id", fr.ID, "room_id", room.ID)
	return &dto.AcceptFollowRequestDTO{RequestID: fr.ID, RoomID: room.ID}, nil
}

func (s *followRequestServiceImpl) Reject(ctx context.Context, userID, requestID uint64) error {
	fr, err := s.followRequestRepo.Reject(ctx, requestID, userID)
	if err != nil {
		return err
	}
	if fr == nil {
		return ErrFollowRequestNotFound
	}
	return nil
}

// upsertPending 新建请求，已拒绝或已失效的请求复用原行重置为 pending
func (s *followRequestServiceImpl) upsertPending(ctx context.Context, requesterID, requestedID uint64) (*model.FollowRequest, error) {
	existing, err := s.followRequestRepo.GetFollowRequestByPair(ctx, requesterID, requestedID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		fr := &model.FollowRequest{RequesterID: requesterID, RequestedID: requestedID}
		err = s.followRequestRepo.CreateFollowRequest(ctx, fr)
		if err == nil {
			return fr, nil
		}
		if !database.IsDuplicateKey(err) {
			return nil, err
		}
		// 并发发送，另一方已写入
		return nil, ErrFollowRequestPending
	}

	if existing.Status == consts.FollowRequestPending {
		return nil, ErrFollowRequestPending
	}
	reset, err := s.followRequestRepo.ResetToPending(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	if !reset {
		return nil, ErrFollowRequestPending
	}
	return s.followRequestRepo.GetFollowRequest(ctx, existing.ID)
}

// notify 通知失败不影响主流程
func (s *followRequestServiceImpl) notify(ctx context.Context, msg *mongo.SysBoxModel) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, msg); err != nil {
		log.WarnContext(ctx, "send notification failed", "type", msg.Type, "receiver", msg.ReceiverID, "err", err)
	}
}

func toFollowRequestDTO(fr *model.FollowRequest) *dto.FollowRequestDTO {
	d := &dto.FollowRequestDTO{}
	_ = copier.Copy(d, fr)
	d.RequesterInfo = toUserSimpleDTO(&fr.Requester)
	return d
}
