package service

import (
	"CPOverflow/internal/api/config"
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/redis"
	"CPOverflow/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

const (
	presenceTouchTimeout = 2 * time.Second
	presenceFlushLockTTL = time.Minute
	presenceProcessing   = consts.PresenceDirtyKey + ":processing"
)

type PresenceService interface {
	// Touch 记录一次活跃，不阻塞调用方，失败只记录日志
	Touch(userID uint64)
	SetOnline(ctx context.Context, userID uint64, online bool) (*dto.ActivityStatusDTO, error)
	StatusOf(ctx context.Context, userID uint64) (string, error)
	GetActivityStatus(ctx context.Context, userID uint64) (*dto.ActivityStatusDTO, error)
	StatusOfMany(ctx context.Context, userIDs []uint64) (map[uint64]string, error)
	GetOnlineFollowings(ctx context.Context, userID uint64) ([]*dto.OnlineUserDTO, error)
	// Flush 将缓冲在 redis 的活跃时间写回数据库，返回写入条数
	Flush(ctx context.Context) (int, error)
}

type presenceServiceImpl struct {
	activityRepo   repository.UserActivityRepo
	userRepo       repository.UserRepo
	userFollowRepo repository.UserFollowRepo
	activeWindow   time.Duration
	awayWindow     time.Duration
	now            func() time.Time
}

func NewPresenceService(
	activityRepo repository.UserActivityRepo,
	userRepo repository.UserRepo,
	userFollowRepo repository.UserFollowRepo,
	cfg config.PresenceConfig,
) PresenceService {
	active, away := cfg.ActiveWindow, cfg.AwayWindow
	if active <= 0 {
		active = 5
	}
	if away <= 0 {
		away = 60
	}
	return &presenceServiceImpl{
		activityRepo:   activityRepo,
		userRepo:       userRepo,
		userFollowRepo: userFollowRepo,
		activeWindow:   time.Duration(active) * time.Minute,
		awayWindow:     time.Duration(away) * time.Minute,
		now:            time.Now,
	}
}

func (s *presenceServiceImpl) Touch(userID uint64) {
	if userID == 0 {
		return
	}
	at := s.now().UnixMilli()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTouchTimeout)
		defer cancel()
		field := strconv.FormatUint(userID, 10)
		if err := redis.HSetAndMark(ctx, consts.PresenceActivityKey, consts.PresenceDirtyKey, field, at); err != nil {
			log.Warn("presence touch failed", "uid", userID, "err", err)
		}
	}()
}

func (s *presenceServiceImpl) SetOnline(ctx context.Context, userID uint64, online bool) (*dto.ActivityStatusDTO, error) {
	now := s.now().UTC()
	if err := s.activityRepo.SetOnline(ctx, userID, online, now); err != nil {
		return nil, err
	}
	return s.GetActivityStatus(ctx, userID)
}

func (s *presenceServiceImpl) StatusOf(ctx context.Context, userID uint64) (string, error) {
	statuses, err := s.StatusOfMany(ctx, []uint64{userID})
	if err != nil {
		return "", err
	}
	return statuses[userID], nil
}

func (s *presenceServiceImpl) GetActivityStatus(ctx context.Context, userID uint64) (*dto.ActivityStatusDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	activities, err := s.loadActivities(ctx, []uint64{userID})
	if err != nil {
		return nil, err
	}
	res := &dto.ActivityStatusDTO{UserID: userID, ActivityStatus: consts.ActivityOffline}
	if a, ok := activities[userID]; ok {
		last := a.LastActivity
		res.IsOnline = a.IsOnline
		res.LastActivity = &last
		res.ActivityStatus = deriveStatus(a, s.now(), s.activeWindow, s.awayWindow)
	}
	return res, nil
}

// StatusOfMany 批量计算在线状态，没有任何活跃记录的用户为 offline
func (s *presenceServiceImpl) StatusOfMany(ctx context.Context, userIDs []uint64) (map[uint64]string, error) {
	activities, err := s.loadActivities(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	res := make(map[uint64]string, len(userIDs))
	for _, uid := range userIDs {
		a, ok := activities[uid]
		if !ok {
			res[uid] = consts.ActivityOffline
			continue
		}
		res[uid] = deriveStatus(a, now, s.activeWindow, s.awayWindow)
	}
	return res, nil
}

// GetOnlineFollowings 当前用户关注的人中显式在线的用户
func (s *presenceServiceImpl) GetOnlineFollowings(ctx context.Context, userID uint64) ([]*dto.OnlineUserDTO, error) {
	followingIds, err := s.userFollowRepo.GetAllFollowingIds(ctx, userID)
	if err != nil {
		return nil, err
	}
	onlineIds, err := s.activityRepo.GetOnlineIds(ctx, followingIds)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetUserByIds(ctx, onlineIds)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.OnlineUserDTO, 0, len(users))
	for _, u := range users {
		res = append(res, &dto.OnlineUserDTO{User: toUserSimpleDTO(u), ActivityStatus: consts.ActivityOnline})
	}
	return res, nil
}

func (s *presenceServiceImpl) Flush(ctx context.Context) (int, error) {
	locked, err := redis.TryLock(ctx, consts.PresenceFlushLock, presenceFlushLockTTL)
	if err != nil || !locked {
		return 0, err
	}
	defer func() {
		_ = redis.Unlock(context.WithoutCancel(ctx), consts.PresenceFlushLock)
	}()

	// 上一轮失败遗留的 processing 集合会被并入本轮
	pending, err := redis.MergeSet(ctx, consts.PresenceDirtyKey, presenceProcessing)
	if err != nil || pending == 0 {
		return 0, err
	}
	fields, err := redis.GetSet(ctx, presenceProcessing)
	if err != nil {
		return 0, err
	}
	values, err := redis.HMGetInt64s(ctx, consts.PresenceActivityKey, fields...)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for field, ms := range values {
		uid, err := strconv.ParseUint(field, 10, 64)
		if err != nil || ms <= 0 {
			continue
		}
		if err = s.activityRepo.Touch(ctx, uid, time.UnixMilli(ms).UTC()); err != nil {
			log.ErrorContext(ctx, "flush presence failed", "uid", uid, "err", err)
			continue
		}
		flushed++
	}

	if err = redis.DeleteKey(ctx, presenceProcessing); err != nil {
		log.WarnContext(ctx, "drop presence processing set failed", "err", err)
	}
	return flushed, nil
}

// loadActivities 合并数据库记录与尚未落库的活跃时间，取较新的一个
func (s *presenceServiceImpl) loadActivities(ctx context.Context, userIDs []uint64) (map[uint64]*model.UserActivity, error) {
	res := make(map[uint64]*model.UserActivity, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}
	rows, err := s.activityRepo.GetActivities(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res[r.UserID] = r
	}

	fields := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		fields = append(fields, strconv.FormatUint(uid, 10))
	}
	buffered, err := redis.HMGetInt64s(ctx, consts.PresenceActivityKey, fields...)
	if err != nil {
		log.WarnContext(ctx, "read presence buffer failed", "err", err)
		return res, nil
	}
	for field, ms := range buffered {
		uid, _ := strconv.ParseUint(field, 10, 64)
		at := time.UnixMilli(ms)
		if a, ok := res[uid]; ok {
			if at.After(a.LastActivity) {
				a.LastActivity = at
			}
			continue
		}
		res[uid] = &model.UserActivity{UserID: uid, LastActivity: at}
	}
	return res, nil
}

func deriveStatus(a *model.UserActivity, now time.Time, active, away time.Duration) string {
	if a.IsOnline {
		return consts.ActivityOnline
	}
	elapsed := now.Sub(a.LastActivity)
	switch {
	case elapsed < active:
		return consts.ActivityActive
	case elapsed < away:
		return consts.ActivityAway
	default:
		return consts.ActivityOffline
	}
}
