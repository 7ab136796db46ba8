package kafka

import (
	"CPOverflow/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

const userFollowsTable = "user_follows"

// UserFollowsHandler 消费 user_follows 表的 binlog，保持关注缓存与数据库一致
type UserFollowsHandler struct{}

func NewUserFollowsHandler() *UserFollowsHandler {
	return &UserFollowsHandler{}
}

func (s *UserFollowsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("user follows consumer setup")
	return nil
}

func (s *UserFollowsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("user follows consumer cleanup")
	return nil
}

func (s *UserFollowsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-user-follows consume claim")
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("topic-user-follows process batch error", "err", err)
		return err
	}
	log.Info("topic-user-follows consume claim end")
	return nil
}

func (s *UserFollowsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, userFollowsTable)
	if err != nil {
		return nil
	}
	s.apply(ctx, canalMsg)
	return nil
}

// apply 缓存更新失败只记录日志，下次读取时会从数据库重建
func (s *UserFollowsHandler) apply(ctx context.Context, canalMsg *CanalMessage) {
	for _, row := range canalMsg.Data {
		followerID := StrToUint64(row["follower_id"])
		followingID := StrToUint64(row["following_id"])
		if followerID == 0 || followingID == 0 {
			log.WarnContext(ctx, "invalid user_follows row", "row", row)
			continue
		}

		switch canalMsg.Type {
		case INSERT:
			service.AddFollowCache(ctx, followerID, followingID)
		case DELETE:
			service.RemoveFollowCache(ctx, followerID, followingID)
		}
	}
}
