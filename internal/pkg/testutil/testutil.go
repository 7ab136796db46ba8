package testutil

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/database"
	"CPOverflow/internal/pkg/redis"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB 每个测试独立的内存 sqlite，已完成建表
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_busy_timeout=5000", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err = database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewTestRedis 启动 miniredis 并替换全局客户端
func NewTestRedis(t testing.TB) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	prev := redis.Rdb
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = redis.Rdb.Close()
		redis.Rdb = prev
	})
	return mr
}

// CreateUser 写入一个带资料的用户
func CreateUser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{Username: username, Password: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	detail := &model.UserDetail{UserID: user.ID, Nickname: username, AvatarURL: username + ".png"}
	if err := db.Create(detail).Error; err != nil {
		t.Fatalf("create detail %s: %v", username, err)
	}
	user.UserDetail = *detail
	return user
}

// Follow 直接写入关注边，仅供测试构造数据
func Follow(t testing.TB, db *gorm.DB, followerID, followingID uint64) {
	t.Helper()

	if err := db.Create(&model.UserFollow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		t.Fatalf("create follow: %v", err)
	}
}
