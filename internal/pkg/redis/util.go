package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 获取字符串类型的值，键不存在时返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// GetInt64 获取整型值，第二个返回值表示键是否存在
func GetInt64(ctx context.Context, key string) (int64, bool, error) {
	value, err := Rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

// HSetAndMark 写入哈希字段并将字段加入脏集合，一次往返完成
func HSetAndMark(ctx context.Context, hashKey, dirtyKey, field string, value int64) error {
	pipe := Rdb.Pipeline()
	pipe.HSet(ctx, hashKey, field, value)
	pipe.SAdd(ctx, dirtyKey, field)
	_, err := pipe.Exec(ctx)
	return err
}

// HMGetInt64s 批量获取哈希字段的整型值，缺失或非法的字段不出现在结果中
func HMGetInt64s(ctx context.Context, key string, fields ...string) (map[string]int64, error) {
	res := make(map[string]int64, len(fields))
	if len(fields) == 0 {
		return res, nil
	}
	values, err := Rdb.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			continue
		}
		res[fields[i]] = n
	}
	return res, nil
}

// TryLock 基于 SETNX 的简单互斥锁
func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return Rdb.SetNX(ctx, key, 1, ttl).Result()
}

// Unlock 释放 TryLock 获取的锁
func Unlock(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}

// GetSet 获取集合
func GetSet(ctx context.Context, key string) ([]string, error) {
	return Rdb.SMembers(ctx, key).Result()
}

// ZIsMember 判断成员是否在有序集合中，第二个返回值表示集合是否存在
func ZIsMember(ctx context.Context, key, member string) (bool, bool, error) {
	pipe := Rdb.Pipeline()
	existsCmd := pipe.Exists(ctx, key)
	scoreCmd := pipe.ZScore(ctx, key, member)
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, false, err
	}
	if existsCmd.Val() == 0 {
		return false, false, nil
	}
	return scoreCmd.Err() == nil, true, nil
}

// ZAddUint64s 用 id 列表重建有序集合，分数为写入顺序
func ZAddUint64s(ctx context.Context, key string, ids []uint64, expiration time.Duration) error {
	pipe := Rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		members := make([]redis.Z, 0, len(ids))
		for i, id := range ids {
			members = append(members, redis.Z{Score: float64(i), Member: strconv.FormatUint(id, 10)})
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, expiration)
	}
	_, err := pipe.Exec(ctx)
	return err
}

var zAddIfExistsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
end
return 0
`)

// ZAddIfExists 仅当有序集合已缓存时追加成员，避免写入不完整的缓存
func ZAddIfExists(ctx context.Context, key string, score float64, member string) error {
	return zAddIfExistsScript.Run(ctx, Rdb, []string{key}, score, member).Err()
}

// ZRem 移除有序集合成员
func ZRem(ctx context.Context, key string, member string) error {
	return Rdb.ZRem(ctx, key, member).Err()
}

var mergeSetScript = redis.NewScript(`
local n = redis.call('SUNIONSTORE', KEYS[2], KEYS[1], KEYS[2])
redis.call('DEL', KEYS[1])
return n
`)

// MergeSet 将 src 并入 dst 并删除 src，返回 dst 的成员数，dst 中上次未处理完的成员会保留
func MergeSet(ctx context.Context, src, dst string) (int64, error) {
	return mergeSetScript.Run(ctx, Rdb, []string{src, dst}).Int64()
}

// DeleteKey 删除键
func DeleteKey(ctx context.Context, keys ...string) error {
	return Rdb.Del(ctx, keys...).Err()
}

// Publish 发布消息到频道
func Publish(ctx context.Context, channel string, payload []byte) error {
	return Rdb.Publish(ctx, channel, payload).Err()
}

// PSubscribe 按模式订阅频道
func PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return Rdb.PSubscribe(ctx, patterns...)
}
