package realtime

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultPresencePrefix = "presence:"

// setPresence maps user to handle, clearing the stale reverse entries of
// both the handle's previous user and the user's previous handle. Returns the
// handle's previous user when it differs from user, or an empty string.
var setPresence = redis.NewScript(`
local prefix, user, handle = ARGV[1], ARGV[2], ARGV[3]
local previous = ''
local prevUser = redis.call('GET', prefix .. 'handle:' .. handle)
if prevUser and prevUser ~= user then
	previous = prevUser
	if redis.call('GET', prefix .. 'user:' .. prevUser) == handle then
		redis.call('DEL', prefix .. 'user:' .. prevUser)
	end
end
local prevHandle = redis.call('GET', prefix .. 'user:' .. user)
if prevHandle and prevHandle ~= handle then
	redis.call('DEL', prefix .. 'handle:' .. prevHandle)
end
redis.call('SET', prefix .. 'user:' .. user, handle)
redis.call('SET', prefix .. 'handle:' .. handle, user)
return previous
`)

// removePresence deletes handle and, only if it still owns the user entry,
// the user as well. Returns the user id or nil.
var removePresence = redis.NewScript(`
local prefix, handle = ARGV[1], ARGV[2]
local user = redis.call('GET', prefix .. 'handle:' .. handle)
if not user then
	return false
end
redis.call('DEL', prefix .. 'handle:' .. handle)
if redis.call('GET', prefix .. 'user:' .. user) == handle then
	redis.call('DEL', prefix .. 'user:' .. user)
	return user
end
return false
`)

// RedisPresence shares presence between server instances through redis.
type RedisPresence struct {
	client *redis.Client
	prefix string
}

func NewRedisPresence(client *redis.Client, prefix string) *RedisPresence {
	if prefix == "" {
		prefix = defaultPresencePrefix
	}
	return &RedisPresence{client: client, prefix: prefix}
}

func (r *RedisPresence) Set(ctx context.Context, userID, handle string) (string, error) {
	return setPresence.Run(ctx, r.client, nil, r.prefix, userID, handle).Text()
}

func (r *RedisPresence) RemoveHandle(ctx context.Context, handle string) (string, bool, error) {
	userID, err := removePresence.Run(ctx, r.client, nil, r.prefix, handle).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (r *RedisPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+"user:"+userID).Result()
	return n > 0, err
}

func (r *RedisPresence) Online(ctx context.Context) ([]string, error) {
	keyPrefix := r.prefix + "user:"
	users := []string{}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}
