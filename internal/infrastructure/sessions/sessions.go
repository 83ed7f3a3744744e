// Package sessions holds the Redis key layout shared by the session middleware
// and the services that revoke sessions.
package sessions

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	SessionPrefix      = "session:"
	UserSessionsPrefix = "user_sessions:"
)

// Track remembers sid under the user so every session can be revoked at once.
func Track(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SAdd(ctx, UserSessionsPrefix+userID, sid).Err()
}

// Untrack forgets one session and deletes its data.
func Untrack(ctx context.Context, rdb *redis.Client, userID, sid string) {
	if userID != "" {
		_ = rdb.SRem(ctx, UserSessionsPrefix+userID, sid).Err()
	}
	if sid != "" {
		_ = rdb.Del(ctx, SessionPrefix+sid).Err()
	}
}

// DestroyUserSessions deletes all sessions for a user (user_sessions:<id> then each session:<sid>).
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, SessionPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
