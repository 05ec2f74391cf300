package policies

import (
	"context"

	"github.com/redis/go-redis/v9"

	"minta-backend/internal/middleware"
)

// DestroyUserSessions removes all sessions for a user after a role change or
// removal. Deletes each session key (session:<sid>) and the
// user_sessions:<user_id> set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if userID == "" {
		return
	}
	key := "user_sessions:" + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil || len(sessionIDs) == 0 {
		rdb.Del(ctx, key)
		return
	}
	for _, sid := range sessionIDs {
		rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
	}
	rdb.Del(ctx, key)
}
