package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis keys for counsellor presence
const (
	presenceOnlineSet      = "presence:counsellors"    // Set of staff ids with a live socket
	presenceConnectionsKey = "presence:connections:%s" // Hash client id -> connection info
	defaultPresenceTTL     = 5 * time.Minute
)

// PresenceStore tracks which counsellors currently hold a chat connection.
// A counsellor stays online while at least one of their connections is tracked.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = defaultPresenceTTL
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// TrackConnection records one socket for userID and marks them online.
func (p *PresenceStore) TrackConnection(ctx context.Context, userID, clientID string) error {
	key := fmt.Sprintf(presenceConnectionsKey, userID)
	data, _ := json.Marshal(map[string]string{
		"client_id":    clientID,
		"connected_at": time.Now().UTC().Format(time.RFC3339),
	})

	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, key, clientID, data)
	pipe.Expire(ctx, key, p.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// Heartbeat keeps the connection record alive while the socket is open.
func (p *PresenceStore) Heartbeat(ctx context.Context, userID string) error {
	return p.client.Expire(ctx, fmt.Sprintf(presenceConnectionsKey, userID), p.ttl).Err()
}

// RemoveConnection drops one socket and marks the user offline when none remain.
func (p *PresenceStore) RemoveConnection(ctx context.Context, userID, clientID string) error {
	key := fmt.Sprintf(presenceConnectionsKey, userID)
	if err := p.client.HDel(ctx, key, clientID).Err(); err != nil {
		return err
	}

	count, err := p.client.HLen(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 0 {
		return p.client.SRem(ctx, presenceOnlineSet, userID).Err()
	}
	return nil
}

func (p *PresenceStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, presenceOnlineSet, userID).Result()
}

// OnlineCount returns how many counsellors are connected. Entries whose
// connection hash expired without a clean disconnect are pruned first.
func (p *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	members, err := p.client.SMembers(ctx, presenceOnlineSet).Result()
	if err != nil {
		return 0, err
	}

	var online int64
	for _, userID := range members {
		exists, err := p.client.Exists(ctx, fmt.Sprintf(presenceConnectionsKey, userID)).Result()
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			p.client.SRem(ctx, presenceOnlineSet, userID)
			continue
		}
		online++
	}
	return online, nil
}
