// Package presence tracks which connections are currently in each ticket
// room, backed by redis sets. Presence is an optional collaborator: a nil
// Tracker disables it without changing chat behavior.
package presence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Tracker records room occupancy in redis.
type Tracker struct {
	client *redis.Client
}

// New connects to redis at addr and verifies the connection.
func New(ctx context.Context, addr string) (*Tracker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &Tracker{client: client}, nil
}

func roomKey(ticketID string) string {
	return "presence:ticket:" + ticketID
}

// Join records a connection as present in a ticket room.
func (t *Tracker) Join(ctx context.Context, ticketID, member string) {
	if t == nil {
		return
	}
	if err := t.client.SAdd(ctx, roomKey(ticketID), member).Err(); err != nil {
		slog.Warn("presence join failed", "ticket_id", ticketID, "error", err)
	}
}

// Leave removes a connection from a ticket room's presence set.
func (t *Tracker) Leave(ctx context.Context, ticketID, member string) {
	if t == nil {
		return
	}
	if err := t.client.SRem(ctx, roomKey(ticketID), member).Err(); err != nil {
		slog.Warn("presence leave failed", "ticket_id", ticketID, "error", err)
	}
}

// Members returns the connections currently present in a ticket room.
func (t *Tracker) Members(ctx context.Context, ticketID string) ([]string, error) {
	if t == nil {
		return []string{}, nil
	}
	members, err := t.client.SMembers(ctx, roomKey(ticketID)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence members %s: %w", ticketID, err)
	}
	return members, nil
}

// Close closes the redis connection.
func (t *Tracker) Close() error {
	if t == nil {
		return nil
	}
	return t.client.Close()
}
