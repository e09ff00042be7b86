// Package redisclient persists the per-room ordering state that the
// storefront needs back after a reload: the confirmed order record, the
// in-flight checkout cart snapshot, and cached connection credentials.
package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func currentOrderKey(room string) string {
	return fmt.Sprintf("currentOrder:%s", room)
}

func pendingCartKey(room string) string {
	return fmt.Sprintf("pendingOrder:%s", room)
}

func sessionKey(identity string) string {
	return fmt.Sprintf("session:%s", identity)
}

// SaveCurrentOrder persists the active order record for a room.
func (c *Client) SaveCurrentOrder(ctx context.Context, room string, rec *models.OrderRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal order record: %w", err)
	}
	return c.rdb.Set(ctx, currentOrderKey(room), data, 0).Err()
}

// LoadCurrentOrder retrieves the active order record for a room. A missing
// key yields (nil, nil); a record that no longer parses yields
// orders.ErrCorruptRecord so the caller can discard it.
func (c *Client) LoadCurrentOrder(ctx context.Context, room string) (*models.OrderRecord, error) {
	data, err := c.rdb.Get(ctx, currentOrderKey(room)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order record: %w", err)
	}

	var rec models.OrderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", orders.ErrCorruptRecord, err)
	}
	if rec.OrderID == "" || rec.Status == "" {
		return nil, fmt.Errorf("%w: missing orderId or status", orders.ErrCorruptRecord)
	}
	return &rec, nil
}

// DeleteCurrentOrder removes the active order record for a room.
func (c *Client) DeleteCurrentOrder(ctx context.Context, room string) error {
	return c.rdb.Del(ctx, currentOrderKey(room)).Err()
}

// SavePendingCart stores the checkout cart snapshot carried across the
// navigation boundary between the ordering and payment views.
func (c *Client) SavePendingCart(ctx context.Context, room string, items []models.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal pending cart: %w", err)
	}
	return c.rdb.Set(ctx, pendingCartKey(room), data, 0).Err()
}

// LoadPendingCart retrieves the checkout cart snapshot for a room.
func (c *Client) LoadPendingCart(ctx context.Context, room string) ([]models.LineItem, error) {
	data, err := c.rdb.Get(ctx, pendingCartKey(room)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending cart: %w", err)
	}

	var items []models.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending cart: %w", err)
	}
	return items, nil
}

// DeletePendingCart removes the checkout cart snapshot for a room.
func (c *Client) DeletePendingCart(ctx context.Context, room string) error {
	return c.rdb.Del(ctx, pendingCartKey(room)).Err()
}

// SaveSession caches connection credentials for a participant so the
// storefront can move between views without re-fetching a token.
func (c *Client) SaveSession(ctx context.Context, identity, token, serverURL string, ttl time.Duration) error {
	key := sessionKey(identity)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "token", token)
	pipe.HSet(ctx, key, "server_url", serverURL)
	pipe.HSet(ctx, key, "identity", identity)
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// LoadSession retrieves cached connection credentials for a participant.
func (c *Client) LoadSession(ctx context.Context, identity string) (token, serverURL string, err error) {
	result, err := c.rdb.HGetAll(ctx, sessionKey(identity)).Result()
	if err != nil {
		return "", "", err
	}
	if len(result) == 0 {
		return "", "", nil
	}
	return result["token"], result["server_url"], nil
}

// DeleteSession drops cached credentials for a participant.
func (c *Client) DeleteSession(ctx context.Context, identity string) error {
	return c.rdb.Del(ctx, sessionKey(identity)).Err()
}
