package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDepthTTL = 5 * time.Second
	defaultTopTTL   = 2 * time.Second
)

// Cache mirrors depth and top-of-book snapshots into Redis so read traffic
// never touches the engine. Entries expire quickly; a missing key just means
// a caller should fall back to the live snapshot endpoint.
type Cache struct {
	client   *redis.Client
	depthTTL time.Duration
	topTTL   time.Duration
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client:   client,
		depthTTL: defaultDepthTTL,
		topTTL:   defaultTopTTL,
	}
}

func depthKey(instrument string) string {
	return fmt.Sprintf("matching:orderbook:%s", instrument)
}

func topKey(instrument string) string {
	return fmt.Sprintf("matching:top:%s", instrument)
}

// Publish writes both the depth snapshot and its top-of-book reduction.
func (c *Cache) Publish(ctx context.Context, snap Snapshot) error {
	depth, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	top, err := json.Marshal(snap.Top())
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, depthKey(snap.Instrument), depth, c.depthTTL)
	pipe.Set(ctx, topKey(snap.Instrument), top, c.topTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Depth reads a cached snapshot back.
func (c *Cache) Depth(ctx context.Context, instrument string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, depthKey(instrument)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("depth cache miss for %s: %w", instrument, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Top reads the cached top-of-book back.
func (c *Cache) Top(ctx context.Context, instrument string) (*TopOfBook, error) {
	raw, err := c.client.Get(ctx, topKey(instrument)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("top cache miss for %s: %w", instrument, err)
	}
	var top TopOfBook
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, err
	}
	return &top, nil
}
