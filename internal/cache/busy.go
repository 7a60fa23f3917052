package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gracechapel/scheduling/internal/interval"
)

// BusyCache keeps the last successfully fetched busy intervals per calendar
// and day in Redis. It only feeds the degraded availability path: when the
// external calendar is unreachable, stale-but-flagged data beats guessing.
type BusyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBusyCache(client *redis.Client, ttl time.Duration) *BusyCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &BusyCache{client: client, ttl: ttl}
}

type cachedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func busyKey(calendarID string, day time.Time) string {
	return fmt.Sprintf("busy:%s:%s", calendarID, day.Format("2006-01-02"))
}

func encodeBusy(busy []interval.Interval) ([]byte, error) {
	entries := make([]cachedInterval, 0, len(busy))
	for _, iv := range busy {
		entries = append(entries, cachedInterval{Start: iv.Start, End: iv.End})
	}
	return json.Marshal(entries)
}

func decodeBusy(data []byte) ([]interval.Interval, error) {
	var entries []cachedInterval
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	busy := make([]interval.Interval, 0, len(entries))
	for _, e := range entries {
		busy = append(busy, interval.Interval{Start: e.Start, End: e.End})
	}
	return busy, nil
}

func (c *BusyCache) Put(ctx context.Context, calendarID string, day time.Time, busy []interval.Interval) error {
	data, err := encodeBusy(busy)
	if err != nil {
		return fmt.Errorf("marshal busy intervals: %w", err)
	}

	if err := c.client.Set(ctx, busyKey(calendarID, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache busy intervals: %w", err)
	}
	return nil
}

// Get returns the cached busy intervals and whether an entry existed.
func (c *BusyCache) Get(ctx context.Context, calendarID string, day time.Time) ([]interval.Interval, bool, error) {
	data, err := c.client.Get(ctx, busyKey(calendarID, day)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read busy cache: %w", err)
	}

	busy, err := decodeBusy(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode busy cache: %w", err)
	}
	return busy, true, nil
}
