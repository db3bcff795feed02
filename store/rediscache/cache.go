// Package rediscache caches the remaining-stock report in Redis.
//
// Keys, under the configured prefix:
//
//	stock:gen        write generation, INCR after every committed write
//	stock:report:N   report computed while the generation was N
//
// Every server instance shares the generation key, so a commit made by one
// instance retires reports cached by all of them. Reports for old
// generations are never read again and expire with the TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warp/equipment-ledger/withdrawal"
)

const (
	generationKey = "stock:gen"
	reportPrefix  = "stock:report:"
	DefaultTTL    = 5 * time.Minute
)

// StockCache implements withdrawal.StockCache.
type StockCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a cache. prefix namespaces the keys, e.g. "equipment:".
func New(client *redis.Client, prefix string, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StockCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *StockCache) genKey() string {
	return c.prefix + generationKey
}

func (c *StockCache) reportKey(gen uint64) string {
	return c.prefix + reportPrefix + strconv.FormatUint(gen, 10)
}

// setIfCurrentScript stores the report only while the generation key still
// holds the caller's generation. A missing key is generation 0.
// KEYS[1]: generation key, KEYS[2]: report key
// ARGV[1]: expected generation, ARGV[2]: payload, ARGV[3]: TTL in ms
var setIfCurrentScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *StockCache) Generation(ctx context.Context) (uint64, error) {
	key := c.genKey()
	gen, err := c.client.Get(ctx, key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return gen, nil
}

func (c *StockCache) Get(ctx context.Context, gen uint64) ([]withdrawal.StockRow, bool, error) {
	key := c.reportKey(gen)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var cached []cachedRow
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached stock report: %w", err)
	}

	rows := make([]withdrawal.StockRow, len(cached))
	for i, r := range cached {
		rows[i] = withdrawal.StockRow{
			Item: withdrawal.EquipmentItem{
				ID:            withdrawal.ItemID(r.ItemID),
				Name:          r.Name,
				Unit:          r.Unit,
				StockQuantity: r.Stock,
				Notes:         r.Notes,
				CreatedAt:     r.CreatedAt,
				UpdatedAt:     r.UpdatedAt,
			},
			StockQuantity:     r.Stock,
			WithdrawnQuantity: r.Withdrawn,
			RemainingQuantity: r.Remaining,
		}
	}
	return rows, true, nil
}

// Set stores rows under gen. If any instance advanced the generation since
// gen was read, the report is dropped.
func (c *StockCache) Set(ctx context.Context, gen uint64, rows []withdrawal.StockRow) error {
	cached := make([]cachedRow, len(rows))
	for i, r := range rows {
		cached[i] = cachedRow{
			ItemID:    int64(r.Item.ID),
			Name:      r.Item.Name,
			Unit:      r.Item.Unit,
			Notes:     r.Item.Notes,
			Stock:     r.StockQuantity,
			Withdrawn: r.WithdrawnQuantity,
			Remaining: r.RemainingQuantity,
			CreatedAt: r.Item.CreatedAt,
			UpdatedAt: r.Item.UpdatedAt,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	keys := []string{c.genKey(), c.reportKey(gen)}
	err = setIfCurrentScript.Run(ctx, c.client, keys,
		strconv.FormatUint(gen, 10), data, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set stock report: %w", err)
	}
	return nil
}

// Invalidate advances the shared generation.
func (c *StockCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.genKey()).Err()
}
