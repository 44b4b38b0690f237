// Package cache keeps rendered booking views in Redis. A nil *BookingCache or a
// cache without a client is valid and behaves as always-miss.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cargobooking/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "booking:view"

type BookingCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisClient connects to addr and pings it. It returns nil when Redis is
// unreachable so the caller can run without caching.
func NewRedisClient(addr, password string, db int, useTLS bool) *redis.Client {
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if useTLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  password,
		DB:        db,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

func NewBookingCache(rdb redis.Cmdable, ttl time.Duration) *BookingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &BookingCache{rdb: rdb, ttl: ttl, prefix: defaultPrefix}
}

func (c *BookingCache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *BookingCache) idKey(id int64) string {
	return c.prefix + ":id:" + strconv.FormatInt(id, 10)
}

func (c *BookingCache) codeKey(code string) string {
	return c.prefix + ":code:" + code
}

// GetByID returns the cached view and true on a hit.
func (c *BookingCache) GetByID(ctx context.Context, id int64) (models.BookingView, bool) {
	if !c.enabled() {
		return models.BookingView{}, false
	}
	return c.get(ctx, c.idKey(id))
}

// GetByCode returns the cached view and true on a hit.
func (c *BookingCache) GetByCode(ctx context.Context, code string) (models.BookingView, bool) {
	if !c.enabled() {
		return models.BookingView{}, false
	}
	return c.get(ctx, c.codeKey(code))
}

func (c *BookingCache) get(ctx context.Context, key string) (models.BookingView, bool) {
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return models.BookingView{}, false
	}
	var v cachedView
	if err := json.Unmarshal(bs, &v); err != nil {
		return models.BookingView{}, false
	}
	return v.toView(), true
}

// putIfFresh writes the view under KEYS[2] and KEYS[3] only while the
// invalidation counter in KEYS[1] still equals ARGV[1].
var putIfFresh = redis.NewScript(`
local gen = tonumber(redis.call('GET', KEYS[1]) or '0')
if gen ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *BookingCache) genKey() string {
	return c.prefix + ":gen"
}

// Generation returns the invalidation counter. Readers take it before loading
// from MySQL and pass it to Put. -1 means the counter could not be read and the
// load must not be cached.
func (c *BookingCache) Generation(ctx context.Context) int64 {
	if !c.enabled() {
		return -1
	}
	n, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		return -1
	}
	return n
}

// Put stores v under both its id and its code, unless an invalidation ran after
// gen was read. It reports whether v was stored.
func (c *BookingCache) Put(ctx context.Context, v models.BookingView, gen int64) (bool, error) {
	if !c.enabled() || gen < 0 {
		return false, nil
	}
	bs, err := json.Marshal(fromView(v))
	if err != nil {
		return false, err
	}
	keys := []string{c.genKey(), c.idKey(v.ID), c.codeKey(v.BookingCode)}
	n, err := putIfFresh.Run(ctx, c.rdb, keys, gen, bs, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate bumps the invalidation counter and drops the entries for id and
// every given code (old and new code on rename).
func (c *BookingCache) Invalidate(ctx context.Context, id int64, codes ...string) error {
	if !c.enabled() {
		return nil
	}
	keys := []string{c.idKey(id)}
	for _, code := range codes {
		if code != "" {
			keys = append(keys, c.codeKey(code))
		}
	}
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, c.genKey())
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// cachedView keeps the legacy columns that BookingView hides from JSON.
type cachedView struct {
	models.BookingView
	LegacyType   string `json:"legacy_container_type,omitempty"`
	LegacyNumber string `json:"legacy_container_number,omitempty"`
}

func fromView(v models.BookingView) cachedView {
	return cachedView{BookingView: v, LegacyType: v.LegacyContainerType, LegacyNumber: v.LegacyContainerNumber}
}

func (cv cachedView) toView() models.BookingView {
	v := cv.BookingView
	v.LegacyContainerType = cv.LegacyType
	v.LegacyContainerNumber = cv.LegacyNumber
	return v
}
