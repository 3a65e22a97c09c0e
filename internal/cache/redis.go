package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyBalances  = "balances:%d"
	keyRateLimit = "ratelimit:%d:%s"

	balancesPattern = "balances:*"

	DefaultBalanceTTL = 30 * time.Second
)

var ErrMiss = errors.New("cache miss")

type Config struct {
	Addr       string        `json:"addr"`
	Password   string        `json:"password"`
	DB         int           `json:"db"`
	BalanceTTL time.Duration `json:"balanceTTL"`
}

type Redis struct {
	client     *redis.Client
	balanceTTL time.Duration
}

func New(ctx context.Context, cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, cfg.BalanceTTL), nil
}

func NewWithClient(client *redis.Client, balanceTTL time.Duration) *Redis {
	if balanceTTL <= 0 {
		balanceTTL = DefaultBalanceTTL
	}
	return &Redis{
		client:     client,
		balanceTTL: balanceTTL,
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type cachedHolding struct {
	Symbol    string          `json:"symbol"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *Redis) GetBalances(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(keyBalances, telegramID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var cached []cachedHolding
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	holdings := make([]*model.Holding, len(cached))
	for i, c := range cached {
		holdings[i] = &model.Holding{
			TelegramID: telegramID,
			Symbol:     c.Symbol,
			Balance:    c.Balance,
			UpdatedAt:  c.UpdatedAt,
		}
	}
	return holdings, nil
}

func (r *Redis) SetBalances(ctx context.Context, telegramID int64, holdings []*model.Holding) error {
	cached := make([]cachedHolding, len(holdings))
	for i, h := range holdings {
		cached[i] = cachedHolding{
			Symbol:    h.Symbol,
			Balance:   h.Balance,
			UpdatedAt: h.UpdatedAt,
		}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, fmt.Sprintf(keyBalances, telegramID), data, r.balanceTTL).Err()
}

func (r *Redis) InvalidateBalances(ctx context.Context, telegramID int64) error {
	return r.client.Del(ctx, fmt.Sprintf(keyBalances, telegramID)).Err()
}

// InvalidateAllBalances drops every cached balance. Used when change events
// may have been missed.
func (r *Redis) InvalidateAllBalances(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, balancesPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Allow implements a fixed-window counter: at most limit calls per window
// for the given user and action.
func (r *Redis) Allow(ctx context.Context, telegramID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(keyRateLimit, telegramID, action)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(limit), nil
}
