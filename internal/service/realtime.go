package service

import (
	"context"
	"fmt"

	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/pkg/logger"

	"go.uber.org/zap"
)

// Tables the Mini App keeps live views of.
var RealtimeTables = []string{
	"wallets",
	"transactions",
	"giveaways",
	"giveaway_participants",
	"reactions",
	"missions",
	"user_servers",
}

type ChangeFeed interface {
	Subscribe(table string) (<-chan repository.ChangeEvent, func(), error)
}

type RefreshPublisher interface {
	Publish(telegramID int64, table string)
	Broadcast(table string)
}

// RealtimeService turns store change events into refresh hints. Clients
// re-fetch the whole view on a hint.
type RealtimeService struct {
	feed      ChangeFeed
	publisher RefreshPublisher
	cache     BalanceCache
	tables    []string
}

func NewRealtimeService(feed ChangeFeed, publisher RefreshPublisher, balances BalanceCache, tables ...string) *RealtimeService {
	if len(tables) == 0 {
		tables = RealtimeTables
	}
	return &RealtimeService{
		feed:      feed,
		publisher: publisher,
		cache:     balances,
		tables:    tables,
	}
}

// Run blocks until ctx is done, then releases every subscription.
func (s *RealtimeService) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	events := make(chan repository.ChangeEvent)
	var cancels []func()
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	for _, table := range s.tables {
		ch, cancel, err := s.feed.Subscribe(table)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", table, err)
		}
		cancels = append(cancels, cancel)

		go func(ch <-chan repository.ChangeEvent) {
			for ev := range ch {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	for {
		select {
		case ev := <-events:
			s.handle(ctx, ev)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *RealtimeService) handle(ctx context.Context, ev repository.ChangeEvent) {
	if ev.Table == "wallets" {
		s.invalidate(ctx, ev)
	}

	if ev.Op == repository.OpReconnect || ev.TelegramID == 0 {
		s.publisher.Broadcast(ev.Table)
		return
	}
	s.publisher.Publish(ev.TelegramID, ev.Table)
}

// invalidate drops cached balances for a wallets event. After a reconnect
// any user may have missed a change, so the whole cache goes.
func (s *RealtimeService) invalidate(ctx context.Context, ev repository.ChangeEvent) {
	log := logger.Logger()

	switch {
	case ev.Op == repository.OpReconnect:
		if err := s.cache.InvalidateAllBalances(ctx); err != nil {
			log.Warn("Balance cache flush failed", zap.Error(err))
		}
	case ev.TelegramID != 0:
		if err := s.cache.InvalidateBalances(ctx, ev.TelegramID); err != nil {
			log.Warn("Balance cache invalidation failed",
				zap.Int64("telegram_id", ev.TelegramID),
				zap.Error(err))
		}
	}
}
