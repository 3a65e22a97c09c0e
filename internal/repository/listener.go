package repository

import (
	"strings"
	"sync"
	"time"

	"ton_mining_miniapp/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	channelSuffix    = "_changes"
	subscriberBuffer = 16

	OpReconnect = "RECONNECT"
)

// ChangeEvent is one row change pushed by the store's notify trigger.
// TelegramID is zero for changes that concern every user.
type ChangeEvent struct {
	Table      string `json:"table"`
	Op         string `json:"op"`
	TelegramID int64  `json:"telegram_id"`
}

type notificationSource interface {
	Listen(channel string) error
	Unlisten(channel string) error
	Close() error
}

// Feed multiplexes the store's LISTEN/NOTIFY change feed to in-process
// subscribers, one channel per table.
type Feed struct {
	source notificationSource
	notify <-chan *pq.Notification

	mu     sync.Mutex
	subs   map[string]map[uint64]chan ChangeEvent
	nextID uint64
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func NewFeed(dsn string) *Feed {
	log := logger.Logger()

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("change feed listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})

	return newFeed(listener, listener.Notify)
}

func newFeed(source notificationSource, notify <-chan *pq.Notification) *Feed {
	f := &Feed{
		source: source,
		notify: notify,
		subs:   make(map[string]map[uint64]chan ChangeEvent),
		done:   make(chan struct{}),
	}

	f.wg.Add(1)
	go f.run()

	return f
}

// Subscribe starts receiving changes of the given table. The returned cancel
// func must be called to release the subscription; it closes the channel.
func (f *Feed) Subscribe(table string) (<-chan ChangeEvent, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, nil, ErrFeedClosed
	}

	subs, ok := f.subs[table]
	if !ok {
		if err := f.source.Listen(table + channelSuffix); err != nil {
			return nil, nil, err
		}
		subs = make(map[uint64]chan ChangeEvent)
		f.subs[table] = subs
	}

	id := f.nextID
	f.nextID++
	ch := make(chan ChangeEvent, subscriberBuffer)
	subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.unsubscribe(table, id)
		})
	}

	return ch, cancel, nil
}

func (f *Feed) unsubscribe(table string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subs[table]
	if !ok {
		return
	}
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	close(ch)

	if len(subs) == 0 {
		delete(f.subs, table)
		if f.closed {
			return
		}
		if err := f.source.Unlisten(table + channelSuffix); err != nil {
			logger.Logger().Warn("failed to unlisten", zap.String("table", table), zap.Error(err))
		}
	}
}

func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	close(f.done)
	f.wg.Wait()

	f.mu.Lock()
	for table, subs := range f.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(f.subs, table)
	}
	f.mu.Unlock()

	return f.source.Close()
}

func (f *Feed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		case n, ok := <-f.notify:
			if !ok {
				return
			}
			if n == nil {
				// the listener reconnected and may have missed notifications
				f.broadcastReconnect()
				continue
			}
			f.dispatch(n)
		}
	}
}

func (f *Feed) dispatch(n *pq.Notification) {
	table := strings.TrimSuffix(n.Channel, channelSuffix)

	ev := ChangeEvent{Table: table}
	if n.Extra != "" {
		if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
			logger.Logger().Warn("malformed change payload",
				zap.String("channel", n.Channel),
				zap.Error(err))
		}
	}
	if ev.Table == "" {
		ev.Table = table
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver(table, ev)
}

func (f *Feed) broadcastReconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for table := range f.subs {
		f.deliver(table, ChangeEvent{Table: table, Op: OpReconnect})
	}
}

// deliver never blocks: a subscriber that is behind already has a refresh
// queued, so dropping the event loses nothing.
func (f *Feed) deliver(table string, ev ChangeEvent) {
	for _, ch := range f.subs[table] {
		select {
		case ch <- ev:
		default:
			logger.Logger().Debug("change event dropped", zap.String("table", table))
		}
	}
}
