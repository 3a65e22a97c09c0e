package walletbridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ton_mining_miniapp/internal/tonconnect"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"
	"ton_mining_miniapp/pkg/ton"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	TypeWalletStatus      = "wallet_status"
	TypeSendTransaction   = "send_transaction"
	TypeTransactionResult = "transaction_result"
	TypeConfirmTransfer   = "confirm_transfer"
	TypeConfirmResult     = "confirm_result"
	TypeRefresh           = "refresh"
	TypePing              = "ping"
	TypePong              = "pong"

	writeTimeout   = 10 * time.Second
	confirmTimeout = 2 * time.Minute
)

var ErrWalletFailed = errors.New("wallet failed to send transaction")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WalletStatus struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

type TransactionResult struct {
	BOC   string `json:"boc,omitempty"`
	Error string `json:"error,omitempty"`
}

type ConfirmResult struct {
	Approved bool `json:"approved"`
}

type Refresh struct {
	Table string `json:"table"`
}

// WalletStatusFunc is told about every wallet connect and disconnect.
// address is nil on disconnect.
type WalletStatusFunc func(ctx context.Context, telegramID int64, address *string)

type reply struct {
	payload json.RawMessage
	err     error
}

type session struct {
	telegramID int64
	conn       *websocket.Conn
	writeMu    sync.Mutex

	mu      sync.Mutex
	address string
	pending map[string]chan reply

	done chan struct{}
}

// Hub keeps one socket per user to the Mini App, which owns the wallet
// connection, and relays transfer and confirmation requests over it.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int64]*session

	onWalletStatus WalletStatusFunc
}

func NewHub(onWalletStatus WalletStatusFunc) *Hub {
	return &Hub{
		sessions:       make(map[int64]*session),
		onWalletStatus: onWalletStatus,
	}
}

// ServeWS upgrades the request and blocks until the socket closes.
func (h *Hub) ServeWS(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.CurrentUser(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		telegramID: user.ID,
		conn:       conn,
		pending:    make(map[string]chan reply),
		done:       make(chan struct{}),
	}

	h.register(s)
	defer h.unregister(s)

	h.readLoop(s)
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	prev := h.sessions[s.telegramID]
	h.sessions[s.telegramID] = s
	h.mu.Unlock()

	if prev != nil {
		// a newer tab took over
		_ = prev.conn.Close()
	}
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if h.sessions[s.telegramID] == s {
		delete(h.sessions, s.telegramID)
	}
	h.mu.Unlock()

	close(s.done)
	_ = s.conn.Close()

	s.mu.Lock()
	for id, ch := range s.pending {
		ch <- reply{err: tonconnect.ErrWalletNotConnected}
		delete(s.pending, id)
	}
	s.mu.Unlock()
}

func (h *Hub) readLoop(s *session) {
	log := logger.Logger()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("websocket unexpected close",
					zap.Int64("telegram_id", s.telegramID),
					zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("failed to unmarshal message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case TypeWalletStatus:
			h.handleWalletStatus(s, msg)

		case TypeTransactionResult, TypeConfirmResult:
			s.resolve(msg.ID, reply{payload: msg.Payload})

		case TypePing:
			if err := s.write(Message{Type: TypePong}); err != nil {
				log.Warn("failed to send pong", zap.Error(err))
			}

		default:
			log.Debug("unknown message type", zap.String("type", msg.Type))
		}
	}
}

func (h *Hub) handleWalletStatus(s *session, msg Message) {
	var status WalletStatus
	if err := json.Unmarshal(msg.Payload, &status); err != nil {
		logger.Logger().Warn("malformed wallet status", zap.Error(err))
		return
	}

	var address *string
	s.mu.Lock()
	if status.Connected && ton.ValidateAddress(status.Address) == nil {
		s.address = status.Address
		address = &status.Address
	} else {
		s.address = ""
	}
	s.mu.Unlock()

	if h.onWalletStatus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		h.onWalletStatus(ctx, s.telegramID, address)
	}
}

func (h *Hub) session(telegramID int64) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[telegramID]
}

// WalletAddress returns the address of the user's connected wallet.
func (h *Hub) WalletAddress(telegramID int64) (string, bool) {
	s := h.session(telegramID)
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, s.address != ""
}

func (h *Hub) Online(telegramID int64) bool {
	return h.session(telegramID) != nil
}

// SendTransaction asks the user's wallet to sign req and waits for the
// result until ctx ends or the request expires.
func (h *Hub) SendTransaction(ctx context.Context, telegramID int64, req tonconnect.Request) (*tonconnect.Receipt, error) {
	if _, ok := h.WalletAddress(telegramID); !ok {
		return nil, tonconnect.ErrWalletNotConnected
	}

	ctx, cancel := context.WithDeadline(ctx, req.Expires())
	defer cancel()

	payload, err := h.call(ctx, telegramID, TypeSendTransaction, req)
	if err != nil {
		return nil, err
	}

	var result TransactionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("malformed transaction result: %w", err)
	}

	if result.Error != "" {
		return nil, walletError(result.Error)
	}
	if result.BOC == "" {
		return nil, ErrWalletFailed
	}

	return &tonconnect.Receipt{BOC: result.BOC}, nil
}

// Confirm shows the large-transfer prompt and waits for the user's answer.
func (h *Hub) Confirm(ctx context.Context, telegramID int64, prompt tonconnect.Prompt) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	payload, err := h.call(ctx, telegramID, TypeConfirmTransfer, prompt)
	if err != nil {
		return false, err
	}

	var result ConfirmResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return false, fmt.Errorf("malformed confirm result: %w", err)
	}
	return result.Approved, nil
}

// Publish tells the user's screen to re-fetch the data of a table.
func (h *Hub) Publish(telegramID int64, table string) {
	if s := h.session(telegramID); s != nil {
		h.sendRefresh(s, table)
	}
}

// Broadcast tells every connected screen to re-fetch a table.
func (h *Hub) Broadcast(table string) {
	h.mu.RLock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		h.sendRefresh(s, table)
	}
}

func (h *Hub) sendRefresh(s *session, table string) {
	payload, err := json.Marshal(Refresh{Table: table})
	if err != nil {
		return
	}
	if err := s.write(Message{Type: TypeRefresh, Payload: payload}); err != nil {
		logger.Logger().Debug("failed to push refresh",
			zap.Int64("telegram_id", s.telegramID),
			zap.Error(err))
	}
}

func (h *Hub) call(ctx context.Context, telegramID int64, msgType string, body any) (json.RawMessage, error) {
	s := h.session(telegramID)
	if s == nil {
		return nil, tonconnect.ErrWalletNotConnected
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ch := s.await(id)
	defer s.forget(id)

	if err := s.write(Message{Type: msgType, ID: id, Payload: payload}); err != nil {
		return nil, fmt.Errorf("%w: %v", tonconnect.ErrWalletNotConnected, err)
	}

	select {
	case r := <-ch:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *session) await(id string) chan reply {
	ch := make(chan reply, 1)
	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()
	return ch
}

func (s *session) forget(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *session) resolve(id string, r reply) {
	s.mu.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if ok {
		ch <- r
	}
}

func (s *session) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return websocket.ErrCloseSent
	default:
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// walletError maps the wallet SDK's error text. Rejections from the user
// are cancellations, anything else is a wallet failure.
func walletError(text string) error {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "reject") || strings.Contains(lower, "cancel") || strings.Contains(lower, "declin") {
		return ton.ErrCancelled
	}
	return fmt.Errorf("%w: %s", ErrWalletFailed, text)
}
