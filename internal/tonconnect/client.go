package tonconnect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/pkg/logger"
	"ton_mining_miniapp/pkg/ton"

	"go.uber.org/zap"
)

const DefaultTTL = 5 * time.Minute

var ErrWalletNotConnected = errors.New("wallet not connected")

type Sender interface {
	SendTransaction(ctx context.Context, telegramID int64, req Request) (*Receipt, error)
}

type Confirmer interface {
	Confirm(ctx context.Context, telegramID int64, prompt Prompt) (bool, error)
}

type Client struct {
	sender    Sender
	confirmer Confirmer
	limits    ton.Limits
	ttl       time.Duration
	now       func() time.Time
}

type Option func(*Client)

// WithTTL sets how long a built request stays valid. Non-positive values
// keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(sender Sender, confirmer Confirmer, limits ton.Limits, opts ...Option) *Client {
	c := &Client{
		sender:    sender,
		confirmer: confirmer,
		limits:    limits,
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Limits() ton.Limits {
	return c.limits
}

// TTL is how long a built request stays valid in the wallet.
func (c *Client) TTL() time.Duration {
	return c.ttl
}

// Build validates a transfer and turns it into a one-message wallet request.
// It does not ask for confirmation.
func (c *Client) Build(t Transfer) (Request, error) {
	if err := ton.ValidateAddress(t.To); err != nil {
		return Request{}, err
	}

	amount, err := c.limits.ToNanotons(t.Amount)
	if err != nil {
		return Request{}, err
	}

	return Request{
		ValidUntil: c.now().Add(c.ttl).Unix(),
		Messages: []Message{{
			Address: t.To,
			Amount:  amount,
			Payload: t.Payload,
		}},
	}, nil
}

// Submit sends exactly one transfer to the user's wallet and waits for the
// signed result. Large transfers are confirmed with the user first.
func (c *Client) Submit(ctx context.Context, telegramID int64, t Transfer) (*Receipt, error) {
	log := logger.Logger()

	if err := c.limits.Validate(t.Amount); err != nil {
		transfersFailed.WithLabelValues(reason(err)).Inc()
		return nil, err
	}

	if err := ton.ValidateAddress(t.To); err != nil {
		transfersFailed.WithLabelValues(reason(err)).Inc()
		return nil, err
	}

	if c.limits.RequiresConfirmation(t.Amount) {
		approved, err := c.confirmer.Confirm(ctx, telegramID, Prompt{To: t.To, Amount: t.Amount})
		if err != nil {
			transfersFailed.WithLabelValues(reason(err)).Inc()
			return nil, fmt.Errorf("failed to confirm transfer: %w", err)
		}
		if !approved {
			transfersFailed.WithLabelValues(reason(ton.ErrCancelled)).Inc()
			log.Info("large transfer declined",
				zap.Int64("telegram_id", telegramID),
				zap.Float64("amount", t.Amount))
			return nil, ton.ErrCancelled
		}
	}

	req, err := c.Build(t)
	if err != nil {
		transfersFailed.WithLabelValues(reason(err)).Inc()
		return nil, err
	}

	receipt, err := c.sender.SendTransaction(ctx, telegramID, req)
	if err != nil {
		transfersFailed.WithLabelValues(reason(err)).Inc()
		return nil, err
	}

	transfersSubmitted.Inc()
	log.Info("transfer signed",
		zap.Int64("telegram_id", telegramID),
		zap.String("to", t.To),
		zap.String("amount", req.Messages[0].Amount))

	return receipt, nil
}
