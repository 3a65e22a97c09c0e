package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/cache"
	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/tonconnect"
	"ton_mining_miniapp/pkg/logger"
	"ton_mining_miniapp/pkg/ton"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	// depositPromptGrace covers the confirmation prompt shown before the
	// wallet request is built and its validUntil starts counting.
	depositPromptGrace = time.Minute
)

type WalletService struct {
	repo      WalletRepository
	cache     BalanceCache
	transfers TransferClient
	wallets   WalletAddressProvider
	notifier  Notifier
	treasury  string
}

func NewWalletService(
	repo WalletRepository,
	balances BalanceCache,
	transfers TransferClient,
	wallets WalletAddressProvider,
	notifier Notifier,
	treasury string,
) *WalletService {
	return &WalletService{
		repo:      repo,
		cache:     balances,
		transfers: transfers,
		wallets:   wallets,
		notifier:  notifier,
		treasury:  treasury,
	}
}

func (s *WalletService) Balances(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	holdings, err := s.cache.GetBalances(ctx, telegramID)
	if err == nil {
		return holdings, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Logger().Warn("Balance cache read failed",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}

	holdings, err = s.repo.GetHoldings(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	if err := s.cache.SetBalances(ctx, telegramID, holdings); err != nil {
		logger.Logger().Warn("Balance cache write failed",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
	return holdings, nil
}

func (s *WalletService) Tokens(ctx context.Context) ([]*model.Token, error) {
	tokens, err := s.repo.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

func (s *WalletService) History(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	txs, err := s.repo.ListTransactions(ctx, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Deposit asks the user's wallet to send amount TON to the treasury and
// records the signed message as a pending deposit. The balance is credited
// by SettleDeposit once the treasury sees the transfer.
//
// The wallet may sign after the caller has gone away, so the exchange with
// the wallet runs detached from ctx and is bounded by the request lifetime.
func (s *WalletService) Deposit(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error) {
	value, err := s.nanotonAmount(amount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.transfers.TTL()+depositPromptGrace)
	defer cancel()

	receipt, err := s.transfers.Submit(ctx, telegramID, tonconnect.Transfer{
		To:     s.treasury,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}

	treasury := s.treasury
	tx := &model.Transaction{
		TelegramID: telegramID,
		Kind:       model.TransactionDeposit,
		Symbol:     model.SymbolTON,
		Amount:     value,
		Status:     model.TransactionPending,
		Address:    &treasury,
		BOC:        &receipt.BOC,
	}
	if err := s.repo.RecordDeposit(ctx, tx); err != nil {
		logger.Logger().Error("Signed deposit was not recorded",
			zap.Int64("telegram_id", telegramID),
			zap.String("boc", receipt.BOC),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	s.notify(ctx, telegramID, fmt.Sprintf("Deposit of %s TON is awaiting confirmation.", ton.Format(value)))

	return tx, nil
}

// SettleDeposit closes a pending deposit. A received deposit is credited to
// the user's balance; otherwise it is marked failed and nothing moves.
func (s *WalletService) SettleDeposit(ctx context.Context, transactionID uuid.UUID, received bool) (*model.Transaction, error) {
	status := model.TransactionFailed
	if received {
		status = model.TransactionCompleted
	}

	tx, err := s.repo.SettleDeposit(ctx, transactionID, status)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return nil, ErrDepositSettled
		}
		return nil, mapRepositoryError(err, ErrDepositNotFound)
	}

	logger.Logger().Info("Deposit settled",
		zap.String("transaction_id", transactionID.String()),
		zap.Int64("telegram_id", tx.TelegramID),
		zap.String("status", string(tx.Status)))

	if !received {
		s.notify(ctx, tx.TelegramID, fmt.Sprintf("Deposit of %s TON was not received.", ton.Format(tx.Amount)))
		return tx, nil
	}

	s.invalidate(ctx, tx.TelegramID)
	s.notify(ctx, tx.TelegramID, fmt.Sprintf("Deposit of %s TON received.", ton.Format(tx.Amount)))
	return tx, nil
}

// Exchange converts between two registry tokens at their TON prices. Both
// sides are truncated to their token's decimals, and the credit is priced
// from the truncated debit.
func (s *WalletService) Exchange(ctx context.Context, ex *model.Exchange) (*model.ExchangeResult, error) {
	if !ex.Amount.IsPositive() {
		return nil, ton.ErrInvalidAmount
	}
	if ex.From == ex.To {
		return nil, ErrSameToken
	}

	from, err := s.repo.GetToken(ctx, ex.From)
	if err != nil {
		return nil, mapRepositoryError(err, ErrTokenNotFound)
	}
	to, err := s.repo.GetToken(ctx, ex.To)
	if err != nil {
		return nil, mapRepositoryError(err, ErrTokenNotFound)
	}
	if !from.PriceTON.IsPositive() || !to.PriceTON.IsPositive() {
		return nil, ErrTokenNotFound
	}

	debited := ex.Amount.Truncate(int32(from.Decimals))
	result := &model.ExchangeResult{
		Debited:  debited,
		Credited: debited.Mul(from.PriceTON).Div(to.PriceTON).Truncate(int32(to.Decimals)),
	}
	if !result.Debited.IsPositive() || !result.Credited.IsPositive() {
		return nil, ton.ErrBelowMinimum
	}

	if err := s.repo.ApplyExchange(ctx, ex, result); err != nil {
		return nil, mapRepositoryError(err, ErrTokenNotFound)
	}

	s.invalidate(ctx, ex.TelegramID)
	return result, nil
}

// Withdraw debits TON and queues a payout to the user's connected wallet.
// The payout itself is sent by the treasury operator.
func (s *WalletService) Withdraw(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error) {
	value, err := s.nanotonAmount(amount)
	if err != nil {
		return nil, err
	}

	address, err := s.withdrawalAddress(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		TelegramID: telegramID,
		Kind:       model.TransactionWithdrawal,
		Symbol:     model.SymbolTON,
		Amount:     value,
		Status:     model.TransactionPending,
		Address:    &address,
	}
	if err := s.repo.RequestWithdrawal(ctx, tx); err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	s.invalidate(ctx, telegramID)
	s.notify(ctx, telegramID, fmt.Sprintf("Withdrawal of %s TON is queued.", ton.Format(value)))

	return tx, nil
}

func (s *WalletService) withdrawalAddress(ctx context.Context, telegramID int64) (string, error) {
	if address, ok := s.wallets.WalletAddress(telegramID); ok && address != "" {
		return address, ton.ValidateAddress(address)
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return "", ErrWalletNotConnected
	}
	return *user.WalletAddress, ton.ValidateAddress(*user.WalletAddress)
}

// nanotonAmount validates amount and returns it rounded down to a whole
// nanoton, which is what the wallet actually moves.
func (s *WalletService) nanotonAmount(amount float64) (decimal.Decimal, error) {
	nano, err := s.transfers.Limits().ToNanotons(amount)
	if err != nil {
		return decimal.Zero, err
	}
	return ton.FromNanotons(nano)
}

func (s *WalletService) invalidate(ctx context.Context, telegramID int64) {
	if err := s.cache.InvalidateBalances(ctx, telegramID); err != nil {
		logger.Logger().Warn("Balance cache invalidation failed",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
}

func (s *WalletService) notify(ctx context.Context, telegramID int64, text string) {
	notify(ctx, s.notifier, telegramID, text)
}
