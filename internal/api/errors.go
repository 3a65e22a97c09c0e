package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/internal/walletbridge"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"
	"ton_mining_miniapp/pkg/ton"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	err     error
	status  int
	message string
}

// Errors the Mini App shows to the user as a notification. Anything else is
// logged and reported with the handler's fallback message.
var errorResponses = []errorResponse{
	{service.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{service.ErrWalletNotConnected, http.StatusConflict, "wallet not connected"},
	{service.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient balance"},

	{ton.ErrInvalidAmount, http.StatusBadRequest, "invalid amount"},
	{ton.ErrBelowMinimum, http.StatusBadRequest, "amount is below the minimum"},
	{ton.ErrAboveMaximum, http.StatusBadRequest, "amount is above the maximum"},
	{ton.ErrConversionMismatch, http.StatusBadRequest, "amount cannot be converted exactly"},
	{ton.ErrInvalidAddress, http.StatusBadRequest, "invalid wallet address"},
	{ton.ErrCancelled, http.StatusConflict, "transaction cancelled"},
	{walletbridge.ErrWalletFailed, http.StatusBadGateway, "wallet failed to send the transaction"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "wallet did not respond in time"},

	{service.ErrDepositNotFound, http.StatusNotFound, "deposit not found"},
	{service.ErrDepositSettled, http.StatusConflict, "deposit already settled"},

	{service.ErrTokenNotFound, http.StatusNotFound, "token not found"},
	{service.ErrSameToken, http.StatusBadRequest, "cannot exchange a token for itself"},

	{service.ErrMissionNotFound, http.StatusNotFound, "mission not found"},
	{service.ErrMissionAlreadyCompleted, http.StatusConflict, "mission already completed"},

	{service.ErrGiveawayNotFound, http.StatusNotFound, "giveaway not found"},
	{service.ErrAlreadyJoined, http.StatusConflict, "already joined"},
	{service.ErrGiveawayClosed, http.StatusConflict, "giveaway is not open"},
	{service.ErrGiveawayFull, http.StatusConflict, "giveaway is full"},
	{service.ErrInvalidReaction, http.StatusBadRequest, "unsupported reaction"},

	{service.ErrServerNotFound, http.StatusNotFound, "server not found"},
	{service.ErrSessionNotFound, http.StatusNotFound, "mining session not found"},
	{service.ErrSessionNotFinished, http.StatusConflict, "mining session is still running"},
	{service.ErrSessionAlreadyClaimed, http.StatusConflict, "mining reward already claimed"},

	{service.ErrSpinNotAvailable, http.StatusForbidden, "The required time has not yet passed since your last spin"},
	{service.ErrNoPrizes, http.StatusServiceUnavailable, "roulette is not available"},
}

func respondError(c *gin.Context, err error, fallback string) {
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			logger.Logger().Info(fallback, zap.Error(err))
			c.JSON(r.status, gin.H{"error": r.message})
			return
		}
	}

	logger.Logger().Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func currentUser(c *gin.Context) (*auth.TelegramUserData, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		logger.Logger().Error("telegram user data not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

// parseAmount accepts the raw text of an amount field.
func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, ton.ErrInvalidAmount
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ton.ErrInvalidAmount
	}
	return amount, nil
}
