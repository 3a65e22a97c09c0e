package api

import (
	"net/http"
	"strconv"
	"time"

	"ton_mining_miniapp/internal/middleware"
	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type walletRoutes struct {
	ws service.WalletServiceI
}

func NewWalletRoutes(handler *gin.RouterGroup, ws service.WalletServiceI, a *auth.TelegramAuth, rl *middleware.RateLimiter, authz *middleware.Authorization) {
	r := &walletRoutes{ws: ws}
	h := handler.Group("/wallet")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/balances", r.GetBalances)
		h.GET("/tokens", r.GetTokens)
		h.GET("/history", r.GetHistory)
		h.POST("/deposit", rl.Limit("deposit"), r.Deposit)
		h.POST("/exchange", rl.Limit("exchange"), r.Exchange)
		h.POST("/withdraw", rl.Limit("withdraw"), r.Withdraw)
		h.POST("/deposits/:transaction_id/settle", authz.AdminOnly(), r.SettleDeposit)
	}
}

type HoldingResponse struct {
	Symbol    string          `json:"symbol"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newHoldingResponses(holdings []*model.Holding) []HoldingResponse {
	out := make([]HoldingResponse, len(holdings))
	for i, h := range holdings {
		out[i] = HoldingResponse{
			Symbol:    h.Symbol,
			Balance:   h.Balance,
			UpdatedAt: h.UpdatedAt,
		}
	}
	return out
}

type TokenResponse struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Decimals int             `json:"decimals"`
	PriceTON decimal.Decimal `json:"price_ton"`
	IconURL  string          `json:"icon_url,omitempty"`
}

type TransactionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Symbol    string          `json:"symbol"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Address   *string         `json:"address,omitempty"`
	BOC       *string         `json:"boc,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func newTransactionResponse(tx *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID,
		Kind:      string(tx.Kind),
		Symbol:    tx.Symbol,
		Amount:    tx.Amount,
		Status:    string(tx.Status),
		Address:   tx.Address,
		BOC:       tx.BOC,
		CreatedAt: tx.CreatedAt,
	}
}

func (r *walletRoutes) GetBalances(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	holdings, err := r.ws.Balances(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to get balances")
		return
	}

	c.JSON(http.StatusOK, newHoldingResponses(holdings))
}

func (r *walletRoutes) GetTokens(c *gin.Context) {
	tokens, err := r.ws.Tokens(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get tokens")
		return
	}

	out := make([]TokenResponse, len(tokens))
	for i, t := range tokens {
		out[i] = TokenResponse{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Decimals: t.Decimals,
			PriceTON: t.PriceTON,
			IconURL:  t.IconURL,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *walletRoutes) GetHistory(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			log.Error("failed to parse limit", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	txs, err := r.ws.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		respondError(c, err, "failed to get transactions")
		return
	}

	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = newTransactionResponse(tx)
	}

	c.JSON(http.StatusOK, out)
}

// AmountRequest carries the amount as typed by the user.
type AmountRequest struct {
	Amount string `json:"amount"`
}

func (r *walletRoutes) Deposit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(c, err, "failed to deposit")
		return
	}

	tx, err := r.ws.Deposit(c.Request.Context(), user.ID, amount)
	if err != nil {
		respondError(c, err, "failed to deposit")
		return
	}

	c.JSON(http.StatusCreated, newTransactionResponse(tx))
}

type ExchangeRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount"`
}

func (r *walletRoutes) Exchange(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	result, err := r.ws.Exchange(c.Request.Context(), &model.Exchange{
		TelegramID: user.ID,
		From:       req.From,
		To:         req.To,
		Amount:     amount,
	})
	if err != nil {
		respondError(c, err, "failed to exchange")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":     req.From,
		"to":       req.To,
		"debited":  result.Debited,
		"credited": result.Credited,
	})
}

func (r *walletRoutes) Withdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(c, err, "failed to withdraw")
		return
	}

	tx, err := r.ws.Withdraw(c.Request.Context(), user.ID, amount)
	if err != nil {
		respondError(c, err, "failed to withdraw")
		return
	}

	c.JSON(http.StatusAccepted, newTransactionResponse(tx))
}

// SettleDepositRequest is sent by the treasury operator once the transfer
// has been seen on chain, or has expired without arriving.
type SettleDepositRequest struct {
	Received *bool `json:"received" binding:"required"`
}

func (r *walletRoutes) SettleDeposit(c *gin.Context) {
	log := logger.Logger()

	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		log.Error("failed to parse transaction ID", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}

	var req SettleDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tx, err := r.ws.SettleDeposit(c.Request.Context(), transactionID, *req.Received)
	if err != nil {
		respondError(c, err, "failed to settle deposit")
		return
	}

	c.JSON(http.StatusOK, newTransactionResponse(tx))
}
