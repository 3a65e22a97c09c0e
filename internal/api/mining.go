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

type miningRoutes struct {
	ms service.MiningServiceI
}

func NewMiningRoutes(handler *gin.RouterGroup, ms service.MiningServiceI, a *auth.TelegramAuth, rl *middleware.RateLimiter) {
	r := &miningRoutes{ms: ms}
	h := handler.Group("/mining")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/servers", r.GetServers)
		h.POST("/servers/:server_id/rent", rl.Limit("rent"), r.RentServer)
		h.GET("/sessions", r.GetSessions)
		h.POST("/sessions/:session_id/claim", r.ClaimSession)
	}
}

type ServerResponse struct {
	ServerID        int             `json:"server_id"`
	Name            string          `json:"name"`
	PriceTON        decimal.Decimal `json:"price_ton"`
	RewardSymbol    string          `json:"reward_symbol"`
	Reward          decimal.Decimal `json:"reward"`
	DurationSeconds int64           `json:"duration_seconds"`
}

// SessionResponse carries the countdown so the client can render it
// without its own clock drift.
type SessionResponse struct {
	SessionID        uuid.UUID       `json:"session_id"`
	ServerID         int             `json:"server_id"`
	ServerName       string          `json:"server_name"`
	RewardSymbol     string          `json:"reward_symbol"`
	Reward           decimal.Decimal `json:"reward"`
	StartedAt        time.Time       `json:"started_at"`
	EndsAt           time.Time       `json:"ends_at"`
	ClaimedAt        *time.Time      `json:"claimed_at,omitempty"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Progress         float64         `json:"progress"`
	Claimable        bool            `json:"claimable"`
}

func newSessionResponse(s *model.MiningSession, now time.Time) SessionResponse {
	return SessionResponse{
		SessionID:        s.SessionID,
		ServerID:         s.ServerID,
		ServerName:       s.ServerName,
		RewardSymbol:     s.RewardSymbol,
		Reward:           s.Reward,
		StartedAt:        s.StartedAt,
		EndsAt:           s.EndsAt,
		ClaimedAt:        s.ClaimedAt,
		RemainingSeconds: int64(s.Remaining(now).Seconds()),
		Progress:         s.Progress(now),
		Claimable:        s.Claimable(now),
	}
}

func (r *miningRoutes) GetServers(c *gin.Context) {
	servers, err := r.ms.Servers(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get servers")
		return
	}

	out := make([]ServerResponse, len(servers))
	for i, s := range servers {
		out[i] = ServerResponse{
			ServerID:        s.ServerID,
			Name:            s.Name,
			PriceTON:        s.PriceTON,
			RewardSymbol:    s.RewardSymbol,
			Reward:          s.Reward,
			DurationSeconds: int64(s.Duration.Seconds()),
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *miningRoutes) RentServer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	serverID, err := strconv.Atoi(c.Param("server_id"))
	if err != nil {
		logger.Logger().Error("failed to parse server_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid server_id"})
		return
	}

	session, err := r.ms.Rent(c.Request.Context(), user.ID, serverID)
	if err != nil {
		respondError(c, err, "failed to rent server")
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(session, r.ms.Now()))
}

func (r *miningRoutes) GetSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessions, err := r.ms.Sessions(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to get mining sessions")
		return
	}

	now := r.ms.Now()
	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = newSessionResponse(s, now)
	}

	c.JSON(http.StatusOK, out)
}

func (r *miningRoutes) ClaimSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		logger.Logger().Error("failed to parse session_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
		return
	}

	session, err := r.ms.Claim(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		respondError(c, err, "failed to claim mining reward")
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session, r.ms.Now()))
}
