package api

import (
	"net/http"
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

type giveawayRoutes struct {
	gs service.GiveawayServiceI
}

func NewGiveawayRoutes(handler *gin.RouterGroup, gs service.GiveawayServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &giveawayRoutes{gs: gs}
	h := handler.Group("/giveaways")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", r.GetGiveaways)
		h.GET("/:giveaway_id", r.GetGiveaway)
		h.POST("/:giveaway_id/join", r.JoinGiveaway)
		h.GET("/:giveaway_id/reactions", r.GetReactions)
		h.POST("/:giveaway_id/reactions", r.ToggleReaction)
		h.POST("/advance", authz.AdminOnly(), r.AdvanceExpired)
	}
}

type GiveawayResponse struct {
	GiveawayID      uuid.UUID       `json:"giveaway_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	FeeSymbol       string          `json:"fee_symbol,omitempty"`
	EntryFee        decimal.Decimal `json:"entry_fee"`
	PrizePool       decimal.Decimal `json:"prize_pool"`
	MaxParticipants int             `json:"max_participants,omitempty"`
	Participants    int             `json:"participants"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Joined          bool            `json:"joined"`
	IsFree          bool            `json:"is_free"`
	IsFull          bool            `json:"is_full"`
}

func newGiveawayResponse(g *model.Giveaway) GiveawayResponse {
	return GiveawayResponse{
		GiveawayID:      g.GiveawayID,
		Title:           g.Title,
		Description:     g.Description,
		Status:          string(g.Status),
		FeeSymbol:       g.FeeSymbol,
		EntryFee:        g.EntryFee,
		PrizePool:       g.PrizePool,
		MaxParticipants: g.MaxParticipants,
		Participants:    g.Participants,
		StartsAt:        g.StartsAt,
		EndsAt:          g.EndsAt,
		Joined:          g.Joined,
		IsFree:          g.IsFree(),
		IsFull:          g.IsFull(),
	}
}

type ReactionResponse struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

func giveawayID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("giveaway_id"))
	if err != nil {
		logger.Logger().Error("failed to parse giveaway_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid giveaway_id"})
		return uuid.Nil, false
	}
	return id, true
}

func (r *giveawayRoutes) GetGiveaways(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	giveaways, err := r.gs.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to get giveaways")
		return
	}

	out := make([]GiveawayResponse, len(giveaways))
	for i, g := range giveaways {
		out[i] = newGiveawayResponse(g)
	}

	c.JSON(http.StatusOK, out)
}

func (r *giveawayRoutes) GetGiveaway(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := giveawayID(c)
	if !ok {
		return
	}

	giveaway, err := r.gs.Get(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err, "failed to get giveaway")
		return
	}

	c.JSON(http.StatusOK, newGiveawayResponse(giveaway))
}

func (r *giveawayRoutes) JoinGiveaway(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := giveawayID(c)
	if !ok {
		return
	}

	giveaway, err := r.gs.Join(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err, "failed to join giveaway")
		return
	}

	c.JSON(http.StatusOK, newGiveawayResponse(giveaway))
}

func (r *giveawayRoutes) GetReactions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := giveawayID(c)
	if !ok {
		return
	}

	reactions, err := r.gs.Reactions(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err, "failed to get reactions")
		return
	}

	out := make([]ReactionResponse, len(reactions))
	for i, re := range reactions {
		out[i] = ReactionResponse{Emoji: re.Emoji, Count: re.Count, Reacted: re.Reacted}
	}

	c.JSON(http.StatusOK, out)
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (r *giveawayRoutes) ToggleReaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := giveawayID(c)
	if !ok {
		return
	}

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reaction, err := r.gs.ToggleReaction(c.Request.Context(), id, user.ID, req.Emoji)
	if err != nil {
		respondError(c, err, "failed to toggle reaction")
		return
	}

	c.JSON(http.StatusOK, ReactionResponse{
		Emoji:   reaction.Emoji,
		Count:   reaction.Count,
		Reacted: reaction.Reacted,
	})
}

func (r *giveawayRoutes) AdvanceExpired(c *gin.Context) {
	advanced, err := r.gs.AdvanceExpired(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to advance giveaways")
		return
	}

	c.JSON(http.StatusOK, gin.H{"advanced": advanced})
}
