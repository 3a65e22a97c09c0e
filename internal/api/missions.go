package api

import (
	"net/http"
	"time"

	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type missionRoutes struct {
	ms service.MissionServiceI
}

func NewMissionRoutes(handler *gin.RouterGroup, ms service.MissionServiceI, a *auth.TelegramAuth) {
	r := &missionRoutes{ms: ms}
	h := handler.Group("/missions")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", r.GetMissions)
		h.POST("/:mission_id/complete", r.CompleteMission)
	}
}

type MissionResponse struct {
	MissionID    uuid.UUID       `json:"mission_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Link         string          `json:"link,omitempty"`
	RewardSymbol string          `json:"reward_symbol"`
	Reward       decimal.Decimal `json:"reward"`
	Completed    bool            `json:"completed"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

func (r *missionRoutes) GetMissions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	missions, err := r.ms.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to get missions")
		return
	}

	out := make([]MissionResponse, len(missions))
	for i, m := range missions {
		out[i] = MissionResponse{
			MissionID:    m.MissionID,
			Title:        m.Title,
			Description:  m.Description,
			Link:         m.Link,
			RewardSymbol: m.RewardSymbol,
			Reward:       m.Reward,
			Completed:    m.Completed,
			CompletedAt:  m.CompletedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *missionRoutes) CompleteMission(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	missionID, err := uuid.Parse(c.Param("mission_id"))
	if err != nil {
		logger.Logger().Error("failed to parse mission_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mission_id"})
		return
	}

	mission, err := r.ms.Complete(c.Request.Context(), user.ID, missionID)
	if err != nil {
		respondError(c, err, "failed to complete mission")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mission_id":    mission.MissionID,
		"reward_symbol": mission.RewardSymbol,
		"reward":        mission.Reward,
	})
}
