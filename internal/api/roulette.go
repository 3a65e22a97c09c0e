package api

import (
	"net/http"
	"time"

	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type rouletteRoutes struct {
	rs service.RouletteServiceI
}

func NewRouletteRoutes(handler *gin.RouterGroup, rs service.RouletteServiceI, a *auth.TelegramAuth) {
	r := &rouletteRoutes{rs: rs}
	h := handler.Group("/roulette")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", r.GetRouletteStatus)
		h.POST("/spin", r.Spin)
	}
}

type PrizeResponse struct {
	PrizeID int             `json:"prize_id"`
	Label   string          `json:"label"`
	Symbol  string          `json:"symbol"`
	Amount  decimal.Decimal `json:"amount"`
}

type RouletteStatusResponse struct {
	LastSpinAt   *time.Time      `json:"last_spin_at,omitempty"`
	NextSpinAt   *time.Time      `json:"next_spin_at,omitempty"`
	IsAvailable  bool            `json:"is_available"`
	HasNeverSpun bool            `json:"has_never_spun"`
	Prizes       []PrizeResponse `json:"prizes"`
}

func (r *rouletteRoutes) GetRouletteStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := r.rs.GetStatus(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to get roulette status")
		return
	}

	prizes := make([]PrizeResponse, len(status.Prizes))
	for i, p := range status.Prizes {
		prizes[i] = PrizeResponse{
			PrizeID: p.PrizeID,
			Label:   p.Label,
			Symbol:  p.Symbol,
			Amount:  p.Amount,
		}
	}

	c.JSON(http.StatusOK, RouletteStatusResponse{
		LastSpinAt:   status.LastSpinAt,
		NextSpinAt:   status.NextSpinAt,
		IsAvailable:  status.IsAvailable,
		HasNeverSpun: status.HasNeverSpun,
		Prizes:       prizes,
	})
}

func (r *rouletteRoutes) Spin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	spin, err := r.rs.Spin(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "failed to spin")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prize": PrizeResponse{
			PrizeID: spin.Prize.PrizeID,
			Label:   spin.Prize.Label,
			Symbol:  spin.Prize.Symbol,
			Amount:  spin.Prize.Amount,
		},
		"won":     !spin.Prize.IsNothing(),
		"spun_at": spin.SpunAt,
	})
}
