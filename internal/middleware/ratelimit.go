package middleware

import (
	"context"
	"net/http"
	"time"

	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, telegramID int64, action string, limit int, window time.Duration) (bool, error)
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// RateLimiter caps money-moving calls per user. It fails open when the
// limiter backend is unavailable.
type RateLimiter struct {
	limiter Limiter
	cfg     RateLimitConfig
}

func NewRateLimiter(limiter Limiter, cfg RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{limiter: limiter, cfg: cfg}
}

func (r *RateLimiter) Limit(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}

		telegramUser, ok := auth.CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		allowed, err := r.limiter.Allow(c.Request.Context(), telegramUser.ID, action, r.cfg.Limit, r.cfg.Window)
		if err != nil {
			logger.Logger().Warn("rate limiter unavailable",
				zap.String("action", action),
				zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}

		c.Next()
	}
}
