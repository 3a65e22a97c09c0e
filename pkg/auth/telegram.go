package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
)

const (
	expTime = 24 * time.Hour

	ContextKey = "telegram_user"

	referralPrefix = "ref_"
)

// PlaceholderUser stands in for the Telegram host when the app runs outside
// of it, e.g. in a desktop browser during local development.
var PlaceholderUser = TelegramUserData{
	ID:        1,
	FirstName: "Guest",
	Username:  "guest",
	Language:  "en",
}

type TelegramAuth struct {
	botToken  string
	debugMode bool
}

func NewTelegramAuth(botToken string, debugMode bool) *TelegramAuth {
	return &TelegramAuth{
		botToken:  botToken,
		debugMode: debugMode,
	}
}

func (t *TelegramAuth) TelegramAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// websocket clients cannot set headers from the browser
			authHeader = c.Query("auth")
		}

		if authHeader == "" && t.debugMode {
			placeholder := PlaceholderUser
			placeholder.AuthDate = time.Now().UTC()
			c.Set(ContextKey, &placeholder)
			c.Next()
			return
		}

		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Telegram ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		raw := strings.TrimPrefix(authHeader, "Telegram ")
		if !t.debugMode {
			if err := initdata.Validate(raw, t.botToken, expTime); err != nil {
				log.Info("invalid telegram init data", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram auth data"})
				return
			}
		}

		telegramUserData, err := ExtractTelegramData(raw)
		if err != nil {
			log.Error("failed to extract telegram data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram data"})
			return
		}

		c.Set(ContextKey, telegramUserData)
		c.Next()
	}
}

type TelegramUserData struct {
	ID         int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
	Language   string
	StartParam string
	AuthDate   time.Time
}

// DisplayName prefers the first and last name, then the username.
func (u *TelegramUserData) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// ReferrerID decodes a "ref_<telegram id>" start parameter.
func (u *TelegramUserData) ReferrerID() *int64 {
	if !strings.HasPrefix(u.StartParam, referralPrefix) {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(u.StartParam, referralPrefix), 10, 64)
	if err != nil || id == u.ID || id <= 0 {
		return nil
	}
	return &id
}

func ExtractTelegramData(raw string) (*TelegramUserData, error) {
	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, err
	}

	return &TelegramUserData{
		ID:         data.User.ID,
		FirstName:  data.User.FirstName,
		LastName:   data.User.LastName,
		Username:   data.User.Username,
		PhotoURL:   data.User.PhotoURL,
		Language:   data.User.LanguageCode,
		StartParam: data.StartParam,
		AuthDate:   data.AuthDate(),
	}, nil
}

// CurrentUser reads the user stored by TelegramAuthMiddleware.
func CurrentUser(c *gin.Context) (*TelegramUserData, bool) {
	userData, exists := c.Get(ContextKey)
	if !exists {
		return nil, false
	}
	user, ok := userData.(*TelegramUserData)
	return user, ok
}

func ReferralStartParam(telegramID int64) string {
	return referralPrefix + strconv.FormatInt(telegramID, 10)
}
