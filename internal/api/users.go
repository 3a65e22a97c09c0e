package api

import (
	"net/http"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us      service.UserServiceI
	ws      service.WalletServiceI
	avatars service.AvatarSource
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, ws service.WalletServiceI, avatars service.AvatarSource, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, ws: ws, avatars: avatars}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/me", r.GetProfile)
		h.GET("/me/referrals", r.GetUserReferrals)
		h.GET("/me/referral-link", r.GetReferralLink)
		h.GET("/me/avatar", r.GetUserAvatar)
	}
}

type UserResponse struct {
	TelegramID       int64     `json:"telegram_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name,omitempty"`
	Username         string    `json:"username,omitempty"`
	PhotoURL         string    `json:"photo_url,omitempty"`
	Language         string    `json:"language,omitempty"`
	ReferrerID       *int64    `json:"referrer_id,omitempty"`
	Referrals        int       `json:"referrals"`
	WalletAddress    *string   `json:"wallet_address,omitempty"`
	IsAdmin          bool      `json:"is_admin"`
	RegistrationDate time.Time `json:"registration_date"`
	AuthDate         time.Time `json:"auth_date"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		TelegramID:       u.TelegramID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Username:         u.Username,
		PhotoURL:         u.PhotoURL,
		Language:         u.Language,
		ReferrerID:       u.ReferrerID,
		Referrals:        u.Referrals,
		WalletAddress:    u.WalletAddress,
		IsAdmin:          u.IsAdmin,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}

type ProfileResponse struct {
	User     UserResponse      `json:"user"`
	Balances []HoldingResponse `json:"balances"`
}

// RegisterUser is called on every launch. It registers first-time users,
// including the referral carried by the start param.
func (r *userRoutes) RegisterUser(c *gin.Context) {
	tgUser, ok := currentUser(c)
	if !ok {
		return
	}

	u := &model.User{
		TelegramID:       tgUser.ID,
		FirstName:        tgUser.FirstName,
		LastName:         tgUser.LastName,
		Username:         tgUser.Username,
		PhotoURL:         tgUser.PhotoURL,
		Language:         tgUser.Language,
		RegistrationDate: tgUser.AuthDate,
		AuthDate:         tgUser.AuthDate,
	}

	user, err := r.us.EnsureUser(c.Request.Context(), u, tgUser.ReferrerID())
	if err != nil {
		respondError(c, err, "failed to register user")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	tgUser, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), tgUser.ID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	holdings, err := r.ws.Balances(c.Request.Context(), tgUser.ID)
	if err != nil {
		respondError(c, err, "failed to get balances")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:     newUserResponse(user),
		Balances: newHoldingResponses(holdings),
	})
}

type userReferral struct {
	TelegramID       int64     `json:"telegram_id"`
	TelegramUsername string    `json:"telegram_username"`
	FirstName        string    `json:"first_name"`
	JoinedAt         time.Time `json:"joined_at"`
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	tgUser, ok := currentUser(c)
	if !ok {
		return
	}

	referrals, err := r.us.GetReferrals(c.Request.Context(), tgUser.ID)
	if err != nil {
		respondError(c, err, "failed to get user referrals")
		return
	}

	out := make([]userReferral, len(referrals))
	for i, ref := range referrals {
		out[i] = userReferral{
			TelegramID:       ref.TelegramID,
			TelegramUsername: ref.TelegramUsername,
			FirstName:        ref.FirstName,
			JoinedAt:         ref.JoinedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetReferralLink(c *gin.Context) {
	tgUser, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link":        r.us.ReferralLink(tgUser.ID),
		"start_param": auth.ReferralStartParam(tgUser.ID),
	})
}

func (r *userRoutes) GetUserAvatar(c *gin.Context) {
	log := logger.Logger()

	tgUser, ok := currentUser(c)
	if !ok {
		return
	}

	avatarFilePath, err := r.avatars.AvatarPath(c.Request.Context(), tgUser.ID)
	if err != nil {
		log.Error("failed to get user avatar",
			zap.Error(err),
			zap.Int64("telegram_id", tgUser.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch avatar"})
		return
	}

	if avatarFilePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no avatar found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_file_path": avatarFilePath,
	})
}
