package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testInitData(startParam string) string {
	values := url.Values{}
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":5060715466,"first_name":"Bob","last_name":"Trader","username":"defi_master","language_code":"de","photo_url":"https://t.me/i/userpic/320/bob.jpg"}`)
	values.Set("auth_date", "1677649900")
	values.Set("hash", "e2e58")
	if startParam != "" {
		values.Set("start_param", startParam)
	}
	return values.Encode()
}

func serve(t *testing.T, a *TelegramAuth, header string) (*httptest.ResponseRecorder, *TelegramUserData) {
	t.Helper()

	var seen *TelegramUserData
	router := gin.New()
	router.GET("/me", a.TelegramAuthMiddleware(), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		seen = u
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, seen
}

func TestTelegramAuthMiddleware(t *testing.T) {
	t.Run("Missing header", func(t *testing.T) {
		w, user := serve(t, NewTelegramAuth("token", false), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, user)
	})

	t.Run("Wrong scheme", func(t *testing.T) {
		w, _ := serve(t, NewTelegramAuth("token", false), "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Bad signature", func(t *testing.T) {
		w, _ := serve(t, NewTelegramAuth("token", false), "Telegram "+testInitData(""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Debug mode without host falls back to placeholder", func(t *testing.T) {
		w, user := serve(t, NewTelegramAuth("", true), "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, user)
		assert.Equal(t, PlaceholderUser.ID, user.ID)
		assert.Equal(t, "Guest", user.DisplayName())
		assert.False(t, user.AuthDate.IsZero())
	})

	t.Run("Debug mode parses profile", func(t *testing.T) {
		w, user := serve(t, NewTelegramAuth("", true), "Telegram "+testInitData("ref_77"))
		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, user)
		assert.Equal(t, int64(5060715466), user.ID)
		assert.Equal(t, "defi_master", user.Username)
		assert.Equal(t, "Bob Trader", user.DisplayName())
		assert.Equal(t, "de", user.Language)
		require.NotNil(t, user.ReferrerID())
		assert.Equal(t, int64(77), *user.ReferrerID())
	})
}

func TestReferrerID(t *testing.T) {
	tests := []struct {
		name       string
		startParam string
		expected   *int64
	}{
		{name: "empty", startParam: ""},
		{name: "other campaign", startParam: "promo_5"},
		{name: "not a number", startParam: "ref_abc"},
		{name: "self referral", startParam: "ref_10"},
		{name: "valid", startParam: ReferralStartParam(99), expected: func() *int64 { v := int64(99); return &v }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &TelegramUserData{ID: 10, StartParam: tt.startParam}
			assert.Equal(t, tt.expected, u.ReferrerID())
		})
	}
}
