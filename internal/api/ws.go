package api

import (
	"ton_mining_miniapp/pkg/auth"

	"github.com/gin-gonic/gin"
)

// NewWalletBridgeRoutes mounts the socket the Mini App's wallet SDK talks
// through. The handler blocks for the life of the connection.
func NewWalletBridgeRoutes(handler *gin.RouterGroup, serveWS gin.HandlerFunc, a *auth.TelegramAuth) {
	handler.GET("/ws", a.TelegramAuthMiddleware(), serveWS)
}
