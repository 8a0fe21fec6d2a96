// Package api wires the HTTP route surface over the Pool State Engine,
// Draft Room Coordinator, and Store Port.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jcorriveau23/backend-pool-nhl/internal/api/handlers"
	"github.com/jcorriveau23/backend-pool-nhl/internal/api/middleware"
	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
)

// SetupRoutes registers every spec.md §6 HTTP endpoint plus the WebSocket
// upgrade route onto router. commandRateLimit/commandRateBurst bound each
// socket's command submission rate (see handlers.NewWebSocketHandler).
func SetupRoutes(router *gin.Engine, apiGroup *gin.RouterGroup, registry *draft.Registry, dispatcher *draft.Dispatcher, validator draft.TokenValidator, poolHandler *handlers.PoolHandler, healthHandler *handlers.HealthHandler, commandRateLimit, commandRateBurst int) {
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	apiGroup.GET("/rooms", healthHandler.GetRoomStatus)

	apiGroup.GET("/pool/:name", poolHandler.GetPool)
	apiGroup.GET("/pool/:name/:from_date", poolHandler.GetPoolWithDateWindow)
	apiGroup.GET("/pools", poolHandler.ListPools)

	auth := apiGroup.Group("")
	auth.Use(middleware.AuthRequired(validator))
	{
		auth.POST("/create-pool", poolHandler.CreatePool)
		auth.POST("/delete-pool", poolHandler.DeletePool)
		auth.POST("/add-player", poolHandler.AddPlayer)
		auth.POST("/remove-player", poolHandler.RemovePlayer)
		auth.POST("/create-trade", poolHandler.CreateTrade)
		auth.POST("/delete-trade", poolHandler.DeleteTrade)
		auth.POST("/respond-trade", poolHandler.RespondTrade)
		auth.POST("/fill-spot", poolHandler.FillSpot)
		auth.POST("/protect-players", poolHandler.ProtectPlayers)
		auth.POST("/complete-protection", poolHandler.CompleteProtection)
		auth.POST("/modify-roster", poolHandler.ModifyRoster)
		auth.POST("/update-pool-settings", poolHandler.UpdatePoolSettings)
		auth.POST("/mark-as-final", poolHandler.MarkAsFinal)
		auth.POST("/generate-dynasty", poolHandler.GenerateDynasty)
	}

	// WebSocket: frames carry their own per-command auth via JoinRoom's
	// socket-level JWT in the path, per spec.md §6.
	wsHandler := handlers.NewWebSocketHandler(registry, dispatcher, commandRateLimit, commandRateBurst)
	router.GET("/ws/:token", wsHandler.HandleWebSocket)
}
