package handlers

import (
	"time"

	"economy-service/internal/middleware"
	"economy-service/internal/security"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(economyHandler *EconomyHandler, tokens *security.TokenManager, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		economy := api.Group("/economy")
		{
			economy.POST("/register", economyHandler.Register)
			economy.GET("/status", economyHandler.Status)

			economy.POST("/autopilot/toggle", economyHandler.ToggleAutopilot)
			economy.POST("/autopilot/claim", economyHandler.ClaimAutopilot)

			economy.POST("/energy/spend", economyHandler.SpendEnergy)
			economy.POST("/energy/ad-refill", limiter.Limit("ad_energy", 10, 1*time.Minute), economyHandler.AdEnergyRefill)

			economy.POST("/items/purchase", limiter.Limit("purchase", 20, 1*time.Minute), economyHandler.PurchaseItem)
			economy.POST("/items/equip", economyHandler.EquipItem)
			economy.POST("/items/unequip", economyHandler.UnequipItem)

			economy.POST("/elite-pass/purchase", limiter.Limit("purchase", 20, 1*time.Minute), economyHandler.PurchaseElitePass)

			economy.POST("/streak/claim", economyHandler.ClaimStreak)
			economy.POST("/session/submit", economyHandler.SubmitSession)
		}
		api.GET("/leaderboard", economyHandler.Leaderboard)
	}

	return r
}
