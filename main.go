package main

import (
	"log"
	"net/http"

	"csgo-loadout/internal/api"
	"csgo-loadout/internal/config"
	"csgo-loadout/internal/services/steam"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	var logger *zap.Logger
	if cfg.App.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	steamClient := steam.NewClient(cfg.Steam, logger)

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(r, cfg, steamClient, logger)

	logger.Info("Server starting", zap.String("port", cfg.App.Port))
	if err := http.ListenAndServe(":"+cfg.App.Port, r); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}
}
