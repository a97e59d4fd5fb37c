package main

import (
	"dine-in-ordering/config"
	"dine-in-ordering/logger"
	"dine-in-ordering/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	log, err := logger.Init(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := config.InitDB(); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	r := routes.NewRouter(log)

	log.Info("server running", zap.String("addr", "http://localhost:"+cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
