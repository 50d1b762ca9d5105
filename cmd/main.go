package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"studio"
	"studio/internal/api/handler/endpoints"
	"studio/internal/api/models"
	"studio/internal/api/service"
	"studio/internal/api/websocket"
	"studio/pkg"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	studio.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if studio.GetConfig().Mode == "dev" {
		if err := studio.DB.AutoMigrate(
			&models.StoredWorkflow{},
		); err != nil {
			studio.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		studio.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(studio.GetConfig().ApiPort))
	pkg.AssertNoError(err)
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Run events fan out to websocket subscribers through the hub
	hub := websocket.NewHub(studio.Logger)
	go hub.Run()
	studio.Logger.Info().Msg("WebSocket hub started")

	runStore := service.NewRunStore(hub, studio.Logger)

	initAPI(router, hub, runStore)

	studio.Logger.Debug().Msgf("Starting workflow API on port %s", studio.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		studio.Logger.Fatal().Msg(err.Error())
		panic(err)
	}

}

func initAPI(router *graceful.Graceful, hub *websocket.Hub, runStore *service.RunStore) {
	endpoints.WorkflowHandler(router)
	endpoints.RunHandler(router, runStore)
	endpoints.StoredWorkflowHandler(router)
	endpoints.WebSocketHandler(router, hub)
}
