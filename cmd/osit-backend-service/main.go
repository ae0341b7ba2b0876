package main

import (
	"context"
	"time"

	"github.com/coneno/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/osit-platform/osit-backend/internal/config"
	"github.com/osit-platform/osit-backend/pkg/db"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	v1 "github.com/osit-platform/osit-backend/pkg/http/v1"
	"github.com/osit-platform/osit-backend/pkg/jwt"
	"github.com/osit-platform/osit-backend/pkg/runner"
	"github.com/osit-platform/osit-backend/pkg/service"
)

func main() {
	conf := config.InitConfig()
	logger.SetLevel(conf.LogLevel)

	ositDBService := db.NewOSITDBService(conf.OSITDBConfig)
	defer func() {
		if err := ositDBService.Close(context.Background()); err != nil {
			logger.Error.Printf("failed to close DB connection: %v", err)
		}
	}()

	if !conf.GinDebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Start runner
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backgroundRunner := runner.NewRunner(ositDBService, conf.OrphanSweepInterval)
	backgroundRunner.Run(ctx)

	// Start webserver
	router := gin.New()
	router.Use(gin.Recovery(), mw.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length", "X-Request-ID"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	root := router.Group("")

	v1APIHandlers := v1.NewHTTPHandler(
		service.NewCredentialService(ositDBService),
		service.NewAssignmentService(ositDBService, conf.RequireFixedWeeks),
		service.NewEventService(ositDBService),
		jwt.NewTokenIssuer(conf.JWTSecretKey, conf.TokenExpiresIn),
		conf.ExposeErrorDetail,
	)
	v1APIHandlers.AddHealthAPI(root)
	v1APIHandlers.AddParticipantAPI(root)
	v1APIHandlers.AddTherapistAPI(root)
	v1APIHandlers.AddAssignmentsAPI(root)
	v1APIHandlers.AddEventsAPI(root)

	logger.Info.Printf("OSIT backend started, listening on port %s", conf.Port)
	logger.Error.Fatal(router.Run(":" + conf.Port))
}
