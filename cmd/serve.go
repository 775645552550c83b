package cmd

import (
	"time"

	"github.com/eruedin/swad-core-sub002/internal/config"
	"github.com/eruedin/swad-core-sub002/internal/database"
	"github.com/eruedin/swad-core-sub002/internal/handlers"
	"github.com/eruedin/swad-core-sub002/internal/middleware"
	"github.com/eruedin/swad-core-sub002/internal/services"

	_ "github.com/eruedin/swad-core-sub002/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

// @title           Match Service API
// @version         1.0
// @description     Live quiz matches: presenters drive phases, students poll and answer
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db := database.Connect(cfg, logger)
	database.AutoMigrate(db, logger)

	playerTimeout := time.Duration(cfg.PlayerTimeoutSec) * time.Second

	authService := services.NewAuthService(db, cfg.JWTSecret)
	gameService := services.NewGameService(db)
	playerService := services.NewPlayerService(db, playerTimeout)
	answerService := services.NewAnswerService(db)
	matchService := services.NewMatchService(db, gameService, playerService, answerService)

	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, matchService)
	matchHandler := handlers.NewMatchHandler(matchService)
	playHandler := handlers.NewPlayHandler(matchService, playerService, answerService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	pollLimiter := middleware.Limiter(rate.Limit(cfg.PollRatePerSec), cfg.PollRateBurst)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		games := api.Group("/games")
		games.Use(middleware.JWTAuth(authService), middleware.RequireRole("teacher"))
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.GET("/:id/matches", gameHandler.ListGameMatches)
		}

		matches := api.Group("/matches")
		matches.Use(middleware.JWTAuth(authService))
		{
			matches.GET("/:id", matchHandler.GetMatch)

			teacherOnly := matches.Group("")
			teacherOnly.Use(middleware.RequireRole("teacher"))
			{
				teacherOnly.POST("", matchHandler.CreateMatch)
				teacherOnly.GET("", matchHandler.ListMatches)
				teacherOnly.DELETE("/:id", matchHandler.RemoveMatch)
				teacherOnly.POST("/:id/forward", matchHandler.Forward)
				teacherOnly.POST("/:id/back", matchHandler.Back)
				teacherOnly.POST("/:id/play-pause", matchHandler.PlayPause)
				teacherOnly.POST("/:id/countdown", matchHandler.StartCountdown)
				teacherOnly.PUT("/:id/columns", matchHandler.SetColumns)
				teacherOnly.POST("/:id/toggle-question-results", matchHandler.ToggleQuestionResults)
				teacherOnly.POST("/:id/toggle-user-results", matchHandler.ToggleUserResults)
				teacherOnly.GET("/:id/refresh", pollLimiter, matchHandler.Refresh)
				teacherOnly.GET("/:id/tally", matchHandler.GetTally)
			}
		}

		play := api.Group("/play")
		play.Use(middleware.JWTAuth(authService), middleware.RequireRole("student"))
		{
			play.POST("/:id/join", playHandler.Join)
			play.POST("/:id/answer", playHandler.Answer)
			play.DELETE("/:id/answer", playHandler.RemoveAnswer)
			play.GET("/:id/state", pollLimiter, playHandler.GetState)
		}
	}

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	return r.Run(":" + cfg.ServerPort)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
