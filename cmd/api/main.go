package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-chat/internal/config"
	"campus-chat/internal/db"
	"campus-chat/internal/handlers"
	"campus-chat/internal/logging"
	"campus-chat/internal/media"
	"campus-chat/internal/middleware"
	"campus-chat/internal/observability"
	"campus-chat/internal/rabbitmq"
	"campus-chat/internal/repositories"
	"campus-chat/internal/services"
	"campus-chat/internal/session"
	"campus-chat/internal/telemetry"
)

func main() {
	cfg := config.Load("campus-chat-api")
	logging.Setup(cfg.LogLevel, cfg.ServiceName, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	redisClient, err := session.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Str("noop_reason", rabbitmq.PublisherNoopReason(publisher)).Msg("event publisher ready")
	emitter := telemetry.NewEmitter(publisher, observability.RoutingAudit, cfg.ServiceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	inviteRepo := repositories.NewInviteRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	authHandler := handlers.NewAuthHandler(
		services.NewAccountService(userRepo),
		sessions,
		emitter,
		cfg.CookieSecure,
		int(cfg.SessionTTL/time.Second),
	)
	inviteHandler := handlers.NewInviteHandler(services.NewInviteService(inviteRepo, userRepo), emitter)
	conversationHandler := handlers.NewConversationHandler(
		services.NewConversationService(conversationRepo, inviteRepo, userRepo),
		services.NewMessageService(conversationRepo, messageRepo),
		emitter,
	)
	uploadStore := media.NewLocalStore(cfg.UploadDir, cfg.MaxUploadBytes)
	uploadHandler := handlers.NewUploadHandler(uploadStore, emitter)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(observability.HTTPMetricsMiddleware())
	router.MaxMultipartMemory = 8 << 20

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.Static("/"+media.PublicPrefix, cfg.UploadDir)

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/logout", authHandler.Logout)
	router.GET("/auth/check", authHandler.Check)

	authed := router.Group("/", middleware.SessionAuth(sessions))
	authed.GET("/users/search", authHandler.SearchUsers)
	authed.GET("/users/:id", authHandler.GetUser)
	authed.GET("/admin/clubs/pending", authHandler.PendingClubs)
	authed.POST("/admin/clubs/:id/approve", authHandler.ApproveClub)

	authed.POST("/invites", inviteHandler.SendInvite)
	authed.GET("/invites", inviteHandler.ListInvites)
	authed.POST("/invites/:id/respond", inviteHandler.RespondInvite)

	authed.GET("/conversations", conversationHandler.ListConversations)
	authed.POST("/conversations/groups", conversationHandler.CreateGroup)
	authed.GET("/conversations/:id/members", conversationHandler.ListMembers)
	authed.POST("/conversations/:id/members", conversationHandler.AddMember)
	authed.GET("/conversations/:id/messages", conversationHandler.GetMessages)
	authed.POST("/conversations/:id/messages", conversationHandler.SendMessage)

	authed.POST("/uploads", uploadHandler.Upload)

	handlers.RegisterDebugRoutes(authed, emitter, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
