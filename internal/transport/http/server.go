package http

import (
	"github.com/gin-gonic/gin"

	"aichorus/internal/ai"
	appsvc "aichorus/internal/app"
	"aichorus/internal/bootstrap"
	"aichorus/internal/repository"
	"aichorus/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	personaRepo := repository.NewPersonaRepository(app.MySQL)
	memberRepo := repository.NewMemberRepository(app.MySQL)

	client := ai.NewClient()
	defaults := ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	}

	chatService := appsvc.NewChatService(sessionRepo, messageRepo, app.HistoryCache, app.Publisher, app.Logger)
	personaService := appsvc.NewPersonaService(personaRepo)
	memberService := appsvc.NewMemberService(sessionRepo, personaRepo, memberRepo, app.Config.Chat.MemberCap)
	orchestrator := appsvc.NewOrchestratorService(
		sessionRepo, personaRepo, messageRepo, memberRepo,
		client, defaults, app.Config.LLM.ResponseRule,
		app.Config.Chat.ContextWindow, app.Config.Chat.CreatorThreshold,
		app.HistoryCache, app.Publisher, app.Logger,
	)
	storyService := appsvc.NewStoryService(
		messageRepo, personaRepo, client, defaults, app.Config.LLM.ResponseRule,
		app.Config.Story.KeywordPersonaIDs, app.Config.Story.StoryPersonaIDs, app.Config.Story.ScrubWords,
	)

	chatHandler := handler.NewChatHandler(chatService)
	personaHandler := handler.NewPersonaHandler(personaService)
	memberHandler := handler.NewMemberHandler(memberService)
	orchestrateHandler := handler.NewOrchestrateHandler(orchestrator, storyService, app.Config.Chat.DefaultOrderLength)

	v1 := router.Group("/api/v1")

	sessions := v1.Group("/sessions")
	sessions.POST("", chatHandler.CreateSession)
	sessions.GET("", chatHandler.ListSessions)
	sessions.PATCH("/:id", chatHandler.UpdateTopic)
	sessions.POST("/:id/messages", chatHandler.RecordMessage)
	sessions.GET("/:id/messages", chatHandler.GetHistory)

	sessions.GET("/:id/members", memberHandler.List)
	sessions.POST("/:id/members", memberHandler.Add)
	sessions.POST("/:id/members/batch", memberHandler.AddBatch)
	sessions.DELETE("/:id/members/:personaId", memberHandler.Remove)

	sessions.GET("/:id/turn-order", orchestrateHandler.TurnOrder)
	sessions.POST("/:id/replies", orchestrateHandler.GenerateReply)
	sessions.POST("/:id/story", orchestrateHandler.ProcessStory)

	personas := v1.Group("/personas")
	personas.POST("", personaHandler.Create)
	personas.GET("", personaHandler.List)
	personas.GET("/:id", personaHandler.Get)
	personas.PUT("/:id", personaHandler.Update)
	personas.DELETE("/:id", personaHandler.Delete)

	return router
}
