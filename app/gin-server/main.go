package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/gilangrmdn/preptalk/config"
	"github.com/gilangrmdn/preptalk/internal/api/handlers"
	"github.com/gilangrmdn/preptalk/internal/api/middleware"
	"github.com/gilangrmdn/preptalk/internal/api/routes"
	"github.com/gilangrmdn/preptalk/internal/cache"
	"github.com/gilangrmdn/preptalk/internal/call"
	"github.com/gilangrmdn/preptalk/internal/logger"
	"github.com/gilangrmdn/preptalk/internal/providers/llm"
	mongorepo "github.com/gilangrmdn/preptalk/internal/repositories/mongo"
	"github.com/gilangrmdn/preptalk/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// Vertex AI Gemini
	ctx := context.Background()
	provider, err := llm.NewVertexGemini(ctx,
		os.Getenv("GCP_PROJECT_ID"),
		os.Getenv("GCP_LOCATION"),
		os.Getenv("GEMINI_MODEL"),
	)
	if err != nil {
		log.Fatalf("Vertex AI init error: %v", err)
	}
	defer provider.Close()

	db := config.MongoDatabase()

	users := mongorepo.NewUserRepo(db)
	interviews := mongorepo.NewInterviewRepo(db)
	feedback := mongorepo.NewFeedbackRepo(db)

	rcache := cache.NewRedisCache(config.RedisClient, "preptalk")

	authSvc := services.NewAuthService(users, []byte(os.Getenv("JWT_SECRET")))
	interviewSvc := services.NewInterviewService(interviews, provider, rcache, l)
	feedbackSvc := services.NewFeedbackService(feedback, provider, l)

	callCfg := call.Config{
		WorkflowID:  os.Getenv("CALL_WORKFLOW_ID"),
		AssistantID: os.Getenv("CALL_ASSISTANT_ID"),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc),
		Feedback:  handlers.NewFeedbackHandler(feedbackSvc),
		CallWS:    handlers.NewCallWSHandler(interviewSvc, feedbackSvc, callCfg, l),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
