package routes

import (
	"github.com/gilangrmdn/preptalk/internal/api/handlers"
	"github.com/gilangrmdn/preptalk/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Feedback  *handlers.FeedbackHandler
	CallWS    *handlers.CallWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/sign-up", d.Auth.SignUp)
	r.POST("/auth/sign-in", d.Auth.SignIn)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/auth/me", d.Auth.Me)

	auth.GET("/interviews", d.Interview.ListMine)
	auth.GET("/interviews/latest", d.Interview.ListLatest)
	auth.POST("/interviews/generate", d.Interview.Generate)
	auth.GET("/interviews/:interview_id", d.Interview.Get)

	auth.GET("/interviews/:interview_id/feedback", d.Feedback.Get)
	auth.POST("/interviews/:interview_id/feedback", d.Feedback.Create)

	// WebSocket call bridge
	auth.GET("/ws/call", d.CallWS.CallWS)
}
