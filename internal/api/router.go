package api

import (
	"github.com/Ayash-Bera/travelbot/internal/api/handlers"
	"github.com/Ayash-Bera/travelbot/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the chat widget, the JSON API and the health endpoint.
func NewRouter(chat *handlers.ChatHandler, healthHandler *handlers.HealthHandler, limiter *middleware.RateLimiter, logger *logrus.Logger) (*gin.Engine, error) {
	templates, err := handlers.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.SetHTMLTemplate(templates)

	router.GET("/health", healthHandler.GetHealth)

	router.GET("/", chat.ShowChat)
	router.POST("/", limiter.RateLimitWith(chat.RateLimited), chat.SubmitChat)

	v1 := router.Group("/api/v1")
	v1.Use(limiter.RateLimit())
	{
		v1.POST("/chat", chat.HandleChat)
		v1.GET("/history", chat.GetHistory)
	}

	return router, nil
}
