// README: API gateway; builds the gin engine and registers routes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parking/internal/http/handlers"
	"parking/internal/http/middleware"
)

type ServerDeps struct {
	Webhook *handlers.WebhookHandler
	Revenue *handlers.RevenueHandler
	Log     *zap.Logger
}

type Server struct {
	webhook *handlers.WebhookHandler
	revenue *handlers.RevenueHandler
	log     *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{webhook: deps.Webhook, revenue: deps.Revenue, log: log}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Trace(), middleware.Logging(s.log), middleware.Recovery(s.log))

	r.POST("/webhook", s.webhook.Receive)
	if s.revenue != nil {
		r.GET("/revenue", s.revenue.Get)
	}
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}
