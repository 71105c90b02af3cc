// internal/server/server.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RaDu88253/LocalCommerceAi/internal/agent/orchestrator"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/config"
	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/users"
)

// PipelineRunner is the assistant entry point the HTTP layer depends on.
type PipelineRunner interface {
	Run(ctx context.Context, input *orchestrator.Input) (*orchestrator.Output, error)
}

// SMSSender relays assistant replies back over SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// Server wires the HTTP routes to the user service and the agent pipeline.
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	users    *users.Service
	pipeline PipelineRunner
	sms      SMSSender
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func New(cfg *config.Config, userService *users.Service, pipeline PipelineRunner, sms SMSSender, log logger.Logger) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		users:    userService,
		pipeline: pipeline,
		sms:      sms,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(corsMiddleware())
	s.engine.Use(requestLogger(s.logger))
	s.engine.Use(httpMetrics())

	s.engine.GET("/api/status", s.handleStatus)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/shopping-assistant", s.handleShoppingAssistant)
	s.engine.POST("/sms-webhook", s.handleSMSWebhook)

	s.engine.POST("/api/users/", s.handleRegister)
	s.engine.POST("/api/token", s.handleToken)
	s.engine.GET("/api/users/me/", s.handleCurrentUser)
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, body := s.errors.Handle(err)
	c.AbortWithStatusJSON(status, body)
}
