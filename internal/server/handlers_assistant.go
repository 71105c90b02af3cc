// internal/server/handlers_assistant.go
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RaDu88253/LocalCommerceAi/internal/agent/orchestrator"
	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

type shoppingRequest struct {
	UserQuery string `json:"user_query" binding:"required"`
	// Pointers so 0.0 passes the required check; a coordinate of
	// exactly zero is a valid position.
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (s *Server) handleShoppingAssistant(c *gin.Context) {
	var req shoppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	out, err := s.pipeline.Run(c.Request.Context(), &orchestrator.Input{
		Query: models.Query{
			Text: req.UserQuery,
			Location: models.Location{
				Latitude:  *req.Latitude,
				Longitude: *req.Longitude,
			},
		},
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	// Multi-line text is split so the frontend renders line by line.
	c.JSON(http.StatusOK, gin.H{
		"response_lines": strings.Split(out.Message, "\n"),
	})
}

// handleSMSWebhook acknowledges the relay immediately and answers the sender
// asynchronously. SMS carries no GPS, so the configured default location
// stands in for the user's position.
func (s *Server) handleSMSWebhook(c *gin.Context) {
	body := c.PostForm("Body")
	from := c.PostForm("From")
	if body == "" || from == "" {
		s.abortWithError(c, apperrors.NewInvalidRequestError("Body and From are required"))
		return
	}

	go s.processSMSQuery(body, from)

	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) processSMSQuery(body, from string) {
	// The inbound request is already answered; this work gets its own
	// deadline, not the webhook's.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out, err := s.pipeline.Run(ctx, &orchestrator.Input{
		Query: models.Query{
			Text: body,
			Location: models.Location{
				Latitude:  s.cfg.Messaging.DefaultLocation.Latitude,
				Longitude: s.cfg.Messaging.DefaultLocation.Longitude,
			},
		},
	})
	if err != nil {
		s.logger.Error("sms pipeline run failed", map[string]interface{}{
			"from":  from,
			"error": err.Error(),
		})
		return
	}

	if s.sms == nil {
		s.logger.Warn("sms relay not configured, dropping reply", map[string]interface{}{
			"from": from,
		})
		return
	}

	if err := s.sms.SendSMS(ctx, from, out.Message); err != nil {
		s.logger.Error("sms reply failed", map[string]interface{}{
			"from":  from,
			"error": err.Error(),
		})
		return
	}

	s.logger.Info("sms reply sent", map[string]interface{}{
		"from":    from,
		"outcome": out.Outcome,
	})
}
