// internal/server/handlers_users.go
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/users"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	user, err := s.users.Register(c.Request.Context(), users.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleToken implements OAuth2 password-style login: form fields username
// (the email) and password, bearer token out.
func (s *Server) handleToken(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		s.abortWithError(c, apperrors.NewInvalidRequestError("username and password are required"))
		return
	}

	token, err := s.users.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		s.abortWithError(c, apperrors.NewTokenInvalidError("missing bearer token"))
		return
	}

	user, err := s.users.CurrentUser(c.Request.Context(), token)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}
