package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/middleware"
	"github.com/BruksfildServices01/barber-dashboard/internal/session"
)

// SessionCloser tears down everything a session owns on the server:
// dashboard poller and open forms.
type SessionCloser interface {
	CloseSession(sessionID string)
}

type AuthHandler struct {
	backend  schedule.Backend
	sessions *session.Store
	secret   string
	closer   SessionCloser
	log      *zap.Logger
}

func NewAuthHandler(
	be schedule.Backend,
	sessions *session.Store,
	secret string,
	closer SessionCloser,
	log *zap.Logger,
) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{backend: be, sessions: sessions, secret: secret, closer: closer, log: log}
}

// --------- Requests ---------

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Ingrese usuario y contraseña.")
		return
	}

	username := strings.TrimSpace(req.Username)
	backendToken, user, err := h.backend.Login(c.Request.Context(), username, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("username", username), zap.Error(err))
		httperr.From(c, err)
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), backendToken, user)
	if err != nil {
		h.log.Error("session store failed", zap.Error(err))
		httperr.Internal(c, "failed_to_create_session", "No se pudo iniciar la sesión.")
		return
	}

	token, err := middleware.GenerateToken(h.secret, sess, h.sessions.TTL())
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "No se pudo iniciar la sesión.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"name":     user.Name,
			"username": user.Username,
			"role":     user.Role,
		},
		"token": token,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sid := sessionOf(c)
	if err := h.sessions.Delete(c.Request.Context(), sid); err != nil {
		h.log.Warn("session delete failed", zap.String("session", sid), zap.Error(err))
	}
	if h.closer != nil {
		h.closer.CloseSession(sid)
	}
	c.Status(http.StatusNoContent)
}
