package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/session"
)

const (
	ContextSessionID = "sessionID"
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextUserRole  = "userRole"
)

// GenerateToken signs the dashboard token for a session. The backend token
// stays server side; the browser only carries the session id.
func GenerateToken(secret string, sess *models.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":  sess.ID,
		"sub":  sess.User.ID,
		"role": sess.User.Role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AuthMiddleware resolves the bearer token to a live session and hands the
// backend token to the handlers through the request context. When the
// backend answers 401 further down, the session is dropped.
func AuthMiddleware(secret string, sessions *session.Store, onExpired func(sessionID string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Inicie sesión para continuar.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Inicie sesión para continuar.")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "Sesión expirada. Inicie sesión nuevamente.")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_claims", "Sesión expirada. Inicie sesión nuevamente.")
			c.Abort()
			return
		}

		sid, _ := claims["sid"].(string)
		if sid == "" {
			httperr.Unauthorized(c, "invalid_token_payload", "Sesión expirada. Inicie sesión nuevamente.")
			c.Abort()
			return
		}

		sess, err := sessions.Get(c.Request.Context(), sid)
		if err != nil {
			httperr.From(c, err)
			return
		}

		c.Set(ContextSessionID, sess.ID)
		c.Set(ContextUserID, sess.User.ID)
		c.Set(ContextUsername, sess.User.Username)
		c.Set(ContextUserRole, sess.User.Role)
		c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), sess.BackendToken))

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			_ = sessions.Delete(c.Request.Context(), sid)
			if onExpired != nil {
				onExpired(sid)
			}
		}
	}
}
