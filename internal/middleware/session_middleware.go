package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/core"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SessionKey is the gin context key holding the *core.Session.
const SessionKey = "session"

// SessionMiddleware authenticates requests with a session token issued at
// sign-in and loads the caller's trial state.
type SessionMiddleware struct {
	tokens *auth.TokenIssuer
	gate   core.TrialGate
	logger *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware instance.
func NewSessionMiddleware(tokens *auth.TokenIssuer, gate core.TrialGate, logger *zap.Logger) *SessionMiddleware {
	if tokens == nil || gate == nil {
		panic("SessionMiddleware requires a token issuer and a trial gate")
	}
	return &SessionMiddleware{tokens: tokens, gate: gate, logger: logger}
}

// RequireSession verifies the bearer token and stores the session in the
// Gin context. Expired trials still get a session; the estimate service
// decides what an expired trial may do.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		claims, err := m.tokens.Verify(parts[1])
		if err != nil {
			m.logger.Debug("Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired session token"})
			return
		}

		session, err := m.gate.Session(c.Request.Context(), claims.Email())
		if err != nil {
			switch {
			case errors.Is(err, core.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Session user no longer exists", Details: "Please sign in again."})
			case errors.Is(err, core.ErrStoreUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "User store unavailable", Details: "Please try again."})
			default:
				m.logger.Error("Unexpected session lookup failure", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load session"})
			}
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(c *gin.Context) (*core.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*core.Session)
	return session, ok && session != nil
}
