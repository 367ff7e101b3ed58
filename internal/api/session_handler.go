package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/middleware"
	"bidderpro-backend-go/internal/models"
)

// SessionHandler handles sign-in and session lookup.
type SessionHandler struct {
	gate    core.TrialGate
	tokens  *auth.TokenIssuer
	billing core.BillingService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(gate core.TrialGate, tokens *auth.TokenIssuer, billing core.BillingService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{gate: gate, tokens: tokens, billing: billing, logger: logger, now: time.Now}
}

// mapSessionErrorToStatus maps errors from the trial gate to HTTP status codes and ErrorResponse.
func (h *SessionHandler) mapSessionErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrMissingCredentials):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Please enter both name and email."}
	case errors.Is(err, core.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "User store unavailable", Details: "Please try again."}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Session user no longer exists", Details: "Please sign in again."}
	default:
		h.logger.Error("Internal Server Error in SessionHandler", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// SignIn handles POST /api/v1/session. A new email starts a trial (201);
// a returning email keeps its original trial start (200).
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	user, created, err := h.gate.SignIn(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.mapSessionErrorToStatus(c, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.String("email", user.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create session"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, SignInResponse{
		Token:           token,
		ExpiresAt:       expiresAt,
		Created:         created,
		SessionResponse: h.sessionResponse(c, &core.Session{User: user, Trial: h.gate.Status(user, h.now())}),
	})
}

// CurrentSession handles GET /api/v1/session.
func (h *SessionHandler) CurrentSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(c, session))
}

func (h *SessionHandler) sessionResponse(c *gin.Context, session *core.Session) SessionResponse {
	resp := SessionResponse{User: session.User, Trial: session.Trial}
	if !session.Trial.Active() {
		resp.SubscribeURL = h.billing.SubscriptionLink(c.Request.Context(), session.User.Email)
	}
	return resp
}
