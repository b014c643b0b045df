package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postforge/server/internal/shared/response"
	"github.com/postforge/server/internal/utils/middleware"
)

// Handler handles HTTP requests for users.
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers routes that do not require authentication.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterRoutes registers authenticated user routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.Me)
		users.POST("/otp/request", h.RequestOTP)
		users.POST("/otp/verify", h.VerifyOTP)
	}
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	u, err := h.service.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrEmailAlreadyExists, Status: http.StatusConflict},
			{Err: ErrPasswordTooShort, Status: http.StatusBadRequest},
		})
		return
	}

	c.JSON(http.StatusCreated, u)
}

// Login authenticates a user.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	u, token, expiresAt, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrInvalidCredentials, Status: http.StatusUnauthorized},
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: u})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrUserNotFound, Status: http.StatusNotFound},
		})
		return
	}

	c.JSON(http.StatusOK, u)
}

// RequestOTP sends a verification code to the user's email.
func (h *Handler) RequestOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	if err := h.service.RequestOTP(c.Request.Context(), userID); err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrUserNotFound, Status: http.StatusNotFound},
			{Err: ErrOTPUnavailable, Status: http.StatusServiceUnavailable},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// VerifyOTP verifies the submitted code and flips is_verified.
func (h *Handler) VerifyOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.service.VerifyOTP(c.Request.Context(), userID, req.Code); err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrOTPNotFound, Status: http.StatusBadRequest, Code: "OTP_EXPIRED"},
			{Err: ErrOTPMismatch, Status: http.StatusBadRequest, Code: "OTP_MISMATCH"},
			{Err: ErrOTPUnavailable, Status: http.StatusServiceUnavailable},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}
