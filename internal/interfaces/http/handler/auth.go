package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appidentity "github.com/cos/backend/internal/application/identity"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

// LoginRequest carries the password factor
type LoginRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// LoginResponse asks the customer to answer their security question
type LoginResponse struct {
	CustomerID        string    `json:"customer_id"`
	DisplayName       string    `json:"display_name"`
	ChallengeQuestion string    `json:"challenge_question"`
	ChallengeToken    string    `json:"challenge_token"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// ChallengeRequest carries the security answer
type ChallengeRequest struct {
	ChallengeToken string `json:"challenge_token" binding:"required"`
	Answer         string `json:"answer"`
}

// TokenResponse is returned once both factors passed
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Customer    CustomerResponse `json:"customer"`
}

// AuthHandler handles the two-step login and logout
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Check the customer's password
// @Description  Returns the security question and a challenge token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      423 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		CustomerID: req.CustomerID,
		Secret:     req.Secret,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		CustomerID:        result.CustomerID,
		DisplayName:       result.DisplayName,
		ChallengeQuestion: result.ChallengeQuestion,
		ChallengeToken:    result.ChallengeToken,
		ExpiresAt:         result.ExpiresAt,
	})
}

// Challenge godoc
// @Summary      Answer the security question
// @Description  Begins the session and returns an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChallengeRequest true "Answer"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/challenge [post]
func (h *AuthHandler) Challenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.CompleteChallenge(c.Request.Context(), appidentity.ChallengeInput{
		ChallengeToken: req.ChallengeToken,
		Answer:         req.Answer,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
		Customer:    toCustomerResponse(result.Customer),
	})
}

// Logout ends the session. The access token stops working immediately.
//
// @Summary      End the session
// @Tags         auth
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), customerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
