package handler

import (
	"github.com/gin-gonic/gin"

	appidentity "github.com/cos/backend/internal/application/identity"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

// RegisterRequest opens an account. Password, profile and answer rules are
// enforced by the domain so that their error codes reach the client; binding
// only rejects values that cannot be parsed.
type RegisterRequest struct {
	ID              string `json:"id"`
	Secret          string `json:"secret"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	CardNumber      string `json:"card_number"`
	CardHolder      string `json:"card_holder"`
	CardExpiry      string `json:"card_expiry" binding:"omitempty,card_expiry"`
	CardCVV         string `json:"card_cvv"`
	CardBalance     string `json:"card_balance" binding:"omitempty,numeric"`
	ChallengeIndex  int    `json:"challenge_index"`
	ChallengeAnswer string `json:"challenge_answer"`
}

// CustomerResponse is the public profile of a customer
type CustomerResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Address           string            `json:"address"`
	Card              string            `json:"card"`
	CardExpiry        string            `json:"card_expiry"`
	CardBalance       valueobject.Money `json:"card_balance"`
	ChallengeQuestion string            `json:"challenge_question"`
}

// ChallengeQuestionResponse is one selectable security question
type ChallengeQuestionResponse struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
}

func toCustomerResponse(info appidentity.CustomerInfo) CustomerResponse {
	return CustomerResponse{
		ID:                info.ID,
		Name:              info.Name,
		Address:           info.Address,
		Card:              info.CardMasked,
		CardExpiry:        info.CardExpiry,
		CardBalance:       info.CardBalance,
		ChallengeQuestion: info.ChallengeQuestion,
	}
}

// AccountHandler handles registration and profile requests
type AccountHandler struct {
	BaseHandler
	accounts *appidentity.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *appidentity.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register godoc
// @Summary      Open an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration"
// @Success      201 {object} dto.Response{data=CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appidentity.RegisterInput{
		ID:              req.ID,
		Secret:          req.Secret,
		Name:            req.Name,
		Address:         req.Address,
		CardNumber:      req.CardNumber,
		CardHolder:      req.CardHolder,
		CardCVV:         req.CardCVV,
		ChallengeIndex:  req.ChallengeIndex,
		ChallengeAnswer: req.ChallengeAnswer,
	}
	if req.CardExpiry != "" {
		expiry, err := payment.ParseExpiry(req.CardExpiry)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		input.CardExpiry = expiry
	}
	if req.CardBalance != "" {
		balance, err := valueobject.NewMoneyFromString(req.CardBalance)
		if err != nil {
			h.BadRequest(c, "Invalid card balance")
			return
		}
		input.CardBalance = &balance
	}

	info, err := h.accounts.Register(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(*info))
}

// ChallengeQuestions lists the security questions a new account picks from
//
// @Summary      List security questions
// @Tags         accounts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]ChallengeQuestionResponse}
// @Router       /accounts/challenges [get]
func (h *AccountHandler) ChallengeQuestions(c *gin.Context) {
	questions := h.accounts.ChallengeQuestions()
	out := make([]ChallengeQuestionResponse, len(questions))
	for i, q := range questions {
		out[i] = ChallengeQuestionResponse{Index: i, Question: q}
	}
	h.Success(c, out)
}

// Me returns the authenticated customer's profile
//
// @Summary      Show the signed-in customer
// @Tags         accounts
// @Produce      json
// @Success      200 {object} dto.Response{data=CustomerResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	info, err := h.accounts.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(*info))
}
