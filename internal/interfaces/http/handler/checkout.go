package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cos/backend/internal/application/checkout"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader makes a retried checkout fail with DUPLICATE_REQUEST
// instead of charging twice
const IdempotencyKeyHeader = "Idempotency-Key"

// CardRequest describes a replacement card. Structural problems with the
// number or an expired date surface as payment declines, not as 400s.
type CardRequest struct {
	Number  string `json:"card_number"`
	Holder  string `json:"card_holder"`
	Expiry  string `json:"card_expiry" binding:"omitempty,card_expiry"`
	CVV     string `json:"card_cvv"`
	Balance string `json:"card_balance" binding:"omitempty,numeric"`
}

// CheckoutRequest checks out the cart. Replacement cards are tried in order
// after each decline of the stored card; when they run out the checkout fails
// with PAYMENT_FAILED.
type CheckoutRequest struct {
	Delivery         string        `json:"delivery_method"`
	ReplacementCards []CardRequest `json:"replacement_cards" binding:"omitempty,dive"`
}

// CheckoutResponse is the receipt of a placed order
type CheckoutResponse struct {
	Order              checkout.OrderResponse `json:"order"`
	Attempts           int                    `json:"attempts"`
	InstrumentReplaced bool                   `json:"instrument_replaced"`
}

// CheckoutHandler places orders and lists order history
type CheckoutHandler struct {
	BaseHandler
	checkout *checkout.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: service}
}

// PlaceOrder godoc
// @Summary      Check out the cart
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Deduplicates retried requests"
// @Param        request body CheckoutRequest true "Checkout"
// @Success      201 {object} dto.Response{data=CheckoutResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      402 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /checkout [post]
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cards := make([]payment.Instrument, 0, len(req.ReplacementCards))
	for _, card := range req.ReplacementCards {
		instr, err := card.instrument()
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		cards = append(cards, instr)
	}

	receipt, err := h.checkout.PlaceOrder(c.Request.Context(), checkout.PlaceOrderRequest{
		CustomerID:     customerID,
		Delivery:       deliveryParam(req.Delivery),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
		Replacements:   checkout.NewInstrumentQueue(cards...),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, CheckoutResponse{
		Order:              receipt.Order,
		Attempts:           receipt.Attempts,
		InstrumentReplaced: receipt.InstrumentReplaced,
	})
}

// Orders returns the customer's order history, oldest first
//
// @Summary      List the customer's orders
// @Tags         checkout
// @Produce      json
// @Success      200 {object} dto.Response{data=[]checkout.OrderResponse}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *CheckoutHandler) Orders(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	orders, err := h.checkout.OrdersFor(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

func (r CardRequest) instrument() (payment.Instrument, error) {
	var expiry payment.Expiry
	if r.Expiry != "" {
		e, err := payment.ParseExpiry(r.Expiry)
		if err != nil {
			return payment.Instrument{}, err
		}
		expiry = e
	}
	balance := payment.DefaultBalance
	if r.Balance != "" {
		b, err := valueobject.NewMoneyFromString(r.Balance)
		if err != nil {
			return payment.Instrument{}, err
		}
		balance = b
	}
	return payment.NewInstrument(r.Number, r.Holder, expiry, r.CVV, balance), nil
}
