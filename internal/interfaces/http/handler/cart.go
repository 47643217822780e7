package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cos/backend/internal/application/shopping"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

// AddItemRequest puts units of a product in the cart. A non-positive quantity
// is rejected by the cart with INVALID_QUANTITY.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"max=999"`
}

// SetQuantityRequest replaces the quantity of a cart line; zero removes it
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=999"`
}

// CartHandler handles the authenticated customer's cart
type CartHandler struct {
	BaseHandler
	carts *shopping.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *shopping.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// View godoc
// @Summary      Show the cart priced for a delivery method
// @Tags         cart
// @Produce      json
// @Param        delivery query string false "mail or pickup" default(pickup)
// @Success      200 {object} dto.Response{data=shopping.CartView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) View(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	view, err := h.carts.View(c.Request.Context(), customerID, deliveryParam(c.Query("delivery")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem godoc
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body AddItemRequest true "Item"
// @Success      200 {object} dto.Response{data=shopping.CartView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SetQuantity godoc
// @Summary      Change the quantity of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        request body SetQuantityRequest true "Quantity"
// @Success      200 {object} dto.Response{data=shopping.CartView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	view, err := h.carts.SetQuantity(c.Request.Context(), customerID, c.Param("product_id"), *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem takes units of a product out of the cart. Without a quantity,
// or with one covering the whole line, the line is removed.
//
// @Summary      Remove units of a product from the cart
// @Tags         cart
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        quantity query int false "Units to remove; omit to drop the line"
// @Success      200 {object} dto.Response{data=shopping.CartView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	quantity := 0
	if q := c.Query("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			h.BadRequest(c, "quantity must be an integer")
			return
		}
		quantity = n
	}
	view, err := h.carts.RemoveItem(c.Request.Context(), customerID, c.Param("product_id"), quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear empties the cart
//
// @Summary      Empty the cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	customerID := h.customerID(c)
	if customerID == "" {
		return
	}
	h.carts.Clear(c.Request.Context(), customerID)
	h.NoContent(c)
}

// deliveryParam lower-cases a delivery method. Invalid values are passed on
// unchanged so the service reports INVALID_DELIVERY in its usual order.
func deliveryParam(raw string) pricing.DeliveryMethod {
	if d, err := pricing.ParseDeliveryMethod(raw); err == nil {
		return d
	}
	return pricing.DeliveryMethod(raw)
}
