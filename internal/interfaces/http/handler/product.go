package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/cos/backend/internal/application/catalog"
)

// ProductHandler serves the catalog
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Get godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
