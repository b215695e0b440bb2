package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listProducts(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	products, err := h.deps.CatalogSvc.ListProducts(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, "list products", err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProduct(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.CatalogSvc.GetProductByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		h.writeError(c, "get product", err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}

func (h *handlers) currentCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.FetchCurrentCart(c.Request.Context(), profileID(c))
	if err != nil {
		h.writeError(c, "current cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart), "checkoutUrl": cart.CheckoutURL})
}

type addToCartRequest struct {
	VariantID string `json:"variantId"`
	Quantity  *int   `json:"quantity"`
	// Website is never shown to people; bots fill it in.
	Website string `json:"website"`
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Website) != "" {
		c.Status(http.StatusNoContent)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.deps.CartSvc.AddVariant(c.Request.Context(), profileID(c), req.VariantID, quantity)
	if err != nil {
		h.writeError(c, "add to cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart), "checkoutUrl": cart.CheckoutURL})
}
