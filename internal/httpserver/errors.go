package httpserver

import (
	"context"
	"errors"
	"net/http"

	"inkblot-storefront/internal/domain"
	cartsvc "inkblot-storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error     string   `json:"error"`
	Messages  []string `json:"messages,omitempty"`
	Retryable *bool    `json:"retryable,omitempty"`
}

// writeError maps service errors onto HTTP responses.
func (h *handlers) writeError(c *gin.Context, op string, err error) {
	var transport *domain.TransportError
	var remote *domain.RemoteError

	switch {
	case errors.Is(err, domain.ErrConfiguration):
		h.logger.Printf("%s: configuration error: %v", op, err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "storefront is not configured"})
	case errors.As(err, &transport):
		h.logger.Printf("%s: transport error: %v", op, err)
		retryable := transport.Retryable()
		c.JSON(http.StatusBadGateway, errorBody{Error: "storefront unavailable", Retryable: &retryable})
	case errors.As(err, &remote):
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: remote.Error(), Messages: remote.Messages})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, domain.ErrBusy):
		c.JSON(http.StatusConflict, errorBody{Error: "cart update already in progress"})
	case errors.Is(err, cartsvc.ErrProfileRequired), errors.Is(err, cartsvc.ErrVariantRequired), errors.Is(err, cartsvc.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorBody{Error: "request cancelled"})
	default:
		h.logger.Printf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
