package api

import (
	"net/http"

	"marketplace-storefront/internal/cart"

	"github.com/gin-gonic/gin"
)

type mutationResponse struct {
	Mutation *cart.Mutation `json:"mutation,omitempty"`
	cart.View
}

func (h *Handler) cartView(c *gin.Context) {
	h.renderSession(c, h.cart.Load(c.Request.Context()))
}

func (h *Handler) cartUpdate(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	m := h.cart.UpdateQuantity(c.Request.Context(), c.Param("productId"), req.Quantity)
	h.renderSession(c, mutationResponse{Mutation: m, View: h.cart.View()})
}

func (h *Handler) cartIncrement(c *gin.Context) {
	m := h.cart.Increment(c.Request.Context(), c.Param("productId"))
	h.renderSession(c, mutationResponse{Mutation: m, View: h.cart.View()})
}

func (h *Handler) cartDecrement(c *gin.Context) {
	m := h.cart.Decrement(c.Request.Context(), c.Param("productId"))
	h.renderSession(c, mutationResponse{Mutation: m, View: h.cart.View()})
}

func (h *Handler) cartRemove(c *gin.Context) {
	m := h.cart.Remove(c.Request.Context(), c.Param("productId"))
	h.renderSession(c, mutationResponse{Mutation: m, View: h.cart.View()})
}

func (h *Handler) cartClear(c *gin.Context) {
	m := h.cart.Clear(c.Request.Context())
	h.renderSession(c, mutationResponse{Mutation: m, View: h.cart.View()})
}

func (h *Handler) cartValidate(c *gin.Context) {
	h.renderSession(c, h.cart.Validate(c.Request.Context()))
}

func (h *Handler) checkoutView(c *gin.Context) {
	h.renderSession(c, h.checkout.Load(c.Request.Context()))
}

func (h *Handler) checkoutField(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Value string `json:"value"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.checkout.SetField(req.Name, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.renderSession(c, h.checkout.View())
}

func (h *Handler) checkoutNext(c *gin.Context) {
	view := h.checkout.Next()
	if len(view.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, view)
		return
	}
	h.renderSession(c, view)
}

func (h *Handler) checkoutBack(c *gin.Context) {
	h.renderSession(c, h.checkout.Back())
}

func (h *Handler) checkoutSubmit(c *gin.Context) {
	view := h.checkout.Submit(c.Request.Context())
	if len(view.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, view)
		return
	}
	h.renderSession(c, view)
}

func (h *Handler) checkoutReset(c *gin.Context) {
	h.renderSession(c, h.checkout.Reset())
}

func (h *Handler) messagesView(c *gin.Context) {
	h.renderSession(c, h.messages.Load(c.Request.Context()))
}

// messagesCompose handles the product page deep link ?product=&seller=.
func (h *Handler) messagesCompose(c *gin.Context) {
	product, seller := c.Query("product"), c.Query("seller")
	if product == "" || seller == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product and seller are required"})
		return
	}
	h.renderSession(c, h.messages.OpenDeepLink(c.Request.Context(), product, seller))
}

func (h *Handler) messagesSelect(c *gin.Context) {
	h.renderSession(c, h.messages.Select(c.Request.Context(), c.Param("id")))
}

func (h *Handler) messagesSend(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &req) {
		return
	}
	h.renderSession(c, h.messages.Send(c.Request.Context(), req.Content))
}

func (h *Handler) messagesRefresh(c *gin.Context) {
	h.renderSession(c, h.messages.Refresh(c.Request.Context()))
}

func (h *Handler) messagesClose(c *gin.Context) {
	h.renderSession(c, h.messages.Close())
}

func (h *Handler) orders(c *gin.Context) {
	view := h.pages.Orders(c.Request.Context())
	render(c, view.Status, nil, view)
}

func (h *Handler) order(c *gin.Context) {
	view := h.pages.Order(c.Request.Context(), c.Param("id"))
	render(c, view.Status, nil, view)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	view := h.pages.CancelOrder(c.Request.Context(), c.Param("id"))
	render(c, view.Status, nil, view)
}
