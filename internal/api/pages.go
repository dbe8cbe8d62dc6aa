package api

import (
	"net/http"

	"marketplace-storefront/internal/validation"

	"github.com/gin-gonic/gin"
)

func (h *Handler) login(c *gin.Context) {
	var form validation.LoginForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.Login(c.Request.Context(), &form)
	if res.Error != "" && len(res.Errors) == 0 {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) register(c *gin.Context) {
	var form validation.RegisterForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.Register(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) logout(c *gin.Context) {
	res := h.pages.Logout(c.Request.Context())
	h.cart.Reset()
	h.messages.Close()
	h.checkout.Reset()
	c.JSON(http.StatusOK, res)
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res := h.pages.ForgotPassword(c.Request.Context(), req.Email)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var form validation.ResetPasswordForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.ResetPassword(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) contact(c *gin.Context) {
	var form validation.ContactForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.Contact(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) home(c *gin.Context) {
	view := h.pages.Home(c.Request.Context())
	render(c, view.Status, nil, view)
}

func (h *Handler) browse(c *gin.Context) {
	view := h.pages.Browse.View()
	if view.Products == nil {
		view = h.pages.Browse.Load(c.Request.Context())
	}
	render(c, view.Status, nil, view)
}

func (h *Handler) browseFilter(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Value string `json:"value"`
	}
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.pages.Browse.SetFilter(c.Request.Context(), req.Name, req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	render(c, view.Status, nil, view)
}

func (h *Handler) browsePage(c *gin.Context) {
	var req struct {
		Page int `json:"page" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	view := h.pages.Browse.SetPage(c.Request.Context(), req.Page)
	render(c, view.Status, nil, view)
}

func (h *Handler) browseReset(c *gin.Context) {
	view := h.pages.Browse.ResetFilters(c.Request.Context())
	render(c, view.Status, nil, view)
}

func (h *Handler) productDetail(c *gin.Context) {
	view := h.pages.ProductDetail(c.Request.Context(), c.Param("id"))
	render(c, view.Status, nil, view)
}

func (h *Handler) seller(c *gin.Context) {
	view := h.pages.Seller(c.Request.Context(), c.Param("id"))
	render(c, view.Status, nil, view)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	res := h.pages.AddToCart(c.Request.Context(), c.Param("id"), req.Quantity)
	render(c, res.Status, nil, gin.H{
		"error":     res.Error,
		"message":   res.Message,
		"cartCount": h.counter.Count(),
	})
}

func (h *Handler) submitReview(c *gin.Context) {
	var req struct {
		ReviewID string `json:"reviewId"`
		validation.ReviewForm
	}
	if !bindJSON(c, &req) {
		return
	}
	res := h.pages.SubmitReview(c.Request.Context(), c.Param("id"), req.ReviewID, &req.ReviewForm)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) deleteReview(c *gin.Context) {
	res := h.pages.DeleteReview(c.Request.Context(), c.Param("id"))
	render(c, res.Status, nil, res)
}

func (h *Handler) report(c *gin.Context) {
	var form validation.ReportForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.Report(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}
