package api

import (
	"marketplace-storefront/internal/validation"

	"github.com/gin-gonic/gin"
)

func (h *Handler) adminDashboard(c *gin.Context) {
	view := h.pages.AdminDashboard(c.Request.Context(), c.Query("status"))
	render(c, view.Status, nil, view)
}

func (h *Handler) adminReportStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res := h.pages.UpdateReportStatus(c.Request.Context(), c.Param("id"), req.Status)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) adminDeleteReport(c *gin.Context) {
	res := h.pages.DeleteReport(c.Request.Context(), c.Param("id"))
	render(c, res.Status, nil, res)
}

// adminSaveCategory serves both create (POST) and update (PUT /:id).
func (h *Handler) adminSaveCategory(c *gin.Context) {
	var form validation.CategoryForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.SaveCategory(c.Request.Context(), c.Param("id"), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) adminDeleteCategory(c *gin.Context) {
	res := h.pages.DeleteCategory(c.Request.Context(), c.Param("id"))
	render(c, res.Status, nil, res)
}

func (h *Handler) adminDeleteUser(c *gin.Context) {
	res := h.pages.DeleteUser(c.Request.Context(), c.Param("id"))
	render(c, res.Status, nil, res)
}

func (h *Handler) adminApproveListing(c *gin.Context) {
	res := h.pages.ModerateListing(c.Request.Context(), c.Param("id"), true)
	render(c, res.Status, nil, res)
}

func (h *Handler) adminRejectListing(c *gin.Context) {
	res := h.pages.ModerateListing(c.Request.Context(), c.Param("id"), false)
	render(c, res.Status, nil, res)
}
