package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/validation"

	"github.com/gin-gonic/gin"
)

func (h *Handler) profile(c *gin.Context) {
	view := h.pages.Profile(c.Request.Context())
	render(c, view.Status, nil, view)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var form validation.ProfileForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.UpdateProfile(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	files, closeAll, err := openFiles("avatar", []*multipart.FileHeader{fh})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll()

	res := h.pages.UploadAvatar(c.Request.Context(), files[0])
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) changePassword(c *gin.Context) {
	var form validation.ChangePasswordForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.ChangePassword(c.Request.Context(), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) savePreferences(c *gin.Context) {
	var prefs models.NotificationPreferences
	if !bindJSON(c, &prefs) {
		return
	}
	res := h.pages.SavePreferences(c.Request.Context(), prefs)
	render(c, res.Status, nil, res)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	res := h.pages.DeleteAccount(c.Request.Context())
	if res.Error == "" {
		h.cart.Reset()
		h.messages.Close()
		h.checkout.Reset()
	}
	render(c, res.Status, nil, res)
}

func (h *Handler) listings(c *gin.Context) {
	view := h.pages.MyListings(c.Request.Context())
	render(c, view.Status, nil, view)
}

// createListing reads a multipart form: the listing fields, an optional
// JSON "specifications" field and one or more "images" files.
func (h *Handler) createListing(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}

	listing := validation.ListingForm{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
		Category:    c.PostForm("category"),
		Condition:   c.PostForm("condition"),
	}
	if raw := c.PostForm("specifications"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &listing.Specifications); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid specifications"})
			return
		}
	}

	files, closeAll, err := openFiles("images", form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll()

	res := h.pages.CreateListing(c.Request.Context(), &listing, files)
	if res.Product != nil && len(res.Errors) == 0 && res.Error == "" {
		c.JSON(http.StatusCreated, res)
		return
	}
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) updateListing(c *gin.Context) {
	var form validation.ListingForm
	if !bindJSON(c, &form) {
		return
	}
	res := h.pages.UpdateListing(c.Request.Context(), c.Param("id"), &form)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) deleteListing(c *gin.Context) {
	res := h.pages.DeleteListing(c.Request.Context(), c.Param("id"))
	render(c, res.Status, nil, res)
}

func (h *Handler) uploadListingImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}
	files, closeAll, err := openFiles("images", form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll()

	res := h.pages.UploadListingImages(c.Request.Context(), c.Param("id"), files)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) removeListingImage(c *gin.Context) {
	res := h.pages.RemoveListingImage(c.Request.Context(), c.Param("id"), c.Param("imageId"))
	render(c, res.Status, nil, res)
}

func (h *Handler) setMainImage(c *gin.Context) {
	res := h.pages.SetMainImage(c.Request.Context(), c.Param("id"), c.Param("imageId"))
	render(c, res.Status, nil, res)
}

func (h *Handler) addSpecification(c *gin.Context) {
	var spec models.Specification
	if !bindJSON(c, &spec) {
		return
	}
	res := h.pages.AddSpecification(c.Request.Context(), c.Param("id"), spec)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) updateSpecification(c *gin.Context) {
	var spec models.Specification
	if !bindJSON(c, &spec) {
		return
	}
	res := h.pages.UpdateSpecification(c.Request.Context(), c.Param("id"), c.Param("specId"), spec)
	render(c, res.Status, res.Errors, res)
}

func (h *Handler) removeSpecification(c *gin.Context) {
	res := h.pages.RemoveSpecification(c.Request.Context(), c.Param("id"), c.Param("specId"))
	render(c, res.Status, nil, res)
}

// openFiles opens uploaded parts for forwarding under field. The returned
// func closes every opened file.
func openFiles(field string, headers []*multipart.FileHeader) ([]apiclient.File, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, cl := range closers {
			cl.Close()
		}
	}

	files := make([]apiclient.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		closers = append(closers, f)
		files = append(files, apiclient.File{Field: field, Filename: fh.Filename, Reader: f})
	}
	return files, closeAll, nil
}
