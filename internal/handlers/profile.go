package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	log      logrus.FieldLogger
}

type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

func NewProfileHandler(profiles *services.ProfileService, log logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

// GetOwnProfile creates the caller's profile on first visit.
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	userID := currentUserID(c)
	if _, err := h.profiles.GetOrCreate(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err, "Failed to load profile")
		return
	}

	view, err := h.profiles.View(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": profile})
}

func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.DeleteAccount(c.Request.Context(), currentUserID(c), req.Password); err != nil {
		respondError(c, h.log, err, "Failed to delete account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	view, err := h.profiles.View(c.Request.Context(), currentUserID(c), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}
	defer file.Close()

	image, err := h.profiles.AddImage(c.Request.Context(), currentUserID(c), services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to upload image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": image})
}

func (h *ProfileHandler) SetMainImage(c *gin.Context) {
	imageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	image, err := h.profiles.SetMainImage(c.Request.Context(), currentUserID(c), imageID)
	if err != nil {
		respondError(c, h.log, err, "Failed to update image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": image})
}

func (h *ProfileHandler) DeleteImage(c *gin.Context) {
	imageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.profiles.DeleteImage(c.Request.Context(), currentUserID(c), imageID); err != nil {
		respondError(c, h.log, err, "Failed to delete image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}
