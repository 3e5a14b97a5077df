package handlers

import (
	"net/http"

	"kitchensync/internal/kitchen"

	"github.com/gin-gonic/gin"
)

func handleProfile(c *gin.Context) {
	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		body = gin.H{"user": st.User}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

type preferencesRequest struct {
	DietaryPreferences []string `json:"dietaryPreferences" form:"dietary_preferences"`
}

func handleUpdateProfile(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences"})
		return
	}

	ctx, notices := noticeContext(c)
	user, err := getKitchen(c).UpdatePreferences(ctx, req.DietaryPreferences)
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"user": user}, notices)
}
