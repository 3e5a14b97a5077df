package handlers

import (
	"errors"
	"net/http"

	"kitchensync/internal/logger"
	"kitchensync/internal/notify"
	"kitchensync/internal/session"

	"github.com/gin-gonic/gin"
)

type credentialsForm struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirmPassword"`
}

func handleLoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "login",
		"fields":  []string{"username", "password"},
		"loading": getKitchen(c).Identity().Loading(),
	})
}

func handleSignupPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "signup",
		"fields":  []string{"username", "password", "confirm_password"},
		"loading": getKitchen(c).Identity().Loading(),
	})
}

func handleLogin(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login form"})
		return
	}

	ctx, notices := noticeContext(c)
	user, err := getKitchen(c).Login(ctx, form.Username, form.Password)
	if err != nil {
		respondAuthError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"user": user, "redirect": "/"}, notices)
}

func handleSignup(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup form"})
		return
	}

	ctx, notices := noticeContext(c)
	user, err := getKitchen(c).Signup(ctx, form.Username, form.Password, form.ConfirmPassword)
	if err != nil {
		respondAuthError(c, err, notices)
		return
	}

	respond(c, http.StatusCreated, gin.H{"user": user, "redirect": "/"}, notices)
}

func respondAuthError(c *gin.Context, err error, notices *notify.Recorder) {
	if errors.Is(err, session.ErrInvalidCredentials) {
		respond(c, http.StatusUnauthorized, gin.H{"error": "Invalid username or password"}, notices)
		return
	}
	respondError(c, err, notices)
}

func handleLogout(c *gin.Context) {
	ctx, notices := noticeContext(c)
	if err := getKitchen(c).Logout(ctx); err != nil {
		logger.Error("Failed to log out", "error", err)
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"redirect": "/login"}, notices)
}
