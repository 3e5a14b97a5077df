package handlers

import (
	"context"
	"errors"
	"net/http"

	"kitchensync/internal/config"
	"kitchensync/internal/kitchen"
	"kitchensync/internal/logger"
	"kitchensync/internal/matching"
	"kitchensync/internal/middleware"
	"kitchensync/internal/models"
	"kitchensync/internal/notify"

	"github.com/gin-gonic/gin"
)

// DashboardMatchThreshold is the minimum match ratio for a recipe to be
// suggested on the dashboard.
const DashboardMatchThreshold = 0.7

const dashboardSuggestions = 3

func SetupRoutes(r *gin.Engine, k *kitchen.Kitchen, cfg *config.Config) {
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))
	r.Use(middleware.NotFoundGuard(cfg))
	r.Use(middleware.WithKitchen(k))
	r.Use(middleware.TrimSpaces())

	r.GET("/about", middleware.AuthOptional(k), handleAbout)

	guest := r.Group("/")
	guest.Use(middleware.GuestOnly(k))
	guest.Use(middleware.AuthRateLimit(cfg))
	{
		guest.GET("/login", handleLoginPage)
		guest.POST("/login", handleLogin)
		guest.GET("/signup", handleSignupPage)
		guest.POST("/signup", handleSignup)
	}

	protected := r.Group("/")
	protected.Use(middleware.AuthRequired(k))
	{
		protected.GET("/", handleDashboard)
		protected.POST("/logout", handleLogout)

		protected.GET("/my-pantry", handlePantry)
		protected.POST("/my-pantry", handleAddIngredient)
		protected.POST("/my-pantry/clear", handleClearPantry)
		protected.GET("/my-pantry/export", handleExportPantry)
		protected.POST("/my-pantry/import", handleImportPantry)
		protected.PUT("/my-pantry/:id", handleUpdateIngredient)
		protected.DELETE("/my-pantry/:id", handleRemoveIngredient)

		protected.GET("/browse-recipes", handleBrowseRecipes)
		protected.GET("/pantry-recipes", handlePantryRecipes)
		protected.GET("/my-recipes", handleMyRecipes)
		protected.POST("/add-recipe", handleAddRecipe)
		protected.GET("/recipe/:id", handleRecipeDetail)
		protected.PUT("/recipe/:id", handleUpdateRecipe)
		protected.DELETE("/recipe/:id", handleDeleteRecipe)
		protected.POST("/recipe/:id/missing", handleAddMissingToList)
		protected.POST("/recipe/:id/meal-plan", handleAddRecipeToMealPlan)

		protected.GET("/shopping-list", handleShoppingList)
		protected.POST("/shopping-list", handleAddShoppingItem)
		protected.POST("/shopping-list/clear", handleClearShoppingList)
		protected.POST("/shopping-list/clear-checked", handleClearCheckedItems)
		protected.POST("/shopping-list/:id/toggle", handleToggleShoppingItem)
		protected.PUT("/shopping-list/:id", handleUpdateShoppingItem)
		protected.DELETE("/shopping-list/:id", handleRemoveShoppingItem)

		protected.GET("/meal-plan", handleMealPlan)
		protected.POST("/meal-plan", handleAssignMeal)
		protected.DELETE("/meal-plan/:id/:meal_type", handleUnassignMeal)

		protected.GET("/profile", handleProfile)
		protected.POST("/profile", handleUpdateProfile)
	}

	r.NoRoute(handleNotFound)
}

func getKitchen(c *gin.Context) *kitchen.Kitchen {
	return c.MustGet("kitchen").(*kitchen.Kitchen)
}

// noticeContext collects the notices raised while handling one request.
func noticeContext(c *gin.Context) (context.Context, *notify.Recorder) {
	rec := &notify.Recorder{}
	return notify.WithNotifier(c.Request.Context(), rec), rec
}

func respond(c *gin.Context, status int, body gin.H, notices *notify.Recorder) {
	if body == nil {
		body = gin.H{}
	}
	if notices != nil {
		body["notices"] = notices.Drain()
	}
	c.JSON(status, body)
}

// respondError maps a kitchen error onto a response. In-memory state is
// intact for every case except validation, where nothing changed.
func respondError(c *gin.Context, err error, notices *notify.Recorder) {
	var ve *models.ValidationError
	switch {
	case errors.Is(err, kitchen.ErrNotAuthenticated):
		c.Redirect(http.StatusFound, "/login")
	case errors.As(err, &ve):
		respond(c, http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field}, notices)
	case models.IsValidation(err):
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()}, notices)
	default:
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		respond(c, http.StatusInternalServerError, gin.H{"error": "Failed to save changes"}, notices)
	}
}

func respondNotFound(c *gin.Context, what string, notices *notify.Recorder) {
	respond(c, http.StatusNotFound, gin.H{"error": what + " not found"}, notices)
}

func handleDashboard(c *gin.Context) {
	k := getKitchen(c)

	var body gin.H
	err := k.View(func(st *kitchen.State) error {
		matches := st.Recipes.RankByPantryMatch(st.Pantry, DashboardMatchThreshold)
		if len(matches) > dashboardSuggestions {
			matches = matches[:dashboardSuggestions]
		}

		var today *models.MealPlan
		if plan, ok := st.MealPlans.ByDate(k.Today()); ok {
			today = &plan
		}

		body = gin.H{
			"user": st.User,
			"stats": gin.H{
				"pantryItems":   st.Pantry.Len(),
				"recipes":       len(st.Recipes.All()),
				"myRecipes":     len(st.Recipes.Authored()),
				"shoppingItems": len(st.Shopping.Unchecked()),
			},
			"pantryByCategory": st.Pantry.CountByCategory(),
			"suggestions":      matches,
			"today":            today,
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleAbout(c *gin.Context) {
	user, _ := c.Get("user")
	c.JSON(http.StatusOK, gin.H{
		"name":        "KitchenSync",
		"description": "Track your pantry, find recipes you can cook, plan meals and build shopping lists.",
		"user":        user,
	})
}

func handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Page not found", "path": c.Request.URL.Path})
}

// matchView is a recipe with its pantry coverage.
type matchView struct {
	matching.Match
	Missing   []models.RecipeIngredient `json:"missing"`
	Available []models.RecipeIngredient `json:"available"`
}

func viewMatch(p matching.Pantry, r models.Recipe) matchView {
	return matchView{
		Match:     matching.Match{Recipe: r, Ratio: matching.MatchRatio(p, r)},
		Missing:   matching.MissingIngredients(p, r),
		Available: matching.AvailableIngredients(p, r),
	}
}
