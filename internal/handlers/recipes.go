package handlers

import (
	"net/http"
	"strconv"

	"kitchensync/internal/kitchen"
	"kitchensync/internal/models"
	"kitchensync/internal/recipe"

	"github.com/gin-gonic/gin"
)

func handleBrowseRecipes(c *gin.Context) {
	filter := recipe.Filter{
		Search:      c.Query("q"),
		DietaryTags: c.QueryArray("tag"),
	}
	for _, raw := range c.QueryArray("meal_type") {
		mt, err := models.ParseMealType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal type", "mealType": raw})
			return
		}
		filter.MealTypes = append(filter.MealTypes, mt)
	}

	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		body = gin.H{
			"recipes":   filter.Apply(st.Recipes.All()),
			"mealTypes": models.MealTypes,
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handlePantryRecipes(c *gin.Context) {
	threshold := 0.0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Threshold must be a number between 0 and 1"})
			return
		}
		threshold = parsed
	}

	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		body = gin.H{
			"threshold": threshold,
			"matches":   st.Recipes.RankByPantryMatch(st.Pantry, threshold),
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleMyRecipes(c *gin.Context) {
	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		body = gin.H{"recipes": st.Recipes.Authored()}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleRecipeDetail(c *gin.Context) {
	id := c.Param("id")

	var (
		body  gin.H
		found bool
	)
	err := getKitchen(c).View(func(st *kitchen.State) error {
		r, ok := st.Recipes.Lookup(id)
		if !ok {
			return nil
		}
		found = true
		body = gin.H{
			"recipe":    viewMatch(st.Pantry, r),
			"editable":  st.Recipes.IsAuthored(id),
			"totalTime": r.TotalTime(),
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleAddRecipe(c *gin.Context) {
	var req models.NewRecipe
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe"})
		return
	}

	ctx, notices := noticeContext(c)
	r, err := getKitchen(c).AddRecipe(ctx, req)
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusCreated, gin.H{"recipe": r, "redirect": "/recipe/" + r.ID}, notices)
}

func handleUpdateRecipe(c *gin.Context) {
	var req models.RecipeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe update"})
		return
	}

	ctx, notices := noticeContext(c)
	r, found, err := getKitchen(c).UpdateRecipe(ctx, c.Param("id"), req)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"recipe": r}, notices)
}

func handleDeleteRecipe(c *gin.Context) {
	ctx, notices := noticeContext(c)
	found, err := getKitchen(c).RemoveRecipe(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true, "redirect": "/my-recipes"}, notices)
}

func handleAddMissingToList(c *gin.Context) {
	ctx, notices := noticeContext(c)
	added, found, err := getKitchen(c).AddMissingToShoppingList(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"added": added}, notices)
}

type planRecipeRequest struct {
	Date     string          `json:"date" form:"date"`
	MealType models.MealType `json:"mealType" form:"meal_type"`
}

// handleAddRecipeToMealPlan plans the recipe for the given date, today when
// none is given.
func handleAddRecipeToMealPlan(c *gin.Context) {
	var req planRecipeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal plan request"})
		return
	}

	var date models.Date
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "field": "date"})
			return
		}
		date = parsed
	}

	ctx, notices := noticeContext(c)
	plan, found, err := getKitchen(c).PlanRecipe(ctx, c.Param("id"), date, req.MealType)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"plan": plan}, notices)
}
