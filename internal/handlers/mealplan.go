package handlers

import (
	"net/http"

	"kitchensync/internal/kitchen"
	"kitchensync/internal/mealplan"
	"kitchensync/internal/models"

	"github.com/gin-gonic/gin"
)

type dayView struct {
	Date  models.Date          `json:"date"`
	Plan  *models.MealPlan     `json:"plan"`
	Meals map[string]*mealView `json:"meals"`
}

type mealView struct {
	RecipeID string `json:"recipeId"`
	Title    string `json:"title"`
}

// handleMealPlan renders the Monday-based week containing ?week, or the
// current week.
func handleMealPlan(c *gin.Context) {
	k := getKitchen(c)

	start := models.WeekStart(k.Today())
	if raw := c.Query("week"); raw != "" {
		day, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week", "field": "week"})
			return
		}
		start = models.WeekStart(day)
	}

	var body gin.H
	err := k.View(func(st *kitchen.State) error {
		plans := st.MealPlans.ByWeek(start)

		days := make([]dayView, 7)
		for i := range days {
			date := start.AddDays(i)
			days[i] = dayView{Date: date, Meals: make(map[string]*mealView, len(models.MealTypes))}
			for _, mt := range models.MealTypes {
				days[i].Meals[string(mt)] = nil
			}
		}

		for j := range plans {
			plan := plans[j]
			offset := int(plan.Date.Time().Sub(start.Time()).Hours() / 24)
			day := &days[offset]
			day.Plan = &plan
			for _, meal := range plan.Meals {
				mv := &mealView{RecipeID: meal.RecipeID}
				if r, ok := st.Recipes.Lookup(meal.RecipeID); ok {
					mv.Title = r.Title
				}
				day.Meals[string(meal.Type)] = mv
			}
		}

		body = gin.H{
			"weekStart": start,
			"prevWeek":  start.AddDays(-7),
			"nextWeek":  start.AddDays(7),
			"days":      days,
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

type assignMealRequest struct {
	Date     string          `json:"date" form:"date"`
	MealType models.MealType `json:"mealType" form:"meal_type"`
	RecipeID string          `json:"recipeId" form:"recipe_id"`
}

func handleAssignMeal(c *gin.Context) {
	var req assignMealRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal"})
		return
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "field": "date"})
		return
	}

	ctx, notices := noticeContext(c)
	plan, found, err := getKitchen(c).AssignMeal(ctx, date, req.MealType, req.RecipeID)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Recipe", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"plan": plan, "weekStart": mealplan.WeekStart(date.Time())}, notices)
}

func handleUnassignMeal(c *gin.Context) {
	mealType, err := models.ParseMealType(c.Param("meal_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal type"})
		return
	}

	ctx, notices := noticeContext(c)
	found, err := getKitchen(c).UnassignMeal(ctx, c.Param("id"), mealType)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Meal", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true}, notices)
}
