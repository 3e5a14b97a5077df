package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, time.June, 10, 23, 30, 0, 0, loc)
	early := time.Date(2024, time.June, 10, 0, 5, 0, 0, time.UTC)

	assert.True(t, DateOf(late).Equal(DateOf(early)))
	assert.Equal(t, "2024-06-10", DateOf(late).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.June, 10), d)

	d, err = ParseDate("2024-06-10T18:45:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.June, 10), d)

	_, err = ParseDate("next tuesday")
	assert.Error(t, err)
}

func TestMealPlanJSONRoundTrip(t *testing.T) {
	plan := MealPlan{
		ID:    "p1",
		Date:  NewDate(2024, time.June, 10),
		Meals: []Meal{{Type: MealDinner, RecipeID: "recipeA"}},
	}

	data, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2024-06-10"`)

	var decoded MealPlan
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, plan, decoded)
}

func TestWeekStart(t *testing.T) {
	// 2024-06-13 is a Thursday.
	assert.Equal(t, NewDate(2024, time.June, 10), WeekStart(NewDate(2024, time.June, 13)))
	assert.Equal(t, NewDate(2024, time.June, 10), WeekStart(NewDate(2024, time.June, 10)))
	assert.Equal(t, NewDate(2024, time.June, 10), WeekStart(NewDate(2024, time.June, 16)))
}

func TestIngredientUpdateApply(t *testing.T) {
	ing := Ingredient{ID: "1", Name: "Egg", Category: CategoryDairy, Quantity: "6"}
	qty := "12"
	IngredientUpdate{Quantity: &qty}.Apply(&ing)

	assert.Equal(t, Ingredient{ID: "1", Name: "Egg", Category: CategoryDairy, Quantity: "12"}, ing)
}

func TestValidation(t *testing.T) {
	err := NewIngredient{Name: " ", Category: CategoryOther}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = NewIngredient{Name: "Salt", Category: "Spices"}.Validate()
	assert.True(t, IsValidation(err))

	assert.NoError(t, NewIngredient{Name: "Salt", Category: CategorySeasonings}.Validate())

	err = NewRecipe{Title: "Toast", MealType: []MealType{"Brunch"}}.Validate()
	assert.True(t, IsValidation(err))
}
