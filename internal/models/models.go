package models

import (
	"errors"
	"fmt"
	"strings"
)

type User struct {
	ID                 string   `json:"id" yaml:"id"`
	Username           string   `json:"username" yaml:"username"`
	DietaryPreferences []string `json:"dietaryPreferences" yaml:"dietaryPreferences"`
}

type IngredientCategory string

const (
	CategoryProduce    IngredientCategory = "Produce"
	CategoryMeat       IngredientCategory = "Meat"
	CategoryDairy      IngredientCategory = "Dairy"
	CategoryGrains     IngredientCategory = "Grains"
	CategorySeasonings IngredientCategory = "Seasonings"
	CategoryOther      IngredientCategory = "Other"
)

// IngredientCategories lists every category in display order.
var IngredientCategories = []IngredientCategory{
	CategoryProduce,
	CategoryMeat,
	CategoryDairy,
	CategoryGrains,
	CategorySeasonings,
	CategoryOther,
}

func (c IngredientCategory) Valid() bool {
	for _, known := range IngredientCategories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseIngredientCategory(s string) (IngredientCategory, error) {
	c := IngredientCategory(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
	MealDessert   MealType = "Dessert"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack, MealDessert}

func (m MealType) Valid() bool {
	for _, known := range MealTypes {
		if m == known {
			return true
		}
	}
	return false
}

func ParseMealType(s string) (MealType, error) {
	m := MealType(s)
	if !m.Valid() {
		return "", ErrInvalidMealType
	}
	return m, nil
}

// Ingredient is a pantry entry.
type Ingredient struct {
	ID       string             `json:"id" yaml:"id"`
	Name     string             `json:"name" yaml:"name"`
	Category IngredientCategory `json:"category" yaml:"category"`
	Quantity string             `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string             `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// NewIngredient carries the caller-supplied fields of an Ingredient or
// ShoppingListItem; the store assigns the id.
type NewIngredient struct {
	Name     string             `json:"name" form:"name"`
	Category IngredientCategory `json:"category" form:"category"`
	Quantity string             `json:"quantity" form:"quantity"`
	Unit     string             `json:"unit" form:"unit"`
}

func (n NewIngredient) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return Invalid("name", "Ingredient name is required")
	}
	if len(n.Name) > 200 {
		return Invalid("name", "Ingredient name must be less than 200 characters")
	}
	if !n.Category.Valid() {
		return Invalid("category", "Invalid category")
	}
	return nil
}

// IngredientUpdate lists the updatable fields of an Ingredient. Nil fields
// are left untouched.
type IngredientUpdate struct {
	Name     *string             `json:"name"`
	Category *IngredientCategory `json:"category"`
	Quantity *string             `json:"quantity"`
	Unit     *string             `json:"unit"`
}

func (u IngredientUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return Invalid("name", "Ingredient name is required")
	}
	if u.Category != nil && !u.Category.Valid() {
		return Invalid("category", "Invalid category")
	}
	return nil
}

func (u IngredientUpdate) Apply(ing *Ingredient) {
	if u.Name != nil {
		ing.Name = *u.Name
	}
	if u.Category != nil {
		ing.Category = *u.Category
	}
	if u.Quantity != nil {
		ing.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		ing.Unit = *u.Unit
	}
}

type RecipeIngredient struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Quantity    string   `json:"quantity" yaml:"quantity"`
	Unit        string   `json:"unit" yaml:"unit"`
	Optional    bool     `json:"optional" yaml:"optional"`
	Substitutes []string `json:"substitutes,omitempty" yaml:"substitutes,omitempty"`
}

type Recipe struct {
	ID          string             `json:"id" yaml:"id"`
	Title       string             `json:"title" yaml:"title"`
	Author      string             `json:"author" yaml:"author"`
	Description string             `json:"description" yaml:"description"`
	ImageURL    string             `json:"imageUrl" yaml:"imageUrl"`
	Ingredients []RecipeIngredient `json:"ingredients" yaml:"ingredients"`
	Steps       []string           `json:"steps" yaml:"steps"`
	DietaryTags []string           `json:"dietaryTags" yaml:"dietaryTags"`
	MealType    []MealType         `json:"mealType" yaml:"mealType"`
	PrepTime    int                `json:"prepTime" yaml:"prepTime"`
	CookTime    int                `json:"cookTime" yaml:"cookTime"`
	Servings    int                `json:"servings" yaml:"servings"`
}

// TotalTime is prep plus cook time in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

type NewRecipe struct {
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	Description string             `json:"description"`
	ImageURL    string             `json:"imageUrl"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []string           `json:"steps"`
	DietaryTags []string           `json:"dietaryTags"`
	MealType    []MealType         `json:"mealType"`
	PrepTime    int                `json:"prepTime"`
	CookTime    int                `json:"cookTime"`
	Servings    int                `json:"servings"`
}

func (n NewRecipe) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return Invalid("title", "Recipe title is required")
	}
	for i, ing := range n.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return Invalid(fmt.Sprintf("ingredients[%d].name", i), "Ingredient name is required")
		}
	}
	if err := validateMealTypes(n.MealType); err != nil {
		return err
	}
	if n.PrepTime < 0 || n.CookTime < 0 {
		return Invalid("prepTime", "Times must not be negative")
	}
	if n.Servings < 0 {
		return Invalid("servings", "Servings must not be negative")
	}
	return nil
}

// RecipeUpdate lists the updatable fields of an authored Recipe.
type RecipeUpdate struct {
	Title       *string             `json:"title"`
	Author      *string             `json:"author"`
	Description *string             `json:"description"`
	ImageURL    *string             `json:"imageUrl"`
	Ingredients *[]RecipeIngredient `json:"ingredients"`
	Steps       *[]string           `json:"steps"`
	DietaryTags *[]string           `json:"dietaryTags"`
	MealType    *[]MealType         `json:"mealType"`
	PrepTime    *int                `json:"prepTime"`
	CookTime    *int                `json:"cookTime"`
	Servings    *int                `json:"servings"`
}

func (u RecipeUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return Invalid("title", "Recipe title is required")
	}
	if u.MealType != nil {
		if err := validateMealTypes(*u.MealType); err != nil {
			return err
		}
	}
	return nil
}

func (u RecipeUpdate) Apply(r *Recipe) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Author != nil {
		r.Author = *u.Author
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.ImageURL != nil {
		r.ImageURL = *u.ImageURL
	}
	if u.Ingredients != nil {
		r.Ingredients = *u.Ingredients
	}
	if u.Steps != nil {
		r.Steps = *u.Steps
	}
	if u.DietaryTags != nil {
		r.DietaryTags = *u.DietaryTags
	}
	if u.MealType != nil {
		r.MealType = *u.MealType
	}
	if u.PrepTime != nil {
		r.PrepTime = *u.PrepTime
	}
	if u.CookTime != nil {
		r.CookTime = *u.CookTime
	}
	if u.Servings != nil {
		r.Servings = *u.Servings
	}
}

type ShoppingListItem struct {
	ID       string             `json:"id" yaml:"id"`
	Name     string             `json:"name" yaml:"name"`
	Category IngredientCategory `json:"category" yaml:"category"`
	Quantity string             `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string             `json:"unit,omitempty" yaml:"unit,omitempty"`
	Checked  bool               `json:"checked" yaml:"checked"`
}

type ShoppingItemUpdate struct {
	IngredientUpdate
	Checked *bool `json:"checked"`
}

func (u ShoppingItemUpdate) Apply(item *ShoppingListItem) {
	ing := Ingredient{Name: item.Name, Category: item.Category, Quantity: item.Quantity, Unit: item.Unit}
	u.IngredientUpdate.Apply(&ing)
	item.Name, item.Category, item.Quantity, item.Unit = ing.Name, ing.Category, ing.Quantity, ing.Unit
	if u.Checked != nil {
		item.Checked = *u.Checked
	}
}

type Meal struct {
	Type     MealType `json:"type" yaml:"type"`
	RecipeID string   `json:"recipeId" yaml:"recipeId"`
}

type MealPlan struct {
	ID    string `json:"id" yaml:"id"`
	Date  Date   `json:"date" yaml:"date"`
	Meals []Meal `json:"meals" yaml:"meals"`
}

// Meal returns the entry for the given slot type.
func (p MealPlan) Meal(t MealType) (Meal, bool) {
	for _, m := range p.Meals {
		if m.Type == t {
			return m, true
		}
	}
	return Meal{}, false
}

var (
	ErrInvalidCategory = errors.New("invalid ingredient category")
	ErrInvalidMealType = errors.New("invalid meal type")
)

// ValidationError reports a rejected input field. The mutation it guards
// never happens.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is, or wraps, a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrInvalidMealType)
}

func validateMealTypes(types []MealType) error {
	for _, t := range types {
		if !t.Valid() {
			return Invalid("mealType", fmt.Sprintf("Unknown meal type %q", t))
		}
	}
	return nil
}
