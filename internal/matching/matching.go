// Package matching computes how well a pantry covers a recipe. It holds no
// state: every function takes a pantry snapshot and recipes.
//
// Ingredient availability is decided solely by Pantry.Has. Names are compared
// whole and case-folded; "Tomato" does not satisfy "Tomatoes".
package matching

import (
	"slices"

	"kitchensync/internal/models"
)

// Pantry answers ingredient membership queries.
type Pantry interface {
	Has(name string) bool
}

// PantryFunc adapts a function to Pantry.
type PantryFunc func(name string) bool

func (f PantryFunc) Has(name string) bool { return f(name) }

// Match is a recipe with its pantry match ratio.
type Match struct {
	Recipe models.Recipe `json:"recipe"`
	Ratio  float64       `json:"matchRatio"`
}

// MatchRatio is the fraction of the recipe's ingredients found in the
// pantry. Optional ingredients count on both sides. A recipe without
// ingredients scores 0.
func MatchRatio(p Pantry, r models.Recipe) float64 {
	n := len(r.Ingredients)
	if n == 0 {
		return 0
	}
	return float64(len(AvailableIngredients(p, r))) / float64(n)
}

// MissingIngredients returns the required ingredients the pantry lacks, in
// recipe order.
func MissingIngredients(p Pantry, r models.Recipe) []models.RecipeIngredient {
	missing := make([]models.RecipeIngredient, 0)
	for _, ing := range r.Ingredients {
		if !ing.Optional && !p.Has(ing.Name) {
			missing = append(missing, ing)
		}
	}
	return missing
}

// AvailableIngredients returns the ingredients, optional or not, the pantry
// already holds, in recipe order.
func AvailableIngredients(p Pantry, r models.Recipe) []models.RecipeIngredient {
	available := make([]models.RecipeIngredient, 0)
	for _, ing := range r.Ingredients {
		if p.Has(ing.Name) {
			available = append(available, ing)
		}
	}
	return available
}

// Rank scores every recipe, keeps those with ratio >= threshold and orders
// them by descending ratio. Ties keep their input order.
func Rank(p Pantry, recipes []models.Recipe, threshold float64) []Match {
	matches := make([]Match, 0, len(recipes))
	for _, r := range recipes {
		ratio := MatchRatio(p, r)
		if ratio >= threshold {
			matches = append(matches, Match{Recipe: r, Ratio: ratio})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Ratio > b.Ratio:
			return -1
		case a.Ratio < b.Ratio:
			return 1
		default:
			return 0
		}
	})
	return matches
}
