// Package recipe is the recipe catalog: a fixed built-in pool shared by
// every user plus the signed-in user's authored recipes.
package recipe

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"kitchensync/internal/matching"
	"kitchensync/internal/models"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

//go:embed builtin_recipes.yaml
var builtinYAML []byte

// Builtin parses the recipes shipped with the binary.
func Builtin() ([]models.Recipe, error) {
	return ParseBuiltin(builtinYAML)
}

// ParseBuiltin decodes a YAML list of recipes and checks that every id is
// present and unique.
func ParseBuiltin(data []byte) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := yaml.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to parse built-in recipes: %w", err)
	}

	seen := make(map[string]bool, len(recipes))
	for i, r := range recipes {
		if r.ID == "" {
			return nil, fmt.Errorf("built-in recipe %d has no id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate built-in recipe id %q", r.ID)
		}
		seen[r.ID] = true

		for _, t := range r.MealType {
			if !t.Valid() {
				return nil, fmt.Errorf("built-in recipe %q: %w: %q", r.ID, models.ErrInvalidMealType, t)
			}
		}
	}

	return recipes, nil
}

// Catalog resolves recipes across both pools. Only the authored pool is
// mutable. It is not safe for concurrent use.
type Catalog struct {
	sess     session.Session
	backend  storage.Backend
	builtin  []models.Recipe
	authored []models.Recipe
	genID    func() string
}

// New loads the authored recipes persisted for sess alongside builtin.
func New(sess session.Session, backend storage.Backend, builtin []models.Recipe) (*Catalog, error) {
	c := &Catalog{
		sess:     sess,
		backend:  backend,
		builtin:  builtin,
		authored: []models.Recipe{},
		genID:    uuid.NewString,
	}
	if _, err := storage.LoadJSON(backend, storage.KindRecipes, sess.UserID, &c.authored); err != nil {
		return nil, err
	}
	if c.authored == nil {
		c.authored = []models.Recipe{}
	}
	return c, nil
}

// Lookup searches the built-in pool first, then the authored pool.
func (c *Catalog) Lookup(id string) (models.Recipe, bool) {
	for _, r := range c.builtin {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range c.authored {
		if r.ID == id {
			return r, true
		}
	}
	return models.Recipe{}, false
}

// IsAuthored reports whether id names a recipe the user may edit.
func (c *Catalog) IsAuthored(id string) bool {
	if c.isBuiltin(id) {
		return false
	}
	return c.authoredIndex(id) >= 0
}

// Add appends a new authored recipe.
func (c *Catalog) Add(n models.NewRecipe) (models.Recipe, error) {
	if err := n.Validate(); err != nil {
		return models.Recipe{}, err
	}

	r := models.Recipe{
		ID:          c.newID(),
		Title:       n.Title,
		Author:      n.Author,
		Description: n.Description,
		ImageURL:    n.ImageURL,
		Ingredients: withIngredientIDs(n.Ingredients),
		Steps:       nonNil(n.Steps),
		DietaryTags: nonNil(n.DietaryTags),
		MealType:    n.MealType,
		PrepTime:    n.PrepTime,
		CookTime:    n.CookTime,
		Servings:    n.Servings,
	}
	if r.MealType == nil {
		r.MealType = []models.MealType{}
	}

	c.authored = append(c.authored, r)
	return r, c.persist()
}

// Update merges u into an authored recipe. Built-in ids are never matched.
func (c *Catalog) Update(id string, u models.RecipeUpdate) (models.Recipe, bool, error) {
	if err := u.Validate(); err != nil {
		return models.Recipe{}, false, err
	}
	if c.isBuiltin(id) {
		return models.Recipe{}, false, nil
	}

	i := c.authoredIndex(id)
	if i < 0 {
		return models.Recipe{}, false, nil
	}
	u.Apply(&c.authored[i])
	if u.Ingredients != nil {
		c.authored[i].Ingredients = withIngredientIDs(c.authored[i].Ingredients)
	}
	return c.authored[i], true, c.persist()
}

// Remove deletes an authored recipe. Built-in ids are never matched.
func (c *Catalog) Remove(id string) (bool, error) {
	if c.isBuiltin(id) {
		return false, nil
	}

	i := c.authoredIndex(id)
	if i < 0 {
		return false, nil
	}
	c.authored = append(c.authored[:i:i], c.authored[i+1:]...)
	return true, c.persist()
}

// All returns the built-in recipes followed by the authored ones.
func (c *Catalog) All() []models.Recipe {
	out := make([]models.Recipe, 0, len(c.builtin)+len(c.authored))
	out = append(out, c.builtin...)
	return append(out, c.authored...)
}

func (c *Catalog) Builtin() []models.Recipe {
	return append([]models.Recipe{}, c.builtin...)
}

func (c *Catalog) Authored() []models.Recipe {
	return append([]models.Recipe{}, c.authored...)
}

// RankByPantryMatch ranks every recipe in the catalog against p.
func (c *Catalog) RankByPantryMatch(p matching.Pantry, threshold float64) []matching.Match {
	return matching.Rank(p, c.All(), threshold)
}

// MissingIngredients is empty for unknown ids.
func (c *Catalog) MissingIngredients(p matching.Pantry, id string) []models.RecipeIngredient {
	r, ok := c.Lookup(id)
	if !ok {
		return []models.RecipeIngredient{}
	}
	return matching.MissingIngredients(p, r)
}

// Filter narrows a recipe list the way the browse page does.
type Filter struct {
	// Search matches a case-insensitive substring of the title.
	Search string
	// MealTypes keeps recipes served as any of the listed types.
	MealTypes []models.MealType
	// DietaryTags keeps recipes carrying all of the listed tags.
	DietaryTags []string
}

func (f Filter) Apply(recipes []models.Recipe) []models.Recipe {
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(f.Search))

	out := make([]models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if search != "" && !strings.Contains(fold.String(r.Title), search) {
			continue
		}
		if len(f.MealTypes) > 0 && !anyMealType(r.MealType, f.MealTypes) {
			continue
		}
		if !allTags(r.DietaryTags, f.DietaryTags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func anyMealType(have, want []models.MealType) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func allTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// newID returns a fresh id that collides with neither pool.
func (c *Catalog) newID() string {
	for {
		id := c.genID()
		if !c.isBuiltin(id) && c.authoredIndex(id) < 0 {
			return id
		}
	}
}

func (c *Catalog) isBuiltin(id string) bool {
	for _, r := range c.builtin {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (c *Catalog) authoredIndex(id string) int {
	for i, r := range c.authored {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) persist() error {
	return storage.SaveJSON(c.backend, storage.KindRecipes, c.sess.UserID, c.authored)
}

func withIngredientIDs(ings []models.RecipeIngredient) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, len(ings))
	for i, ing := range ings {
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		out[i] = ing
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
