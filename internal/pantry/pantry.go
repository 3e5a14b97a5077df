// Package pantry holds the ingredients a user owns. Store.Has is the only
// authority the rest of the system uses to decide whether an ingredient is
// available.
package pantry

import (
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"kitchensync/internal/models"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

// Store is one user's pantry. It is not safe for concurrent use.
type Store struct {
	sess    session.Session
	backend storage.Backend
	items   []models.Ingredient
}

// New loads the pantry persisted for sess.
func New(sess session.Session, backend storage.Backend) (*Store, error) {
	s := &Store{sess: sess, backend: backend, items: []models.Ingredient{}}
	if _, err := storage.LoadJSON(backend, storage.KindPantry, sess.UserID, &s.items); err != nil {
		return nil, err
	}
	if s.items == nil {
		s.items = []models.Ingredient{}
	}
	return s, nil
}

// Add stores a new ingredient. Entries with the same name are not merged.
// The returned error is either a validation failure, in which case nothing
// changed, or a persistence failure, in which case the ingredient is kept
// in memory.
func (s *Store) Add(n models.NewIngredient) (models.Ingredient, error) {
	if err := n.Validate(); err != nil {
		return models.Ingredient{}, err
	}

	ing := models.Ingredient{
		ID:       uuid.NewString(),
		Name:     n.Name,
		Category: n.Category,
		Quantity: n.Quantity,
		Unit:     n.Unit,
	}
	s.items = append(s.items, ing)
	return ing, s.persist()
}

// Remove deletes the ingredient with the given id and reports whether it
// existed.
func (s *Store) Remove(id string) (bool, error) {
	for i, ing := range s.items {
		if ing.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true, s.persist()
		}
	}
	return false, nil
}

// Update merges the non-nil fields of u into the ingredient with the given
// id.
func (s *Store) Update(id string, u models.IngredientUpdate) (models.Ingredient, bool, error) {
	if err := u.Validate(); err != nil {
		return models.Ingredient{}, false, err
	}

	for i := range s.items {
		if s.items[i].ID == id {
			u.Apply(&s.items[i])
			return s.items[i], true, s.persist()
		}
	}
	return models.Ingredient{}, false, nil
}

func (s *Store) Clear() error {
	s.items = []models.Ingredient{}
	return s.persist()
}

// Has reports whether an ingredient called name is in the pantry. Names are
// compared whole after case folding; no trimming or plural handling.
func (s *Store) Has(name string) bool {
	fold := cases.Fold()
	target := fold.String(name)
	for _, ing := range s.items {
		if fold.String(ing.Name) == target {
			return true
		}
	}
	return false
}

func (s *Store) ByCategory(c models.IngredientCategory) []models.Ingredient {
	out := make([]models.Ingredient, 0)
	for _, ing := range s.items {
		if ing.Category == c {
			out = append(out, ing)
		}
	}
	return out
}

// CountByCategory returns the number of entries per category. Every known
// category is present in the result.
func (s *Store) CountByCategory() map[models.IngredientCategory]int {
	counts := make(map[models.IngredientCategory]int, len(models.IngredientCategories))
	for _, c := range models.IngredientCategories {
		counts[c] = 0
	}
	for _, ing := range s.items {
		counts[ing.Category]++
	}
	return counts
}

// Items returns a copy of the pantry in insertion order.
func (s *Store) Items() []models.Ingredient {
	out := make([]models.Ingredient, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) persist() error {
	return storage.SaveJSON(s.backend, storage.KindPantry, s.sess.UserID, s.items)
}
