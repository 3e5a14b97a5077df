// Package shopping keeps a user's shopping checklist.
package shopping

import (
	"github.com/google/uuid"

	"kitchensync/internal/models"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

// Store is one user's shopping list. Duplicate names are kept as separate
// rows. It is not safe for concurrent use.
type Store struct {
	sess    session.Session
	backend storage.Backend
	items   []models.ShoppingListItem
}

func New(sess session.Session, backend storage.Backend) (*Store, error) {
	s := &Store{sess: sess, backend: backend, items: []models.ShoppingListItem{}}
	if _, err := storage.LoadJSON(backend, storage.KindShoppingList, sess.UserID, &s.items); err != nil {
		return nil, err
	}
	if s.items == nil {
		s.items = []models.ShoppingListItem{}
	}
	return s, nil
}

// Add appends an unchecked item.
func (s *Store) Add(n models.NewIngredient) (models.ShoppingListItem, error) {
	if err := n.Validate(); err != nil {
		return models.ShoppingListItem{}, err
	}

	item := newItem(n)
	s.items = append(s.items, item)
	return item, s.persist()
}

// AddMissing adds one item per recipe ingredient, filed under Other with the
// recipe's quantity and unit. Nothing is added for an empty list.
func (s *Store) AddMissing(ings []models.RecipeIngredient) ([]models.ShoppingListItem, error) {
	added := make([]models.ShoppingListItem, 0, len(ings))
	for _, ing := range ings {
		added = append(added, newItem(models.NewIngredient{
			Name:     ing.Name,
			Category: models.CategoryOther,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}))
	}
	if len(added) == 0 {
		return added, nil
	}

	s.items = append(s.items, added...)
	return added, s.persist()
}

// Toggle flips the checked state of an item.
func (s *Store) Toggle(id string) (models.ShoppingListItem, bool, error) {
	i := s.index(id)
	if i < 0 {
		return models.ShoppingListItem{}, false, nil
	}
	s.items[i].Checked = !s.items[i].Checked
	return s.items[i], true, s.persist()
}

func (s *Store) Update(id string, u models.ShoppingItemUpdate) (models.ShoppingListItem, bool, error) {
	if err := u.Validate(); err != nil {
		return models.ShoppingListItem{}, false, err
	}

	i := s.index(id)
	if i < 0 {
		return models.ShoppingListItem{}, false, nil
	}
	u.Apply(&s.items[i])
	return s.items[i], true, s.persist()
}

func (s *Store) Remove(id string) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return true, s.persist()
}

func (s *Store) ClearAll() error {
	s.items = []models.ShoppingListItem{}
	return s.persist()
}

// ClearChecked drops every checked item and returns how many were removed.
func (s *Store) ClearChecked() (int, error) {
	kept := make([]models.ShoppingListItem, 0, len(s.items))
	for _, item := range s.items {
		if !item.Checked {
			kept = append(kept, item)
		}
	}

	removed := len(s.items) - len(kept)
	s.items = kept
	return removed, s.persist()
}

func (s *Store) Items() []models.ShoppingListItem {
	out := make([]models.ShoppingListItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Checked() []models.ShoppingListItem {
	return s.filter(true)
}

func (s *Store) Unchecked() []models.ShoppingListItem {
	return s.filter(false)
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) filter(checked bool) []models.ShoppingListItem {
	out := make([]models.ShoppingListItem, 0)
	for _, item := range s.items {
		if item.Checked == checked {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store) index(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist() error {
	return storage.SaveJSON(s.backend, storage.KindShoppingList, s.sess.UserID, s.items)
}

func newItem(n models.NewIngredient) models.ShoppingListItem {
	return models.ShoppingListItem{
		ID:       uuid.NewString(),
		Name:     n.Name,
		Category: n.Category,
		Quantity: n.Quantity,
		Unit:     n.Unit,
	}
}
