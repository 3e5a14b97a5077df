// Package mealplan assigns recipes to (date, meal type) slots.
//
// A date holds at most one plan, and a plan holds at most one meal per type.
// Assigning an occupied slot replaces its recipe. A plan whose last meal is
// removed is deleted.
package mealplan

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"kitchensync/internal/models"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

// Store is one user's meal plans. It is not safe for concurrent use.
type Store struct {
	sess    session.Session
	backend storage.Backend
	plans   []models.MealPlan
}

func New(sess session.Session, backend storage.Backend) (*Store, error) {
	s := &Store{sess: sess, backend: backend, plans: []models.MealPlan{}}
	if _, err := storage.LoadJSON(backend, storage.KindMealPlans, sess.UserID, &s.plans); err != nil {
		return nil, err
	}
	if s.plans == nil {
		s.plans = []models.MealPlan{}
	}
	return s, nil
}

// Assign puts recipeID in the mealType slot of date, replacing whatever was
// there.
func (s *Store) Assign(date models.Date, mealType models.MealType, recipeID string) (models.MealPlan, error) {
	if !mealType.Valid() {
		return models.MealPlan{}, models.ErrInvalidMealType
	}
	if recipeID == "" {
		return models.MealPlan{}, models.Invalid("recipeId", "Recipe is required")
	}
	if date.IsZero() {
		return models.MealPlan{}, models.Invalid("date", "Date is required")
	}

	i := s.indexByDate(date)
	if i < 0 {
		s.plans = append(s.plans, models.MealPlan{
			ID:    uuid.NewString(),
			Date:  date,
			Meals: []models.Meal{},
		})
		i = len(s.plans) - 1
	}

	plan := &s.plans[i]
	meals := make([]models.Meal, 0, len(plan.Meals)+1)
	for _, m := range plan.Meals {
		if m.Type != mealType {
			meals = append(meals, m)
		}
	}
	plan.Meals = append(meals, models.Meal{Type: mealType, RecipeID: recipeID})

	return clonePlan(*plan), s.persist()
}

// Unassign empties the mealType slot of a plan. The plan itself is deleted
// once it has no meals left.
func (s *Store) Unassign(planID string, mealType models.MealType) (bool, error) {
	i := s.indexByID(planID)
	if i < 0 {
		return false, nil
	}

	plan := &s.plans[i]
	meals := make([]models.Meal, 0, len(plan.Meals))
	for _, m := range plan.Meals {
		if m.Type != mealType {
			meals = append(meals, m)
		}
	}
	if len(meals) == len(plan.Meals) {
		return false, nil
	}

	if len(meals) == 0 {
		s.plans = append(s.plans[:i:i], s.plans[i+1:]...)
	} else {
		plan.Meals = meals
	}
	return true, s.persist()
}

// Delete removes a whole plan.
func (s *Store) Delete(planID string) (bool, error) {
	i := s.indexByID(planID)
	if i < 0 {
		return false, nil
	}
	s.plans = append(s.plans[:i:i], s.plans[i+1:]...)
	return true, s.persist()
}

func (s *Store) ByDate(date models.Date) (models.MealPlan, bool) {
	i := s.indexByDate(date)
	if i < 0 {
		return models.MealPlan{}, false
	}
	return clonePlan(s.plans[i]), true
}

// ByWeek returns the plans dated start through start+6 days, in date order.
func (s *Store) ByWeek(start models.Date) []models.MealPlan {
	end := start.AddDays(6)

	out := make([]models.MealPlan, 0)
	for _, p := range s.plans {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, clonePlan(p))
	}

	slices.SortStableFunc(out, func(a, b models.MealPlan) int {
		return a.Date.Time().Compare(b.Date.Time())
	})
	return out
}

func (s *Store) Plans() []models.MealPlan {
	out := make([]models.MealPlan, len(s.plans))
	for i, p := range s.plans {
		out[i] = clonePlan(p)
	}
	return out
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) models.Date {
	return models.WeekStart(models.DateOf(t))
}

func (s *Store) indexByDate(date models.Date) int {
	for i, p := range s.plans {
		if p.Date.Equal(date) {
			return i
		}
	}
	return -1
}

func (s *Store) indexByID(id string) int {
	for i, p := range s.plans {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist() error {
	return storage.SaveJSON(s.backend, storage.KindMealPlans, s.sess.UserID, s.plans)
}

func clonePlan(p models.MealPlan) models.MealPlan {
	p.Meals = append([]models.Meal{}, p.Meals...)
	return p
}
