// Package kitchen composes the identity provider and the per-user stores
// into one serialized unit of work. Every user action takes the kitchen
// lock, runs one store transition and then dispatches the notices that
// transition earned. The stores themselves never notify.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"kitchensync/internal/logger"
	"kitchensync/internal/mealplan"
	"kitchensync/internal/models"
	"kitchensync/internal/notify"
	"kitchensync/internal/pantry"
	"kitchensync/internal/recipe"
	"kitchensync/internal/session"
	"kitchensync/internal/shopping"
	"kitchensync/internal/storage"
)

// ErrNotAuthenticated is returned by every action that needs a signed-in
// user when there is none.
var ErrNotAuthenticated = session.ErrNotAuthenticated

// State is the signed-in user's stores. It is only valid inside View.
type State struct {
	Session   session.Session
	User      models.User
	Pantry    *pantry.Store
	Recipes   *recipe.Catalog
	Shopping  *shopping.Store
	MealPlans *mealplan.Store
}

type Kitchen struct {
	identity *session.Provider
	backend  storage.Backend
	builtin  []models.Recipe
	notifier notify.Notifier
	now      func() time.Time

	mu    sync.Mutex
	state *State
}

type Option func(*Kitchen)

// WithNotifier sets the notifier every notice reaches. Defaults to the log.
func WithNotifier(n notify.Notifier) Option {
	return func(k *Kitchen) { k.notifier = n }
}

// WithClock overrides time.Now, used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(k *Kitchen) { k.now = now }
}

func New(identity *session.Provider, backend storage.Backend, builtin []models.Recipe, opts ...Option) *Kitchen {
	k := &Kitchen{
		identity: identity,
		backend:  backend,
		builtin:  builtin,
		notifier: notify.Log{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Kitchen) Identity() *session.Provider { return k.identity }

// Today is the current calendar day.
func (k *Kitchen) Today() models.Date { return models.DateOf(k.now()) }

// View runs fn against the signed-in user's stores while holding the
// kitchen lock. fn must not keep references to the stores.
func (k *Kitchen) View(fn func(*State) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	st, err := k.current()
	if err != nil {
		return err
	}
	return fn(st)
}

// current hydrates the stores for whoever is signed in now. The caller
// holds k.mu.
func (k *Kitchen) current() (*State, error) {
	user := k.identity.Current()
	if user == nil {
		k.state = nil
		return nil, ErrNotAuthenticated
	}
	if k.state != nil && k.state.Session.UserID == user.ID {
		k.state.User = *user
		return k.state, nil
	}

	sess := session.Session{UserID: user.ID}
	p, err := pantry.New(sess, k.backend)
	if err != nil {
		return nil, err
	}
	c, err := recipe.New(sess, k.backend, k.builtin)
	if err != nil {
		return nil, err
	}
	sl, err := shopping.New(sess, k.backend)
	if err != nil {
		return nil, err
	}
	mp, err := mealplan.New(sess, k.backend)
	if err != nil {
		return nil, err
	}

	k.state = &State{
		Session:   sess,
		User:      *user,
		Pantry:    p,
		Recipes:   c,
		Shopping:  sl,
		MealPlans: mp,
	}
	logger.GetLogger().With("user_id", user.ID).Debug("Hydrated user state",
		"pantry", p.Len(), "recipes", len(c.Authored()), "shopping", sl.Len(), "plans", len(mp.Plans()))
	return k.state, nil
}

// act runs one user action under the lock. A validation or persistence
// error is reported as a destructive notice.
func (k *Kitchen) act(ctx context.Context, fn func(*State) (*notify.Notice, error)) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	st, err := k.current()
	if err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			k.fail(ctx, err)
		}
		return err
	}

	notice, err := fn(st)
	if err != nil {
		k.fail(ctx, err)
		return err
	}
	if notice != nil {
		k.dispatch(ctx, *notice)
	}
	return nil
}

func (k *Kitchen) dispatch(ctx context.Context, n notify.Notice) {
	k.notifier.Notify(n)
	notify.FromContext(ctx).Notify(n)
}

func (k *Kitchen) fail(ctx context.Context, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		k.dispatch(ctx, notify.Failure("Error", ve.Message))
	case models.IsValidation(err):
		k.dispatch(ctx, notify.Failure("Error", err.Error()))
	default:
		logger.Error("Failed to save changes", "error", err)
		k.dispatch(ctx, notify.Failure("Could not save changes", "Your changes are kept for this session but were not saved."))
	}
}

func info(title, description string) *notify.Notice {
	n := notify.Info(title, description)
	return &n
}

// Login signs a user in. The simulated delay runs without the kitchen
// lock, so reads keep being served while it is pending.
func (k *Kitchen) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := k.identity.Login(username, password)
	if err != nil {
		k.authFailed(ctx, "Login failed", err)
		return nil, err
	}

	k.dispatch(ctx, notify.Info("Success!", "You've successfully logged in."))
	return user, nil
}

func (k *Kitchen) Signup(ctx context.Context, username, password, confirm string) (*models.User, error) {
	user, err := k.identity.Signup(username, password, confirm)
	if err != nil {
		k.authFailed(ctx, "Signup failed", err)
		return nil, err
	}

	k.dispatch(ctx, notify.Info("Account created!", "Your account has been successfully created."))
	return user, nil
}

func (k *Kitchen) authFailed(ctx context.Context, title string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		k.dispatch(ctx, notify.Failure(title, ve.Message))
	case errors.Is(err, session.ErrInvalidCredentials):
		k.dispatch(ctx, notify.Failure(title, "Please check your credentials and try again."))
	default:
		logger.Error("Authentication failed", "error", err)
		k.dispatch(ctx, notify.Failure(title, "An error occurred. Please try again."))
	}
}

func (k *Kitchen) Logout(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.identity.Logout(); err != nil {
		return err
	}
	k.state = nil
	k.dispatch(ctx, notify.Info("Logged out", "You've been successfully logged out."))
	return nil
}

func (k *Kitchen) UpdatePreferences(ctx context.Context, prefs []string) (*models.User, error) {
	var user *models.User
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		u, err := k.identity.UpdatePreferences(prefs)
		if err != nil {
			return nil, err
		}
		user = u
		st.User = *u
		return info("Profile Updated", "Your dietary preferences have been saved."), nil
	})
	return user, err
}

// Pantry

func (k *Kitchen) AddIngredient(ctx context.Context, n models.NewIngredient) (models.Ingredient, error) {
	var ing models.Ingredient
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if ing, err = st.Pantry.Add(n); err != nil {
			return nil, err
		}
		return info("Added to Pantry", fmt.Sprintf("%s has been added to your pantry.", ing.Name)), nil
	})
	return ing, err
}

func (k *Kitchen) RemoveIngredient(ctx context.Context, id string) (bool, error) {
	var found bool
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if found, err = st.Pantry.Remove(id); err != nil || !found {
			return nil, err
		}
		return info("Removed from Pantry", "The ingredient has been removed from your pantry."), nil
	})
	return found, err
}

func (k *Kitchen) UpdateIngredient(ctx context.Context, id string, u models.IngredientUpdate) (models.Ingredient, bool, error) {
	var (
		ing   models.Ingredient
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if ing, found, err = st.Pantry.Update(id, u); err != nil || !found {
			return nil, err
		}
		return info("Updated Pantry Item", "The ingredient has been updated in your pantry."), nil
	})
	return ing, found, err
}

func (k *Kitchen) ClearPantry(ctx context.Context) error {
	return k.act(ctx, func(st *State) (*notify.Notice, error) {
		if err := st.Pantry.Clear(); err != nil {
			return nil, err
		}
		return info("Pantry Cleared", "All ingredients have been removed from your pantry."), nil
	})
}

func (k *Kitchen) ImportPantry(ctx context.Context, r io.Reader) (int, error) {
	var n int
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if n, err = st.Pantry.ImportCSV(r); err != nil {
			return nil, err
		}
		return info("Pantry Imported", fmt.Sprintf("%d ingredient%s added to your pantry.", n, plural(n))), nil
	})
	return n, err
}

func (k *Kitchen) ExportPantry(w io.Writer) error {
	return k.View(func(st *State) error {
		return st.Pantry.ExportCSV(w)
	})
}

// Recipes

func (k *Kitchen) AddRecipe(ctx context.Context, n models.NewRecipe) (models.Recipe, error) {
	var r models.Recipe
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		if n.Author == "" {
			n.Author = st.User.Username
		}
		var err error
		if r, err = st.Recipes.Add(n); err != nil {
			return nil, err
		}
		return info("Recipe Added", fmt.Sprintf("%q has been added to your recipes.", r.Title)), nil
	})
	return r, err
}

func (k *Kitchen) UpdateRecipe(ctx context.Context, id string, u models.RecipeUpdate) (models.Recipe, bool, error) {
	var (
		r     models.Recipe
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if r, found, err = st.Recipes.Update(id, u); err != nil || !found {
			return nil, err
		}
		return info("Recipe Updated", "Your recipe has been updated successfully."), nil
	})
	return r, found, err
}

func (k *Kitchen) RemoveRecipe(ctx context.Context, id string) (bool, error) {
	var found bool
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if found, err = st.Recipes.Remove(id); err != nil || !found {
			return nil, err
		}
		return info("Recipe Deleted", "The recipe has been deleted from your collection."), nil
	})
	return found, err
}

// AddMissingToShoppingList puts every required ingredient of the recipe
// that the pantry lacks on the shopping list.
func (k *Kitchen) AddMissingToShoppingList(ctx context.Context, recipeID string) ([]models.ShoppingListItem, bool, error) {
	var (
		added []models.ShoppingListItem
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		if _, found = st.Recipes.Lookup(recipeID); !found {
			return nil, nil
		}
		missing := st.Recipes.MissingIngredients(st.Pantry, recipeID)
		var err error
		if added, err = st.Shopping.AddMissing(missing); err != nil {
			return nil, err
		}
		n := len(added)
		return info("Added to Shopping List", fmt.Sprintf("%d missing ingredient%s added to your shopping list.", n, plural(n))), nil
	})
	return added, found, err
}

// PlanRecipe assigns the recipe to a meal slot. A zero date means today.
func (k *Kitchen) PlanRecipe(ctx context.Context, recipeID string, date models.Date, mealType models.MealType) (models.MealPlan, bool, error) {
	if date.IsZero() {
		date = k.Today()
	}
	return k.AssignMeal(ctx, date, mealType, recipeID)
}

// Shopping list

func (k *Kitchen) AddShoppingItem(ctx context.Context, n models.NewIngredient) (models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if item, err = st.Shopping.Add(n); err != nil {
			return nil, err
		}
		return info("Added to Shopping List", fmt.Sprintf("%s has been added to your shopping list.", item.Name)), nil
	})
	return item, err
}

// ToggleShoppingItem raises no notice; checking items off is silent.
func (k *Kitchen) ToggleShoppingItem(ctx context.Context, id string) (models.ShoppingListItem, bool, error) {
	var (
		item  models.ShoppingListItem
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		item, found, err = st.Shopping.Toggle(id)
		return nil, err
	})
	return item, found, err
}

func (k *Kitchen) UpdateShoppingItem(ctx context.Context, id string, u models.ShoppingItemUpdate) (models.ShoppingListItem, bool, error) {
	var (
		item  models.ShoppingListItem
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		item, found, err = st.Shopping.Update(id, u)
		return nil, err
	})
	return item, found, err
}

func (k *Kitchen) RemoveShoppingItem(ctx context.Context, id string) (bool, error) {
	var found bool
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if found, err = st.Shopping.Remove(id); err != nil || !found {
			return nil, err
		}
		return info("Removed from Shopping List", "The item has been removed from your shopping list."), nil
	})
	return found, err
}

func (k *Kitchen) ClearShoppingList(ctx context.Context) error {
	return k.act(ctx, func(st *State) (*notify.Notice, error) {
		if err := st.Shopping.ClearAll(); err != nil {
			return nil, err
		}
		return info("Shopping List Cleared", "All items have been removed from your shopping list."), nil
	})
}

func (k *Kitchen) ClearCheckedItems(ctx context.Context) (int, error) {
	var n int
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if n, err = st.Shopping.ClearChecked(); err != nil {
			return nil, err
		}
		return info("Checked Items Cleared", "All checked items have been removed from your shopping list."), nil
	})
	return n, err
}

// Meal plans

// AssignMeal reports found=false when recipeID names no recipe.
func (k *Kitchen) AssignMeal(ctx context.Context, date models.Date, mealType models.MealType, recipeID string) (models.MealPlan, bool, error) {
	var (
		plan  models.MealPlan
		found bool
	)
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		if _, found = st.Recipes.Lookup(recipeID); !found {
			return nil, nil
		}
		var err error
		if plan, err = st.MealPlans.Assign(date, mealType, recipeID); err != nil {
			return nil, err
		}
		return info("Meal Added", fmt.Sprintf("The meal has been added to your plan for %s.", date)), nil
	})
	return plan, found, err
}

func (k *Kitchen) UnassignMeal(ctx context.Context, planID string, mealType models.MealType) (bool, error) {
	var found bool
	err := k.act(ctx, func(st *State) (*notify.Notice, error) {
		var err error
		if found, err = st.MealPlans.Unassign(planID, mealType); err != nil || !found {
			return nil, err
		}
		return info("Meal Removed", "The meal has been removed from your plan."), nil
	})
	return found, err
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
