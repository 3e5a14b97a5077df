package kitchen

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchensync/internal/models"
	"kitchensync/internal/notify"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

var testBuiltin = []models.Recipe{
	{
		ID:    "pancakes",
		Title: "Pancakes",
		Ingredients: []models.RecipeIngredient{
			{ID: "1", Name: "Egg", Quantity: "2", Unit: "pcs"},
			{ID: "2", Name: "Milk", Quantity: "300", Unit: "ml"},
			{ID: "3", Name: "Flour", Quantity: "200", Unit: "g"},
			{ID: "4", Name: "Syrup", Optional: true},
		},
		MealType: []models.MealType{models.MealBreakfast},
	},
}

type harness struct {
	kitchen  *Kitchen
	backend  storage.Backend
	notices  *notify.Recorder
	identity *session.Provider
}

func newHarness(t *testing.T, backend storage.Backend) *harness {
	t.Helper()

	identity, err := session.NewProvider(backend, session.WithSleep(func(time.Duration) {}))
	require.NoError(t, err)

	notices := &notify.Recorder{}
	k := New(identity, backend, testBuiltin,
		WithNotifier(notices),
		WithClock(func() time.Time { return time.Date(2024, time.June, 12, 19, 0, 0, 0, time.UTC) }),
	)
	return &harness{kitchen: k, backend: backend, notices: notices, identity: identity}
}

func (h *harness) login(t *testing.T, username string) {
	t.Helper()
	_, err := h.kitchen.Login(context.Background(), username, "secret")
	require.NoError(t, err)
	h.notices.Drain()
}

func TestActionsRequireLogin(t *testing.T) {
	h := newHarness(t, storage.NewMemory())

	_, err := h.kitchen.AddIngredient(context.Background(), models.NewIngredient{Name: "Egg", Category: models.CategoryDairy})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	err = h.kitchen.View(func(*State) error { return nil })
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, h.notices.Drain())
}

func TestNoticesReachContextAndNotifier(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")

	var request notify.Recorder
	ctx := notify.WithNotifier(context.Background(), &request)

	_, err := h.kitchen.AddIngredient(ctx, models.NewIngredient{Name: "Egg", Category: models.CategoryDairy})
	require.NoError(t, err)

	want := notify.Info("Added to Pantry", "Egg has been added to your pantry.")
	assert.Equal(t, []notify.Notice{want}, request.Drain())
	assert.Equal(t, []notify.Notice{want}, h.notices.Drain())
}

func TestValidationFailureNotifies(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")

	_, err := h.kitchen.AddIngredient(context.Background(), models.NewIngredient{Name: "", Category: models.CategoryDairy})
	require.Error(t, err)

	got := h.notices.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.VariantDestructive, got[0].Variant)
	assert.Equal(t, "Ingredient name is required", got[0].Description)
}

func TestMissingLookupIsSilent(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")

	found, err := h.kitchen.RemoveIngredient(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, h.notices.Drain())
}

func TestAddMissingToShoppingList(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")
	ctx := context.Background()

	for _, name := range []string{"egg", "MILK"} {
		_, err := h.kitchen.AddIngredient(ctx, models.NewIngredient{Name: name, Category: models.CategoryDairy})
		require.NoError(t, err)
	}
	h.notices.Drain()

	added, found, err := h.kitchen.AddMissingToShoppingList(ctx, "pancakes")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, added, 1)
	assert.Equal(t, "Flour", added[0].Name)
	assert.Equal(t, models.CategoryOther, added[0].Category)
	assert.Equal(t, "200", added[0].Quantity)

	got := h.notices.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "1 missing ingredient added to your shopping list.", got[0].Description)

	_, found, err = h.kitchen.AddMissingToShoppingList(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlanRecipeDefaultsToToday(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")

	plan, found, err := h.kitchen.PlanRecipe(context.Background(), "pancakes", models.Date{}, models.MealBreakfast)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-06-12", plan.Date.String())

	_, found, err = h.kitchen.PlanRecipe(context.Background(), "unknown", models.Date{}, models.MealBreakfast)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStateFollowsIdentity(t *testing.T) {
	backend := storage.NewMemory()
	h := newHarness(t, backend)
	ctx := context.Background()

	h.login(t, "alice")
	_, err := h.kitchen.AddIngredient(ctx, models.NewIngredient{Name: "Egg", Category: models.CategoryDairy})
	require.NoError(t, err)

	require.NoError(t, h.kitchen.Logout(ctx))
	h.login(t, "bob")

	err = h.kitchen.View(func(st *State) error {
		assert.Equal(t, "bob", st.User.Username)
		assert.Equal(t, 0, st.Pantry.Len())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, h.kitchen.Logout(ctx))
	h.login(t, "alice")

	err = h.kitchen.View(func(st *State) error {
		assert.True(t, st.Pantry.Has("egg"))
		return nil
	})
	require.NoError(t, err)

	restarted := newHarness(t, backend)
	err = restarted.kitchen.View(func(st *State) error {
		assert.Equal(t, "alice", st.User.Username)
		assert.True(t, st.Pantry.Has("Egg"))
		return nil
	})
	require.NoError(t, err)
}

func TestLoginFailureNotifies(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	ctx := context.Background()

	_, err := h.kitchen.Signup(ctx, "alice", "secret", "other")
	assert.ErrorIs(t, err, session.ErrPasswordMismatch)

	got := h.notices.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.Failure("Signup failed", "Passwords don't match"), got[0])

	_, err = h.kitchen.Signup(ctx, "alice", "secret", "secret")
	require.NoError(t, err)
	require.NoError(t, h.kitchen.Logout(ctx))
	h.notices.Drain()

	_, err = h.kitchen.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	got = h.notices.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Login failed", got[0].Title)
}

type flakyBackend struct {
	*storage.Memory
	fail bool
}

func (b *flakyBackend) Save(kind storage.Kind, owner string, data []byte) error {
	if b.fail {
		return errors.New("quota exceeded")
	}
	return b.Memory.Save(kind, owner, data)
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	backend := &flakyBackend{Memory: storage.NewMemory()}
	h := newHarness(t, backend)
	h.login(t, "alice")

	backend.fail = true
	_, err := h.kitchen.AddShoppingItem(context.Background(), models.NewIngredient{Name: "Apples", Category: models.CategoryProduce})
	require.Error(t, err)
	assert.False(t, models.IsValidation(err))

	got := h.notices.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Could not save changes", got[0].Title)

	err = h.kitchen.View(func(st *State) error {
		assert.Equal(t, 1, st.Shopping.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestPantryExportImport(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")
	ctx := context.Background()

	_, err := h.kitchen.AddIngredient(ctx, models.NewIngredient{Name: "Egg", Category: models.CategoryDairy, Quantity: "6"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.kitchen.ExportPantry(&buf))

	n, err := h.kitchen.ImportPantry(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = h.kitchen.View(func(st *State) error {
		assert.Equal(t, 2, st.Pantry.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestUpdatePreferences(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	h.login(t, "alice")

	user, err := h.kitchen.UpdatePreferences(context.Background(), []string{"vegan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan"}, user.DietaryPreferences)

	err = h.kitchen.View(func(st *State) error {
		assert.Equal(t, []string{"vegan"}, st.User.DietaryPreferences)
		return nil
	})
	require.NoError(t, err)
}
