package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "pantry-42", Key(KindPantry, "42"))
	assert.Equal(t, "meal-plans-42", Key(KindMealPlans, "42"))
	assert.Equal(t, "user", Key(KindIdentity, Global))
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	_, err := m.Load(KindPantry, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(KindPantry, "u1", []byte(`["a"]`)))
	require.NoError(t, m.Save(KindPantry, "u2", []byte(`["b"]`)))

	data, err := m.Load(KindPantry, "u1")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(data))
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Delete(KindPantry, "u1"))
	require.NoError(t, m.Delete(KindPantry, "u1"))
	_, err = m.Load(KindPantry, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadJSONMissingRecord(t *testing.T) {
	var dst []string
	found, err := LoadJSON(NewMemory(), KindShoppingList, "u1", &dst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, dst)
}

func TestSaveJSONThenLoadJSON(t *testing.T) {
	m := NewMemory()
	require.NoError(t, SaveJSON(m, KindRecipes, "u1", []string{"x", "y"}))

	var dst []string
	found, err := LoadJSON(m, KindRecipes, "u1", &dst)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"x", "y"}, dst)
}

type failingBackend struct{ err error }

func (f failingBackend) Load(Kind, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Save(Kind, string, []byte) error   { return f.err }
func (f failingBackend) Delete(Kind, string) error         { return f.err }

func TestBackendFailuresAreWrapped(t *testing.T) {
	quota := errors.New("quota exceeded")
	b := failingBackend{err: quota}

	var dst []string
	_, err := LoadJSON(b, KindPantry, "u1", &dst)
	assert.ErrorIs(t, err, quota)

	err = SaveJSON(b, KindPantry, "u1", dst)
	assert.ErrorIs(t, err, quota)
	assert.Contains(t, err.Error(), "pantry-u1")
}
