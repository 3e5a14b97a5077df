package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchensync/internal/models"
	"kitchensync/internal/storage"
)

func newTestProvider(t *testing.T, backend storage.Backend) (*Provider, *[]time.Duration) {
	t.Helper()

	var slept []time.Duration
	p, err := NewProvider(backend, WithDelay(50*time.Millisecond), WithSleep(func(d time.Duration) {
		slept = append(slept, d)
	}))
	require.NoError(t, err)
	return p, &slept
}

func TestLoginIssuesSession(t *testing.T) {
	p, slept := newTestProvider(t, storage.NewMemory())

	assert.False(t, p.IsAuthenticated())
	_, ok := p.Session()
	assert.False(t, ok)

	user, err := p.Login("alice", "secret")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, UserID("alice"), user.ID)
	assert.Equal(t, []string{}, user.DietaryPreferences)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, *slept)

	sess, ok := p.Session()
	require.True(t, ok)
	assert.Equal(t, user.ID, sess.UserID)
	assert.False(t, p.Loading())
}

func TestLoadingDuringDelay(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p, err := NewProvider(storage.NewMemory(), WithSleep(func(time.Duration) {
		close(started)
		<-release
	}))
	require.NoError(t, err)
	require.False(t, p.Loading())

	done := make(chan error, 1)
	go func() {
		_, err := p.Login("alice", "secret")
		done <- err
	}()

	<-started
	assert.True(t, p.Loading())
	assert.False(t, p.IsAuthenticated())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, p.Loading())
	assert.True(t, p.IsAuthenticated())
}

func TestSessionValid(t *testing.T) {
	assert.False(t, Session{}.Valid())

	p, _ := newTestProvider(t, storage.NewMemory())
	_, err := p.Login("alice", "secret")
	require.NoError(t, err)

	sess, ok := p.Session()
	require.True(t, ok)
	assert.True(t, sess.Valid())
}

func TestSignupRejectsTakenUsername(t *testing.T) {
	p, _ := newTestProvider(t, storage.NewMemory())

	_, err := p.Signup("alice", "secret", "secret")
	require.NoError(t, err)
	require.NoError(t, p.Logout())

	_, err = p.Signup("alice", "other", "other")
	require.Error(t, err)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Field)
	assert.False(t, p.IsAuthenticated())

	_, err = p.Login("alice", "other")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Login("alice", "secret")
	assert.NoError(t, err)
}

func TestUserIDIsStable(t *testing.T) {
	assert.Equal(t, UserID("alice"), UserID("alice"))
	assert.NotEqual(t, UserID("alice"), UserID("bob"))
}

func TestLoginValidation(t *testing.T) {
	p, slept := newTestProvider(t, storage.NewMemory())

	_, err := p.Login("  ", "secret")
	assert.True(t, models.IsValidation(err))

	_, err = p.Login("alice", "")
	assert.True(t, models.IsValidation(err))

	assert.Empty(t, *slept, "validation must fail before the delay")
	assert.False(t, p.IsAuthenticated())
}

func TestSignupPasswordMismatch(t *testing.T) {
	p, slept := newTestProvider(t, storage.NewMemory())

	_, err := p.Signup("alice", "secret", "secreT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPasswordMismatch))
	assert.Equal(t, "Passwords don't match", ErrPasswordMismatch.Message)
	assert.Empty(t, *slept)
	assert.False(t, p.IsAuthenticated())
}

func TestSignupThenLoginChecksPassword(t *testing.T) {
	backend := storage.NewMemory()
	p, _ := newTestProvider(t, backend)

	_, err := p.Signup("alice", "secret", "secret")
	require.NoError(t, err)
	require.NoError(t, p.Logout())

	_, err = p.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, p.IsAuthenticated())

	user, err := p.Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, UserID("alice"), user.ID)
}

func TestIdentitySurvivesRestart(t *testing.T) {
	backend := storage.NewMemory()
	p, _ := newTestProvider(t, backend)

	_, err := p.Login("alice", "secret")
	require.NoError(t, err)

	restarted, _ := newTestProvider(t, backend)
	require.True(t, restarted.IsAuthenticated())
	assert.Equal(t, "alice", restarted.Current().Username)

	require.NoError(t, restarted.Logout())

	again, _ := newTestProvider(t, backend)
	assert.False(t, again.IsAuthenticated())
}

func TestUpdatePreferences(t *testing.T) {
	backend := storage.NewMemory()
	p, _ := newTestProvider(t, backend)

	_, err := p.UpdatePreferences([]string{"vegan"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = p.Login("alice", "secret")
	require.NoError(t, err)

	user, err := p.UpdatePreferences([]string{"vegan", "gluten-free"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan", "gluten-free"}, user.DietaryPreferences)

	require.NoError(t, p.Logout())
	user, err = p.Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan", "gluten-free"}, user.DietaryPreferences)
}

func TestCurrentReturnsCopy(t *testing.T) {
	p, _ := newTestProvider(t, storage.NewMemory())
	_, err := p.Login("alice", "secret")
	require.NoError(t, err)
	_, err = p.UpdatePreferences([]string{"vegan"})
	require.NoError(t, err)

	u := p.Current()
	u.DietaryPreferences[0] = "carnivore"
	u.Username = "mallory"

	assert.Equal(t, "alice", p.Current().Username)
	assert.Equal(t, []string{"vegan"}, p.Current().DietaryPreferences)
}

type brokenBackend struct{ *storage.Memory }

func (brokenBackend) Save(storage.Kind, string, []byte) error { return errors.New("disk full") }

func TestLoginPersistenceFailureKeepsPreviousIdentity(t *testing.T) {
	p, _ := newTestProvider(t, brokenBackend{storage.NewMemory()})

	_, err := p.Login("alice", "secret")
	require.Error(t, err)
	assert.False(t, p.IsAuthenticated())
}
